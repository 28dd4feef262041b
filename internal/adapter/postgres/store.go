package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/runbeam/runbeam/internal/domain"
	"github.com/runbeam/runbeam/internal/domain/run"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const runColumns = `id, friendly_id, task_identifier, task_version, status, is_test,
	created_at, started_at, locked_at, delay_until, updated_at, completed_at, expired_at,
	cost_in_cents, base_cost_in_cents, usage_duration_ms, tags, depth,
	root_task_run_id, batch_id, metadata, metadata_type, machine_preset`

// ListRunsByIDs returns the runs whose ids are in ids, ordered by id
// descending. The analytical store decided the page membership; this query
// only restores the display order the id list implied.
func (s *Store) ListRunsByIDs(ctx context.Context, ids []string) ([]run.Run, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM task_runs WHERE id = ANY($1) ORDER BY id DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list runs by ids: %w", err)
	}
	defer rows.Close()

	var runs []run.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunByFriendlyID returns a single run by its friendly identifier.
func (s *Store) GetRunByFriendlyID(ctx context.Context, friendlyID string) (*run.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM task_runs WHERE friendly_id = $1`, friendlyID)

	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get run %s: %w", friendlyID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get run %s: %w", friendlyID, err)
	}
	return &r, nil
}

// FindBatchID resolves a friendly batch id to its internal id within the
// given project/environment scope.
func (s *Store) FindBatchID(ctx context.Context, friendlyID, projectID, environmentID string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM batches WHERE friendly_id = $1 AND project_id = $2 AND environment_id = $3`,
		friendlyID, projectID, environmentID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("find batch %s: %w", friendlyID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("find batch %s: %w", friendlyID, err)
	}
	return id, nil
}

// FindScheduleID resolves a friendly schedule id to its internal id within
// the given project/environment scope.
func (s *Store) FindScheduleID(ctx context.Context, friendlyID, projectID, environmentID string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM task_schedules WHERE friendly_id = $1 AND project_id = $2 AND environment_id = $3`,
		friendlyID, projectID, environmentID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("find schedule %s: %w", friendlyID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("find schedule %s: %w", friendlyID, err)
	}
	return id, nil
}

// --- Scanners ---

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (run.Run, error) {
	var r run.Run
	err := row.Scan(
		&r.ID, &r.FriendlyID, &r.TaskIdentifier, &r.TaskVersion, &r.Status, &r.IsTest,
		&r.CreatedAt, &r.StartedAt, &r.LockedAt, &r.DelayUntil, &r.UpdatedAt, &r.CompletedAt, &r.ExpiredAt,
		&r.CostInCents, &r.BaseCostCents, &r.UsageDuration, &r.Tags, &r.Depth,
		&r.RootTaskRunID, &r.BatchID, &r.Metadata, &r.MetadataType, &r.MachinePreset,
	)
	return r, err
}
