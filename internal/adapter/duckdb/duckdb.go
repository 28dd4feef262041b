// Package duckdb implements the analytics port on an embedded DuckDB
// replica of the run table. The replica is written by the ingestion pipeline
// outside this service; this adapter only reads it.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/runbeam/runbeam/internal/port/analytics"
)

// replicaTable is the denormalized run replica consulted for filtering,
// ordering and identifier selection. created_at holds epoch milliseconds.
const replicaTable = "task_runs_replica"

// Store implements analytics.Store.
type Store struct {
	db *sql.DB
}

// Open opens the DuckDB database at path (":memory:" for in-memory) and
// verifies the connection.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &Store{db: db}, nil
}

// EnsureSchema creates the replica table when it does not exist yet. The
// ingestion pipeline owns the data; an empty table is a valid cold start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+replicaTable+` (
			run_id                VARCHAR NOT NULL,
			organization_id       VARCHAR NOT NULL,
			project_id            VARCHAR NOT NULL,
			environment_id        VARCHAR NOT NULL,
			task_identifier       VARCHAR NOT NULL,
			task_version          VARCHAR,
			status                VARCHAR NOT NULL,
			is_test               BOOLEAN NOT NULL DEFAULT false,
			created_at            BIGINT NOT NULL,
			tags                  VARCHAR[],
			root_task_run_id      VARCHAR,
			schedule_id           VARCHAR,
			batch_id              VARCHAR,
			bulk_action_group_ids VARCHAR[]
		)`)
	if err != nil {
		return fmt.Errorf("ensure replica schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunQuery starts a chainable identifier-selection query.
func (s *Store) RunQuery() analytics.RunQuery {
	return &runQuery{db: s.db, builder: newBuilder()}
}

// CountQuery starts a chainable aggregate query.
func (s *Store) CountQuery() analytics.CountQuery {
	return &countQuery{db: s.db, builder: newBuilder()}
}
