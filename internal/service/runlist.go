// Package service holds the business logic of the runbeam control plane.
package service

import (
	"context"
	"log/slog"
	"time"

	otelx "github.com/runbeam/runbeam/internal/adapter/otel"
	"github.com/runbeam/runbeam/internal/domain/run"
	"github.com/runbeam/runbeam/internal/port/analytics"
	"github.com/runbeam/runbeam/internal/port/database"
)

// RunListService answers run listing and counting requests. It reads in two
// phases: the analytical store selects and orders run identifiers, then the
// relational store hydrates the projections and supplies the authoritative
// field values. The analytical replica may lag, so the hydration phase
// re-checks the status dimension against the relational truth.
type RunListService struct {
	db        database.Store
	analytics analytics.Store
	metrics   *otelx.Metrics
	now       func() time.Time
}

// NewRunListService creates a RunListService. metrics may be nil.
func NewRunListService(db database.Store, store analytics.Store, metrics *otelx.Metrics) *RunListService {
	return &RunListService{
		db:        db,
		analytics: store,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Pagination carries the page boundary cursors of a list result.
type Pagination struct {
	NextCursor     *string `json:"next_cursor"`
	PreviousCursor *string `json:"previous_cursor"`
}

// ListResult is the outcome of one list request.
type ListResult struct {
	Runs       []run.Run  `json:"runs"`
	Pagination Pagination `json:"pagination"`
}

// List returns one page of hydrated runs matching the filter.
func (s *RunListService) List(ctx context.Context, filter run.ListFilter, page PageRequest) (*ListResult, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}

	nf, err := s.normalizeFilter(ctx, &filter)
	if err != nil {
		return nil, err
	}

	q := s.analytics.RunQuery()
	for _, c := range nf.conditions(s.now()) {
		q = q.Where(c.Fragment, c.Params...)
	}
	q = applyPage(q, page)

	start := s.now()
	entries, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(ctx, "list", time.Since(start))

	pageRes := resolvePage(entries, page)

	runs, err := s.loadProjections(ctx, pageRes.IDs, nf.statuses)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Runs: runs,
		Pagination: Pagination{
			NextCursor:     pageRes.NextCursor,
			PreviousCursor: pageRes.PreviousCursor,
		},
	}, nil
}

// Count returns the number of runs matching the filter, as seen by the
// analytical store.
func (s *RunListService) Count(ctx context.Context, filter run.ListFilter) (int64, error) {
	nf, err := s.normalizeFilter(ctx, &filter)
	if err != nil {
		return 0, err
	}

	q := s.analytics.CountQuery()
	for _, c := range nf.conditions(s.now()) {
		q = q.Where(c.Fragment, c.Params...)
	}

	start := s.now()
	count, err := q.Execute(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordQuery(ctx, "count", time.Since(start))

	return count, nil
}

// Get returns a single run by its friendly identifier.
func (s *RunListService) Get(ctx context.Context, friendlyID string) (*run.Run, error) {
	return s.db.GetRunByFriendlyID(ctx, friendlyID)
}

// loadProjections hydrates the ordered id list from the relational store and
// re-applies the status filter against the authoritative status of each row.
// The re-check only shrinks the page: the replica may still report a status
// the relational store has already moved past. Page fullness was accounted
// against the replica, so a shrunk page can understate hasMore; that
// approximation is deliberate.
func (s *RunListService) loadProjections(ctx context.Context, ids []string, statuses []run.Status) ([]run.Run, error) {
	if len(ids) == 0 {
		return []run.Run{}, nil
	}

	runs, err := s.db.ListRunsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if len(statuses) == 0 {
		return runs, nil
	}

	wanted := make(map[run.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	kept := runs[:0]
	for _, r := range runs {
		if wanted[r.Status] {
			kept = append(kept, r)
		}
	}
	if dropped := len(runs) - len(kept); dropped > 0 {
		s.metrics.AddLagCorrectedRows(ctx, int64(dropped))
		slog.Debug("dropped replica-lagged rows from page", "dropped", dropped)
	}
	return kept, nil
}
