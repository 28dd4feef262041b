package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/runbeam/runbeam/internal/domain"
	"github.com/runbeam/runbeam/internal/domain/run"
	"github.com/runbeam/runbeam/internal/port/analytics"
)

// scriptedAnalytics implements analytics.Store with canned results.
type scriptedAnalytics struct {
	entries []analytics.RunEntry
	listErr error

	count    int64
	countErr error

	lastRun   *scriptedRunQuery
	lastCount *scriptedCountQuery
}

func (a *scriptedAnalytics) RunQuery() analytics.RunQuery {
	a.lastRun = &scriptedRunQuery{store: a}
	return a.lastRun
}

func (a *scriptedAnalytics) CountQuery() analytics.CountQuery {
	a.lastCount = &scriptedCountQuery{store: a}
	return a.lastCount
}

type scriptedRunQuery struct {
	store  *scriptedAnalytics
	wheres []string
	order  string
	limit  int
}

func (q *scriptedRunQuery) Where(fragment string, _ ...analytics.Param) analytics.RunQuery {
	q.wheres = append(q.wheres, fragment)
	return q
}

func (q *scriptedRunQuery) OrderBy(expr string) analytics.RunQuery {
	q.order = expr
	return q
}

func (q *scriptedRunQuery) Limit(n int) analytics.RunQuery {
	q.limit = n
	return q
}

func (q *scriptedRunQuery) Execute(context.Context) ([]analytics.RunEntry, error) {
	if q.store.listErr != nil {
		return nil, q.store.listErr
	}
	entries := q.store.entries
	if q.limit > 0 && len(entries) > q.limit {
		entries = entries[:q.limit]
	}
	return entries, nil
}

type scriptedCountQuery struct {
	store  *scriptedAnalytics
	wheres []string
}

func (q *scriptedCountQuery) Where(fragment string, _ ...analytics.Param) analytics.CountQuery {
	q.wheres = append(q.wheres, fragment)
	return q
}

func (q *scriptedCountQuery) Execute(context.Context) (int64, error) {
	if q.store.countErr != nil {
		return 0, q.store.countErr
	}
	return q.store.count, nil
}

func storedRun(id string, status run.Status) run.Run {
	return run.Run{
		ID:             id,
		FriendlyID:     "run_" + id,
		TaskIdentifier: "send-email",
		Status:         status,
		CreatedAt:      time.Now().Add(-time.Hour),
		UpdatedAt:      time.Now(),
	}
}

func TestList(t *testing.T) {
	db := &stubDB{runs: []run.Run{
		storedRun("c", run.StatusCompleted),
		storedRun("b", run.StatusExecuting),
		storedRun("a", run.StatusPending),
	}}
	an := &scriptedAnalytics{entries: entries("c", "b", "a")}
	svc := NewRunListService(db, an, nil)

	f := scopedFilter()
	result, err := svc.List(context.Background(), f, PageRequest{Size: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(result.Runs) != 2 || result.Runs[0].ID != "c" || result.Runs[1].ID != "b" {
		t.Fatalf("runs = %v, want [c b]", result.Runs)
	}
	if result.Pagination.NextCursor == nil || *result.Pagination.NextCursor != "b" {
		t.Errorf("next cursor = %v, want b", result.Pagination.NextCursor)
	}
	if result.Pagination.PreviousCursor != nil {
		t.Errorf("previous cursor = %v, want nil on first page", result.Pagination.PreviousCursor)
	}
	if an.lastRun.limit != 3 {
		t.Errorf("limit = %d, want size+1", an.lastRun.limit)
	}
	if an.lastRun.order != "created_at DESC, run_id DESC" {
		t.Errorf("order = %q", an.lastRun.order)
	}
}

func TestList_InvalidPage(t *testing.T) {
	db := &stubDB{}
	svc := NewRunListService(db, &scriptedAnalytics{}, nil)

	_, err := svc.List(context.Background(), scopedFilter(), PageRequest{Size: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if db.listCalls != 0 || db.lookupCalls != 0 {
		t.Error("expected no store access on invalid page")
	}
}

func TestList_AnalyticsError(t *testing.T) {
	an := &scriptedAnalytics{listErr: errors.New("replica unavailable")}
	svc := NewRunListService(&stubDB{}, an, nil)

	_, err := svc.List(context.Background(), scopedFilter(), PageRequest{Size: 10})
	if err == nil {
		t.Fatal("expected error from analytical store")
	}
}

func TestList_EmptyPage(t *testing.T) {
	svc := NewRunListService(&stubDB{}, &scriptedAnalytics{}, nil)

	result, err := svc.List(context.Background(), scopedFilter(), PageRequest{Size: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Runs) != 0 {
		t.Fatalf("runs = %v, want empty", result.Runs)
	}
	if result.Pagination.NextCursor != nil || result.Pagination.PreviousCursor != nil {
		t.Error("expected no cursors for an empty page")
	}
}

func TestList_LaggedStatusDropped(t *testing.T) {
	// The replica still sees run "b" as executing, but the relational store
	// has moved it to completed. A status filter on executing must drop it
	// from the hydrated page.
	db := &stubDB{runs: []run.Run{
		storedRun("b", run.StatusCompleted),
		storedRun("a", run.StatusExecuting),
	}}
	an := &scriptedAnalytics{entries: entries("b", "a")}
	svc := NewRunListService(db, an, nil)

	f := scopedFilter()
	f.Statuses = []string{"executing"}
	result, err := svc.List(context.Background(), f, PageRequest{Size: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(result.Runs) != 1 || result.Runs[0].ID != "a" {
		t.Fatalf("runs = %v, want only a", result.Runs)
	}
}

func TestList_NoStatusFilterKeepsAllRows(t *testing.T) {
	db := &stubDB{runs: []run.Run{
		storedRun("b", run.StatusCompleted),
		storedRun("a", run.StatusExecuting),
	}}
	an := &scriptedAnalytics{entries: entries("b", "a")}
	svc := NewRunListService(db, an, nil)

	result, err := svc.List(context.Background(), scopedFilter(), PageRequest{Size: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Runs) != 2 {
		t.Fatalf("runs = %v, want 2 rows", result.Runs)
	}
}

func TestCount(t *testing.T) {
	an := &scriptedAnalytics{count: 42}
	svc := NewRunListService(&stubDB{}, an, nil)

	got, err := svc.Count(context.Background(), scopedFilter())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 42 {
		t.Errorf("count = %d, want 42", got)
	}
	// Count applies the same scope predicates as listing.
	if len(an.lastCount.wheres) != 3 {
		t.Errorf("count predicates = %v, want 3 scope predicates", an.lastCount.wheres)
	}
}

func TestCount_InvalidFilter(t *testing.T) {
	svc := NewRunListService(&stubDB{}, &scriptedAnalytics{}, nil)

	f := scopedFilter()
	f.Statuses = []string{"exploded"}
	_, err := svc.Count(context.Background(), f)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCount_StoreError(t *testing.T) {
	an := &scriptedAnalytics{countErr: errors.New("replica unavailable")}
	svc := NewRunListService(&stubDB{}, an, nil)

	_, err := svc.Count(context.Background(), scopedFilter())
	if err == nil {
		t.Fatal("expected error from analytical store")
	}
}

func TestGet(t *testing.T) {
	db := &stubDB{runs: []run.Run{storedRun("a", run.StatusCompleted)}}
	svc := NewRunListService(db, &scriptedAnalytics{}, nil)

	got, err := svc.Get(context.Background(), "run_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "a" {
		t.Errorf("id = %q, want a", got.ID)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewRunListService(&stubDB{}, &scriptedAnalytics{}, nil)

	_, err := svc.Get(context.Background(), "run_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
