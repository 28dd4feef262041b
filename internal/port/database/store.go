// Package database defines the relational store port (interface).
package database

import (
	"context"

	"github.com/runbeam/runbeam/internal/domain/run"
)

// Store is the port interface for the authoritative relational store.
// It serves two roles for the run-listing layer: hydrating full run
// projections for an identifier set, and resolving friendly batch/schedule
// identifiers inside a project/environment scope.
type Store interface {
	// ListRunsByIDs returns the runs whose internal ids are in ids,
	// ordered by id descending. Missing ids are simply absent from the result.
	ListRunsByIDs(ctx context.Context, ids []string) ([]run.Run, error)

	// GetRunByFriendlyID returns a single run by its friendly identifier.
	// Returns domain.ErrNotFound when no such run exists.
	GetRunByFriendlyID(ctx context.Context, friendlyID string) (*run.Run, error)

	// FindBatchID resolves a friendly batch id to its internal id within the
	// given project/environment scope. Returns domain.ErrNotFound on no match.
	FindBatchID(ctx context.Context, friendlyID, projectID, environmentID string) (string, error)

	// FindScheduleID resolves a friendly schedule id to its internal id within
	// the given project/environment scope. Returns domain.ErrNotFound on no match.
	FindScheduleID(ctx context.Context, friendlyID, projectID, environmentID string) (string, error)
}
