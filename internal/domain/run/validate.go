package run

import (
	"fmt"

	"github.com/runbeam/runbeam/internal/domain"
)

// validStatuses enumerates all valid run statuses.
var validStatuses = map[Status]bool{
	StatusPending:       true,
	StatusDelayed:       true,
	StatusQueued:        true,
	StatusExecuting:     true,
	StatusReattempting:  true,
	StatusFrozen:        true,
	StatusCompleted:     true,
	StatusCanceled:      true,
	StatusFailed:        true,
	StatusCrashed:       true,
	StatusInterrupted:   true,
	StatusSystemFailure: true,
	StatusExpired:       true,
	StatusTimedOut:      true,
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// Validate checks that a ListFilter carries its required scope fields and
// only known status values. It runs before any store access.
func (f *ListFilter) Validate() error {
	if f.OrganizationID == "" {
		return fmt.Errorf("organization_id is required: %w", domain.ErrValidation)
	}
	if f.ProjectID == "" {
		return fmt.Errorf("project_id is required: %w", domain.ErrValidation)
	}
	if f.EnvironmentID == "" {
		return fmt.Errorf("environment_id is required: %w", domain.ErrValidation)
	}
	for _, s := range f.Statuses {
		if !validStatuses[Status(s)] {
			return fmt.Errorf("invalid status %q: %w", s, domain.ErrValidation)
		}
	}
	return nil
}
