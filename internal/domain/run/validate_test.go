package run

import (
	"errors"
	"testing"

	"github.com/runbeam/runbeam/internal/domain"
)

func TestValidStatus(t *testing.T) {
	for s := range validStatuses {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{"", "running", "COMPLETED", "timed-out"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestIsFailure(t *testing.T) {
	failures := map[Status]bool{
		StatusFailed:        true,
		StatusCrashed:       true,
		StatusSystemFailure: true,
		StatusTimedOut:      true,
		StatusExpired:       true,
	}
	for s := range validStatuses {
		if got := s.IsFailure(); got != failures[s] {
			t.Errorf("IsFailure(%s) = %v, want %v", s, got, failures[s])
		}
	}
}

func TestListFilterValidate(t *testing.T) {
	valid := ListFilter{
		OrganizationID: "org-1",
		ProjectID:      "proj-1",
		EnvironmentID:  "env-1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid filter failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ListFilter)
	}{
		{"missing organization", func(f *ListFilter) { f.OrganizationID = "" }},
		{"missing project", func(f *ListFilter) { f.ProjectID = "" }},
		{"missing environment", func(f *ListFilter) { f.EnvironmentID = "" }},
		{"unknown status", func(f *ListFilter) { f.Statuses = []string{"completed", "bogus"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.Validate(); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
