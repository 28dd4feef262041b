// Package run defines the task run projection and its listing filter.
package run

import "time"

// Status represents the current state of a task run.
type Status string

const (
	StatusPending       Status = "pending"
	StatusDelayed       Status = "delayed"
	StatusQueued        Status = "queued"
	StatusExecuting     Status = "executing"
	StatusReattempting  Status = "reattempting"
	StatusFrozen        Status = "frozen"
	StatusCompleted     Status = "completed"
	StatusCanceled      Status = "canceled"
	StatusFailed        Status = "failed"
	StatusCrashed       Status = "crashed"
	StatusInterrupted   Status = "interrupted"
	StatusSystemFailure Status = "system_failure"
	StatusExpired       Status = "expired"
	StatusTimedOut      Status = "timed_out"
)

// IsFailure reports whether s is a terminal failure state, the trigger
// condition for alert dispatch.
func (s Status) IsFailure() bool {
	switch s {
	case StatusFailed, StatusCrashed, StatusSystemFailure, StatusTimedOut, StatusExpired:
		return true
	default:
		return false
	}
}

// Run is the hydrated run record. The relational store owns every field;
// the analytical replica is consulted only to select and order identifiers.
type Run struct {
	ID             string     `json:"id"`
	FriendlyID     string     `json:"friendly_id"`
	TaskIdentifier string     `json:"task_identifier"`
	TaskVersion    string     `json:"task_version,omitempty"`
	Status         Status     `json:"status"`
	IsTest         bool       `json:"is_test"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	DelayUntil     *time.Time `json:"delay_until,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CostInCents    float64    `json:"cost_in_cents"`
	BaseCostCents  float64    `json:"base_cost_in_cents"`
	UsageDuration  int64      `json:"usage_duration_ms"`
	Tags           []string   `json:"tags,omitempty"`
	Depth          int        `json:"depth"`
	RootTaskRunID  string     `json:"root_task_run_id,omitempty"`
	BatchID        string     `json:"batch_id,omitempty"`
	Metadata       string     `json:"metadata,omitempty"`
	MetadataType   string     `json:"metadata_type,omitempty"`
	MachinePreset  string     `json:"machine_preset,omitempty"`
}

// ListFilter is the raw inbound filter for listing runs. The three scope
// fields are required; every other dimension is optional and, when absent,
// imposes no constraint. Batch, schedule, bulk-action and run identifiers
// arrive in friendly form.
type ListFilter struct {
	OrganizationID string   `json:"organization_id"`
	ProjectID      string   `json:"project_id"`
	EnvironmentID  string   `json:"environment_id"`
	Tasks          []string `json:"tasks,omitempty"`
	Versions       []string `json:"versions,omitempty"`
	Statuses       []string `json:"statuses,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ScheduleID     string   `json:"schedule_id,omitempty"`
	Period         string   `json:"period,omitempty"`
	From           int64    `json:"from,omitempty"` // epoch milliseconds
	To             int64    `json:"to,omitempty"`   // epoch milliseconds
	IsTest         *bool    `json:"is_test,omitempty"`
	RootOnly       bool     `json:"root_only,omitempty"`
	BatchID        string   `json:"batch_id,omitempty"`
	RunIDs         []string `json:"run_ids,omitempty"`
	BulkActionID   string   `json:"bulk_action_id,omitempty"`
}
