// Package notifier defines the alert notification port (interface).
// Channel delivery mechanics live outside this service; deployments register
// concrete notifiers through the factory registry.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Alert is the payload handed to a Notifier when a run enters a failure state.
type Alert struct {
	DeliveryID     string `json:"delivery_id"`
	RunFriendlyID  string `json:"run_friendly_id"`
	TaskIdentifier string `json:"task_identifier"`
	ProjectID      string `json:"project_id"`
	EnvironmentID  string `json:"environment_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// Notifier is the port interface for delivering run alerts.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Send delivers an alert.
	Send(ctx context.Context, alert Alert) error
}
