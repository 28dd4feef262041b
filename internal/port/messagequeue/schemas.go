package messagequeue

// RunStatusPayload is the schema for runs.status.* messages published by the
// execution plane whenever a run changes state.
type RunStatusPayload struct {
	RunID          string `json:"run_id"`
	FriendlyID     string `json:"friendly_id"`
	TaskIdentifier string `json:"task_identifier"`
	ProjectID      string `json:"project_id"`
	EnvironmentID  string `json:"environment_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// AlertDispatchedPayload is the schema for alerts.dispatched messages.
type AlertDispatchedPayload struct {
	DeliveryID string `json:"delivery_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Channels   int    `json:"channels"`
}
