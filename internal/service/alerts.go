package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	otelx "github.com/runbeam/runbeam/internal/adapter/otel"
	"github.com/runbeam/runbeam/internal/domain/run"
	"github.com/runbeam/runbeam/internal/friendlyid"
	"github.com/runbeam/runbeam/internal/port/cache"
	"github.com/runbeam/runbeam/internal/port/messagequeue"
	"github.com/runbeam/runbeam/internal/port/notifier"
)

// AlertService consumes run status events and fans failure alerts out to all
// registered notifiers. A (run, status) pair is alerted at most once per
// dedup window so redelivered or replayed events do not page twice.
type AlertService struct {
	queue     messagequeue.Queue
	notifiers []notifier.Notifier
	dedup     cache.Cache
	dedupTTL  time.Duration
	metrics   *otelx.Metrics
}

// NewAlertService creates an AlertService. metrics may be nil.
func NewAlertService(queue messagequeue.Queue, notifiers []notifier.Notifier, dedup cache.Cache, dedupTTL time.Duration, metrics *otelx.Metrics) *AlertService {
	return &AlertService{
		queue:     queue,
		notifiers: notifiers,
		dedup:     dedup,
		dedupTTL:  dedupTTL,
		metrics:   metrics,
	}
}

// Start subscribes to run status events. The returned function cancels the
// subscription.
func (s *AlertService) Start(ctx context.Context) (func(), error) {
	stop, err := s.queue.Subscribe(ctx, messagequeue.SubjectRunStatus+".>", s.handleStatusEvent)
	if err != nil {
		return nil, fmt.Errorf("subscribe run status: %w", err)
	}
	return stop, nil
}

// handleStatusEvent processes one run status transition. Non-failure
// transitions and duplicate failure events are acked without dispatch.
func (s *AlertService) handleStatusEvent(ctx context.Context, subject string, data []byte) error {
	var payload messagequeue.RunStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode run status payload: %w", err)
	}

	status := run.Status(payload.Status)
	if !run.ValidStatus(status) {
		return fmt.Errorf("run status event %s: unknown status %q", subject, payload.Status)
	}
	if !status.IsFailure() {
		return nil
	}

	key := payload.RunID + ":" + payload.Status
	if _, seen, err := s.dedup.Get(ctx, key); err != nil {
		slog.Warn("alert dedup lookup failed", "run_id", payload.RunID, "error", err)
	} else if seen {
		s.metrics.AddAlertDeduped(ctx)
		return nil
	}
	if err := s.dedup.Set(ctx, key, []byte{1}, s.dedupTTL); err != nil {
		slog.Warn("alert dedup store failed", "run_id", payload.RunID, "error", err)
	}

	friendly := payload.FriendlyID
	if friendly == "" {
		friendly = friendlyid.ToFriendly(friendlyid.KindRun, payload.RunID)
	}

	alert := notifier.Alert{
		DeliveryID:     uuid.NewString(),
		RunFriendlyID:  friendly,
		TaskIdentifier: payload.TaskIdentifier,
		ProjectID:      payload.ProjectID,
		EnvironmentID:  payload.EnvironmentID,
		Status:         payload.Status,
		Error:          payload.Error,
	}

	delivered := 0
	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, alert); err != nil {
			slog.Warn("alert send failed",
				"provider", provider.Name(),
				"run", alert.RunFriendlyID,
				"error", err,
			)
			continue
		}
		delivered++
		slog.Debug("alert sent", "provider", provider.Name(), "run", alert.RunFriendlyID)
	}

	s.metrics.AddAlertDispatched(ctx)
	s.publishDispatched(ctx, alert, delivered, payload.RunID)
	return nil
}

// publishDispatched emits the audit event for a dispatched alert. Publish
// failures are logged but never fail the handler; the alert already went out.
func (s *AlertService) publishDispatched(ctx context.Context, alert notifier.Alert, channels int, runID string) {
	audit := messagequeue.AlertDispatchedPayload{
		DeliveryID: alert.DeliveryID,
		RunID:      runID,
		Status:     alert.Status,
		Channels:   channels,
	}
	data, err := json.Marshal(audit)
	if err != nil {
		slog.Warn("alert audit encode failed", "delivery_id", alert.DeliveryID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectAlertDispatched, data); err != nil {
		slog.Warn("alert audit publish failed", "delivery_id", alert.DeliveryID, "error", err)
	}
}

// NotifierCount returns the number of registered notifiers.
func (s *AlertService) NotifierCount() int {
	return len(s.notifiers)
}
