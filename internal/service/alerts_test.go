package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/runbeam/runbeam/internal/port/messagequeue"
	"github.com/runbeam/runbeam/internal/port/notifier"
)

type mockQueue struct {
	published map[string][][]byte
	subjects  []string
}

func newMockQueue() *mockQueue {
	return &mockQueue{published: make(map[string][][]byte)}
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, subject string, _ messagequeue.Handler) (func(), error) {
	q.subjects = append(q.subjects, subject)
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

type mockNotifier struct {
	name string
	sent []notifier.Alert
	fail bool
}

func (n *mockNotifier) Name() string { return n.name }

func (n *mockNotifier) Send(_ context.Context, alert notifier.Alert) error {
	if n.fail {
		return errors.New("send failed")
	}
	n.sent = append(n.sent, alert)
	return nil
}

type mockCache struct {
	entries map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func statusEvent(t *testing.T, runID, status string) []byte {
	t.Helper()
	data, err := json.Marshal(messagequeue.RunStatusPayload{
		RunID:          runID,
		FriendlyID:     "run_" + runID,
		TaskIdentifier: "send-email",
		ProjectID:      "proj-1",
		EnvironmentID:  "env-1",
		Status:         status,
		Error:          "boom",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestAlertService_FailureDispatchesToAllNotifiers(t *testing.T) {
	q := newMockQueue()
	n1 := &mockNotifier{name: "slack"}
	n2 := &mockNotifier{name: "email"}
	svc := NewAlertService(q, []notifier.Notifier{n1, n2}, newMockCache(), time.Minute, nil)

	err := svc.handleStatusEvent(context.Background(), "runs.status.crashed", statusEvent(t, "r1", "crashed"))
	if err != nil {
		t.Fatalf("handleStatusEvent: %v", err)
	}

	if len(n1.sent) != 1 || len(n2.sent) != 1 {
		t.Fatalf("expected 1 alert per notifier, got %d and %d", len(n1.sent), len(n2.sent))
	}
	if n1.sent[0].RunFriendlyID != "run_r1" {
		t.Errorf("friendly id = %q, want run_r1", n1.sent[0].RunFriendlyID)
	}
	if n1.sent[0].DeliveryID == "" {
		t.Error("expected non-empty delivery id")
	}

	audits := q.published[messagequeue.SubjectAlertDispatched]
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(audits))
	}
	var audit messagequeue.AlertDispatchedPayload
	if err := json.Unmarshal(audits[0], &audit); err != nil {
		t.Fatalf("unmarshal audit: %v", err)
	}
	if audit.RunID != "r1" || audit.Channels != 2 {
		t.Errorf("audit = %+v, want run r1 with 2 channels", audit)
	}
}

func TestAlertService_NonFailureIgnored(t *testing.T) {
	q := newMockQueue()
	n := &mockNotifier{name: "slack"}
	svc := NewAlertService(q, []notifier.Notifier{n}, newMockCache(), time.Minute, nil)

	err := svc.handleStatusEvent(context.Background(), "runs.status.completed", statusEvent(t, "r1", "completed"))
	if err != nil {
		t.Fatalf("handleStatusEvent: %v", err)
	}

	if len(n.sent) != 0 {
		t.Fatalf("expected no alerts, got %d", len(n.sent))
	}
	if len(q.published) != 0 {
		t.Fatalf("expected no audit events, got %d", len(q.published))
	}
}

func TestAlertService_UnknownStatusErrors(t *testing.T) {
	svc := NewAlertService(newMockQueue(), nil, newMockCache(), time.Minute, nil)

	err := svc.handleStatusEvent(context.Background(), "runs.status.exploded", statusEvent(t, "r1", "exploded"))
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestAlertService_DuplicateEventDeduped(t *testing.T) {
	q := newMockQueue()
	n := &mockNotifier{name: "slack"}
	svc := NewAlertService(q, []notifier.Notifier{n}, newMockCache(), time.Minute, nil)

	event := statusEvent(t, "r1", "failed")
	for range 3 {
		if err := svc.handleStatusEvent(context.Background(), "runs.status.failed", event); err != nil {
			t.Fatalf("handleStatusEvent: %v", err)
		}
	}

	if len(n.sent) != 1 {
		t.Fatalf("expected 1 alert after dedup, got %d", len(n.sent))
	}
	if got := len(q.published[messagequeue.SubjectAlertDispatched]); got != 1 {
		t.Fatalf("expected 1 audit event after dedup, got %d", got)
	}
}

func TestAlertService_DistinctStatusesNotDeduped(t *testing.T) {
	n := &mockNotifier{name: "slack"}
	svc := NewAlertService(newMockQueue(), []notifier.Notifier{n}, newMockCache(), time.Minute, nil)

	if err := svc.handleStatusEvent(context.Background(), "runs.status.failed", statusEvent(t, "r1", "failed")); err != nil {
		t.Fatalf("handleStatusEvent: %v", err)
	}
	if err := svc.handleStatusEvent(context.Background(), "runs.status.timed_out", statusEvent(t, "r1", "timed_out")); err != nil {
		t.Fatalf("handleStatusEvent: %v", err)
	}

	if len(n.sent) != 2 {
		t.Fatalf("expected 2 alerts for distinct failure statuses, got %d", len(n.sent))
	}
}

func TestAlertService_SendFailureDoesNotBlockOthers(t *testing.T) {
	bad := &mockNotifier{name: "slack", fail: true}
	good := &mockNotifier{name: "email"}
	q := newMockQueue()
	svc := NewAlertService(q, []notifier.Notifier{bad, good}, newMockCache(), time.Minute, nil)

	if err := svc.handleStatusEvent(context.Background(), "runs.status.failed", statusEvent(t, "r1", "failed")); err != nil {
		t.Fatalf("handleStatusEvent: %v", err)
	}

	if len(good.sent) != 1 {
		t.Fatalf("expected delivery to healthy notifier, got %d", len(good.sent))
	}

	var audit messagequeue.AlertDispatchedPayload
	if err := json.Unmarshal(q.published[messagequeue.SubjectAlertDispatched][0], &audit); err != nil {
		t.Fatalf("unmarshal audit: %v", err)
	}
	if audit.Channels != 1 {
		t.Errorf("audit channels = %d, want 1", audit.Channels)
	}
}

func TestAlertService_StartSubscribesToStatusSubjects(t *testing.T) {
	q := newMockQueue()
	svc := NewAlertService(q, nil, newMockCache(), time.Minute, nil)

	stop, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()

	if len(q.subjects) != 1 || q.subjects[0] != "runs.status.>" {
		t.Fatalf("subscribed subjects = %v, want [runs.status.>]", q.subjects)
	}
}
