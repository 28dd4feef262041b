package notifier

import (
	"context"
	"slices"
	"testing"
)

type fakeNotifier struct {
	name string
}

func (n *fakeNotifier) Name() string                      { return n.name }
func (n *fakeNotifier) Send(context.Context, Alert) error { return nil }

func TestRegisterAndNew(t *testing.T) {
	Register("test-provider", func(config map[string]string) (Notifier, error) {
		return &fakeNotifier{name: config["name"]}, nil
	})

	n, err := New("test-provider", map[string]string{"name": "test-provider"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Name() != "test-provider" {
		t.Errorf("name = %q, want test-provider", n.Name())
	}

	if !slices.Contains(Available(), "test-provider") {
		t.Errorf("Available() = %v, missing test-provider", Available())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("does-not-exist", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	Register("dup-provider", func(map[string]string) (Notifier, error) {
		return &fakeNotifier{name: "dup"}, nil
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("dup-provider", func(map[string]string) (Notifier, error) {
		return &fakeNotifier{name: "dup"}, nil
	})
}
