package friendlyid

import (
	"errors"
	"testing"
)

func TestToFriendly(t *testing.T) {
	tests := []struct {
		kind     Kind
		internal string
		want     string
	}{
		{KindRun, "abc123", "run_abc123"},
		{KindBatch, "b1", "batch_b1"},
		{KindSchedule, "s1", "sched_s1"},
		{KindBulkAction, "ba1", "bulk_ba1"},
	}

	for _, tt := range tests {
		if got := ToFriendly(tt.kind, tt.internal); got != tt.want {
			t.Errorf("ToFriendly(%s, %q) = %q, want %q", tt.kind, tt.internal, got, tt.want)
		}
	}
}

func TestToInternal(t *testing.T) {
	got, err := ToInternal(KindRun, "run_abc123")
	if err != nil {
		t.Fatalf("ToInternal: %v", err)
	}
	if got != "abc123" {
		t.Errorf("got %q, want abc123", got)
	}
}

func TestToInternal_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		friendly string
	}{
		{"missing prefix", KindRun, "abc123"},
		{"wrong prefix", KindRun, "batch_abc123"},
		{"prefix only", KindRun, "run_"},
		{"empty", KindRun, ""},
		{"unknown kind", Kind("bogus"), "run_abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToInternal(tt.kind, tt.friendly)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestToInternal_RoundTrip(t *testing.T) {
	for kind := range prefixes {
		friendly := ToFriendly(kind, "x9")
		internal, err := ToInternal(kind, friendly)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if internal != "x9" {
			t.Errorf("%s: got %q, want x9", kind, internal)
		}
	}
}

func TestToInternalList(t *testing.T) {
	got, err := ToInternalList(KindRun, []string{"run_a", "run_b", "run_c"})
	if err != nil {
		t.Fatalf("ToInternalList: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestToInternalList_Empty(t *testing.T) {
	got, err := ToInternalList(KindRun, nil)
	if err != nil {
		t.Fatalf("ToInternalList: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestToInternalList_OneInvalidFailsAll(t *testing.T) {
	_, err := ToInternalList(KindRun, []string{"run_a", "nope", "run_c"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
