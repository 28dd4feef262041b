// Package friendlyid translates between internal identifiers and the
// prefixed, human-facing identifiers shown to users. Translation is a pure
// string transform; whether a translated identifier actually exists is a
// separate, store-scoped question answered by the caller.
package friendlyid

import (
	"fmt"
	"strings"
)

// Kind identifies the entity namespace an identifier belongs to.
type Kind string

const (
	KindRun        Kind = "run"
	KindBatch      Kind = "batch"
	KindSchedule   Kind = "schedule"
	KindBulkAction Kind = "bulk_action"
)

// prefixes maps each entity kind to its friendly-id prefix.
var prefixes = map[Kind]string{
	KindRun:        "run_",
	KindBatch:      "batch_",
	KindSchedule:   "sched_",
	KindBulkAction: "bulk_",
}

// ErrInvalid indicates a string is not a friendly identifier of the given kind.
var ErrInvalid = fmt.Errorf("not a friendly identifier")

// ToFriendly encodes an internal identifier into its friendly form.
func ToFriendly(kind Kind, internal string) string {
	return prefixes[kind] + internal
}

// ToInternal decodes a friendly identifier into its internal form.
// It returns ErrInvalid when the value does not carry the kind's prefix
// or carries nothing besides it.
func ToInternal(kind Kind, friendly string) (string, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown identifier kind %q: %w", kind, ErrInvalid)
	}
	internal := strings.TrimPrefix(friendly, prefix)
	if internal == friendly || internal == "" {
		return "", fmt.Errorf("%q is not a %s identifier: %w", friendly, kind, ErrInvalid)
	}
	return internal, nil
}

// ToInternalList decodes a list of friendly identifiers, preserving order.
// Any invalid entry fails the whole translation.
func ToInternalList(kind Kind, friendly []string) ([]string, error) {
	if len(friendly) == 0 {
		return nil, nil
	}
	internal := make([]string, 0, len(friendly))
	for _, f := range friendly {
		id, err := ToInternal(kind, f)
		if err != nil {
			return nil, err
		}
		internal = append(internal, id)
	}
	return internal, nil
}
