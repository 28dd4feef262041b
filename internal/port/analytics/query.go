// Package analytics defines the columnar analytical store port (interface).
// The analytical store holds an eventually-consistent, append-mostly replica
// of the run table; it is consulted only for filtering, ordering, and
// identifier selection, never as a source of field values.
package analytics

import (
	"context"
	"time"
)

// ParamType annotates the wire type of a named query parameter.
type ParamType int

const (
	TypeString ParamType = iota
	TypeArrayString
	TypeInt64
	TypeBoolean
)

// Param is a named, typed query parameter. Values reach the store through
// the driver's parameter binding; they are never interpolated into SQL text.
type Param struct {
	Name  string
	Type  ParamType
	Value any
}

// String builds a string parameter.
func String(name, value string) Param {
	return Param{Name: name, Type: TypeString, Value: value}
}

// ArrayString builds a string-list parameter.
func ArrayString(name string, value []string) Param {
	return Param{Name: name, Type: TypeArrayString, Value: value}
}

// Int64 builds a 64-bit integer parameter.
func Int64(name string, value int64) Param {
	return Param{Name: name, Type: TypeInt64, Value: value}
}

// Boolean builds a boolean parameter.
func Boolean(name string, value bool) Param {
	return Param{Name: name, Type: TypeBoolean, Value: value}
}

// Condition is one predicate fragment with its named parameters. Fragments
// reference parameters as $name; list/count query shapes apply the same
// condition slice.
type Condition struct {
	Fragment string
	Params   []Param
}

// RunEntry is one row of the identifier-selection result.
type RunEntry struct {
	RunID     string
	CreatedAt time.Time
}

// RunQuery selects run identifiers ordered for pagination.
type RunQuery interface {
	Where(fragment string, params ...Param) RunQuery
	OrderBy(expr string) RunQuery
	Limit(n int) RunQuery
	Execute(ctx context.Context) ([]RunEntry, error)
}

// CountQuery counts runs matching the applied conditions. The aggregate
// must yield exactly one row; anything else is an internal error.
type CountQuery interface {
	Where(fragment string, params ...Param) CountQuery
	Execute(ctx context.Context) (int64, error)
}

// Store is the port interface for the analytical store.
type Store interface {
	RunQuery() RunQuery
	CountQuery() CountQuery
}
