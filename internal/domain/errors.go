// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request failed validation before any store access.
var ErrValidation = errors.New("validation failed")

// ErrInternal indicates a broken internal invariant, such as an aggregate
// query returning no row.
var ErrInternal = errors.New("internal invariant violated")
