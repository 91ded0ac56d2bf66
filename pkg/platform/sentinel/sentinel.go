// Package sentinel holds the storage-level errors shared by every backend.
// Stores return them, possibly wrapped, and services map them to coded
// domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write lost against an earlier one: a duplicate
	// id or an incident that was already resolved.
	ErrConflict = errors.New("conflict")
)
