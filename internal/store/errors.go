package store

import "errors"

var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrCapacityExceeded is returned when a value exceeds the store's
	// per-value size limit. Callers that can fall back to in-memory state
	// treat this as a degradation, not a failure.
	ErrCapacityExceeded = errors.New("value exceeds store capacity")
)
