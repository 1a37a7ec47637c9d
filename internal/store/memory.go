package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It is the default backend and the
// authoritative tier for the current session.
type MemoryStore struct {
	mu            sync.RWMutex
	values        map[string]string
	maxValueBytes int
}

// NewMemoryStore creates a MemoryStore with the given per-value size limit.
// A non-positive limit disables the capacity check.
func NewMemoryStore(maxValueBytes int) *MemoryStore {
	return &MemoryStore{
		values:        make(map[string]string),
		maxValueBytes: maxValueBytes,
	}
}

// Get returns the value for key, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key, enforcing the per-value size limit.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if m.maxValueBytes > 0 && len(value) > m.maxValueBytes {
		return ErrCapacityExceeded
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
