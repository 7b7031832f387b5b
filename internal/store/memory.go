package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type memoryEntry struct {
	value   []byte
	version int64
}

// MemoryStore keeps encoded documents in a map. Values are round-tripped
// through the same encoding as the SQLite store so callers never share memory
// with what is stored.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string, dest interface{}) (int64, bool, error) {
	if key == "" {
		return 0, false, ErrInvalidKey
	}

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}

	if err := decode(entry.value, dest); err != nil {
		return 0, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return entry.version, true, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, key string, value interface{}) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	data, err := encode(value)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version := m.entries[key].version + 1
	m.entries[key] = memoryEntry{value: data, version: version}
	return version, nil
}

// SaveIfVersion implements Store.
func (m *MemoryStore) SaveIfVersion(_ context.Context, key string, expected int64, value interface{}) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	data, err := encode(value)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.entries[key].version
	if current != expected {
		return 0, fmt.Errorf("%w: %s is at version %d, expected %d", ErrVersionConflict, key, current, expected)
	}

	m.entries[key] = memoryEntry{value: data, version: current + 1}
	return current + 1, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
