package storage

import (
	"maps"
	"sync"
)

// Store is the persisted key-value contract settings are synchronised with.
// A Store is scoped to a single namespace.
type Store interface {
	Read(key string) (string, bool, error)
	Write(key, value string) error
}

// Syncer is implemented by stores backed by durable media. Refresh re-reads
// the backing media and Flush persists pending writes.
type Syncer interface {
	Refresh() error
	Flush() error
}

// MemoryStorage keeps values in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage initialises an empty store, optionally seeded with values.
func NewMemoryStorage(seed map[string]string) *MemoryStorage {
	values := make(map[string]string, len(seed))
	maps.Copy(values, seed)
	return &MemoryStorage{values: values}
}

// Read returns the value persisted under key.
func (s *MemoryStorage) Read(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Write stores value under key.
func (s *MemoryStorage) Write(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	return nil
}

// Delete removes key from the store.
func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Snapshot returns a copy of every persisted value.
func (s *MemoryStorage) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}
