package store

import (
	"context"
	"sync"

	"github.com/AnandSundar/go-likecache"
)

// MemoryStore is an in-memory implementation of likecache.Store.
// Entries are never expired here; stale entries stay until overwritten.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]likecache.Entry
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]likecache.Entry),
	}
}

// Get retrieves a copy of the entry for key
func (s *MemoryStore) Get(_ context.Context, key string) (*likecache.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[key]
	if !exists {
		return nil, likecache.ErrNotFound
	}

	return &entry, nil
}

// Set stores a copy of entry under key
func (s *MemoryStore) Set(_ context.Context, key string, entry *likecache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = *entry

	return nil
}

// Delete removes the entry for key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

// Clear removes all entries
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]likecache.Entry)

	return nil
}

// Len reports how many entries are held, fresh or stale
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
