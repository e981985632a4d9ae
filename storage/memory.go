package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps entries in process memory. Nothing survives a restart;
// it backs tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]string
	namespace string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]string),
		namespace: namespace,
	}
}

// Get returns the value stored for key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	return value, ok, nil
}

// Set inserts or overwrites the value for key.
func (s *MemoryStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	return nil
}

// Available always returns true.
func (s *MemoryStore) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this store.
func (s *MemoryStore) Name() string {
	return fmt.Sprintf("memory-%s", s.namespace)
}

// LocationURI returns the URI that identifies this store.
func (s *MemoryStore) LocationURI() string {
	return fmt.Sprintf("memory://?namespace=%s", s.namespace)
}
