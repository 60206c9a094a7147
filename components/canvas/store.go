package canvas

import (
	"context"
	"strings"
	"sync"
)

const layoutKeyPrefix = "dashboard-layout-"

// LayoutKey returns the storage key of a user's layout.
func LayoutKey(userID string) string {
	return layoutKeyPrefix + userID
}

// MemoryStore is a concurrency-safe in-memory LayoutStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put stores a copy of value.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ LayoutStore = (*MemoryStore)(nil)
