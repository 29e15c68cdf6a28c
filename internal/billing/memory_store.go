package billing

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory CustomerStore for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string]CustomerMapping
}

// NewMemoryStore creates an empty in-memory customer store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mappings: make(map[string]CustomerMapping),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*CustomerMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mapping, ok := s.mappings[userID]
	if !ok {
		return nil, ErrMappingNotFound
	}
	return &mapping, nil
}

func (s *MemoryStore) Create(ctx context.Context, mapping CustomerMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mappings[mapping.UserID]; ok {
		return ErrMappingExists
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now().UTC()
	}
	s.mappings[mapping.UserID] = mapping
	return nil
}
