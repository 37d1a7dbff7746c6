package store

import (
	"context"
	"sync"

	"github.com/rgehrsitz/corpusplan/internal/domain"
)

// MemoryStore keeps encoded profiles in process. Used for guests and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, username string) (*domain.UserProfile, error) {
	s.mu.RLock()
	data, ok := s.data[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return domain.ParseUserData(data)
}

func (s *MemoryStore) Save(_ context.Context, profile *domain.UserProfile) error {
	ok, err := checkSave(profile)
	if !ok {
		return err
	}
	data, err := encode(profile)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[profile.Username] = data
	s.mu.Unlock()
	return nil
}
