// Package store provides consumed execution token backends.
package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a single-instance consumed token list. Expired ids are
// swept on write.
type InMemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *InMemoryStore) Consume(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, id)
		}
	}
	if _, used := s.expires[jti]; used {
		return false, nil
	}
	s.expires[jti] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}
