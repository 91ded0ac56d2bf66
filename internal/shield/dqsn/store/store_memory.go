// Package store provides destination reputation backends.
package store

import (
	"context"
	"sync"

	"guardian/internal/shield/dqsn"
	"guardian/pkg/domain"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	reps map[domain.Address]dqsn.Reputation
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{reps: make(map[domain.Address]dqsn.Reputation)}
}

func (s *InMemoryStore) Get(_ context.Context, addr domain.Address) (*dqsn.Reputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reps[addr]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

func (s *InMemoryStore) Set(_ context.Context, rep dqsn.Reputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reps[rep.Address] = rep
	return nil
}
