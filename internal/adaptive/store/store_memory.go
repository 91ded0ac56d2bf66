// Package store provides weight hint backends.
package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"guardian/internal/guardian"
	"guardian/pkg/domain"
)

type entry struct {
	hints     guardian.WeightHints
	expiresAt time.Time
}

// InMemoryStore keeps hints per wallet; the empty wallet id holds the global
// hints.
type InMemoryStore struct {
	mu    sync.RWMutex
	hints map[domain.WalletID]entry
	now   func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{hints: make(map[domain.WalletID]entry), now: time.Now}
}

func (s *InMemoryStore) Hints(_ context.Context, walletID domain.WalletID) (*guardian.WeightHints, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	for _, key := range []domain.WalletID{walletID, ""} {
		if e, ok := s.hints[key]; ok && now.Before(e.expiresAt) {
			h := e.hints
			h.Multipliers = maps.Clone(e.hints.Multipliers)
			return &h, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Publish(_ context.Context, walletID domain.WalletID, hints guardian.WeightHints, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hints.Multipliers = maps.Clone(hints.Multipliers)
	s.hints[walletID] = entry{hints: hints, expiresAt: s.now().Add(ttl)}
	return nil
}
