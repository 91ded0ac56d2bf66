// Package store provides BehaviorProfile persistence backends.
package store

import (
	"context"
	"slices"
	"sync"

	"guardian/internal/profile"
	"guardian/pkg/domain"
)

// InMemoryStore keeps profiles in a map. Reads and writes copy the profile so
// callers never share slices with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.WalletID]profile.Profile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.WalletID]profile.Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, walletID domain.WalletID) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[walletID]
	if !ok {
		return nil, nil
	}
	return copyProfile(p), nil
}

func (s *InMemoryStore) Save(_ context.Context, p *profile.Profile) error {
	if p == nil {
		return errNilProfile
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.WalletID] = *copyProfile(*p)
	return nil
}

// Update holds the store lock across read, fn and write.
func (s *InMemoryStore) Update(_ context.Context, walletID domain.WalletID, fn profile.UpdateFunc) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *profile.Profile
	if p, ok := s.profiles[walletID]; ok {
		current = copyProfile(p)
	}
	next := fn(current)
	if next == nil {
		return nil, errNilProfile
	}
	s.profiles[walletID] = *copyProfile(*next)
	return copyProfile(*next), nil
}

func copyProfile(p profile.Profile) *profile.Profile {
	p.KnownDestinations = slices.Clone(p.KnownDestinations)
	p.KnownDevices = slices.Clone(p.KnownDevices)
	return &p
}
