// Package store provides lockdown state backends.
package store

import (
	"context"
	"sync"
	"time"

	"guardian/internal/lockdown"
	"guardian/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.Mutex
	states map[domain.WalletID]lockdown.State
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{states: make(map[domain.WalletID]lockdown.State)}
}

func (s *InMemoryStore) Get(_ context.Context, walletID domain.WalletID) (*lockdown.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[walletID]
	if !ok {
		return nil, nil
	}
	return copyState(st), nil
}

func (s *InMemoryStore) RecordBlock(_ context.Context, walletID domain.WalletID, now, windowCutoff time.Time) (*lockdown.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[walletID]
	if !ok {
		st = lockdown.State{WalletID: walletID}
	}
	if !ok || !st.WindowStart.After(windowCutoff) {
		st.WindowStart = now
		st.BlockCount = 0
	}
	st.BlockCount++
	st.UpdatedAt = now
	s.states[walletID] = st
	return copyState(st), nil
}

func (s *InMemoryStore) ApplyLock(_ context.Context, walletID domain.WalletID, lockedUntil *time.Time, manual bool, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[walletID]
	if !ok {
		st = lockdown.State{WalletID: walletID, WindowStart: now}
	}
	st.LockedUntil = nil
	if lockedUntil != nil {
		t := *lockedUntil
		st.LockedUntil = &t
	}
	st.Manual = manual
	st.Reason = reason
	st.UpdatedAt = now
	s.states[walletID] = st
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, walletID domain.WalletID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, walletID)
	return nil
}

func copyState(st lockdown.State) *lockdown.State {
	if st.LockedUntil != nil {
		t := *st.LockedUntil
		st.LockedUntil = &t
	}
	return &st
}
