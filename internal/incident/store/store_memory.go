// Package store provides incident persistence backends.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"guardian/internal/incident"
	"guardian/pkg/domain"
	"guardian/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	incidents map[domain.IncidentID]incident.Incident
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{incidents: make(map[domain.IncidentID]incident.Incident)}
}

func (s *InMemoryStore) Create(_ context.Context, inc *incident.Incident) error {
	if inc == nil {
		return errNilIncident
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.incidents[inc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.incidents[inc.ID] = clone(*inc)
	return nil
}

func (s *InMemoryStore) ListByWallet(_ context.Context, walletID domain.WalletID, limit int) ([]incident.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(inc *incident.Incident) bool { return inc.WalletID == walletID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListUnresolvedSince(_ context.Context, walletID domain.WalletID, since time.Time) ([]incident.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(inc *incident.Incident) bool {
		return inc.WalletID == walletID && !inc.IsResolved() && !inc.CreatedAt.Before(since)
	}), nil
}

func (s *InMemoryStore) Resolve(_ context.Context, walletID domain.WalletID, id domain.IncidentID, at time.Time, note string) (*incident.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incidents[id]
	if !ok || inc.WalletID != walletID {
		return nil, sentinel.ErrNotFound
	}
	if inc.IsResolved() {
		return nil, sentinel.ErrConflict
	}
	resolvedAt := at
	inc.ResolvedAt = &resolvedAt
	inc.ResolutionNote = note
	s.incidents[id] = inc
	out := clone(inc)
	return &out, nil
}

func (s *InMemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, inc := range s.incidents {
		if inc.CreatedAt.Before(cutoff) {
			delete(s.incidents, id)
			n++
		}
	}
	return n, nil
}

// filter returns matching incidents newest first. Callers hold the lock.
func (s *InMemoryStore) filter(keep func(*incident.Incident) bool) []incident.Incident {
	out := make([]incident.Incident, 0)
	for _, inc := range s.incidents {
		if keep(&inc) {
			out = append(out, clone(inc))
		}
	}
	slices.SortFunc(out, func(a, b incident.Incident) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return out
}

func clone(inc incident.Incident) incident.Incident {
	inc.Reasons = slices.Clone(inc.Reasons)
	if inc.ResolvedAt != nil {
		t := *inc.ResolvedAt
		inc.ResolvedAt = &t
	}
	return inc
}

func compareIDs(a, b domain.IncidentID) int {
	switch as, bs := a.String(), b.String(); {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
