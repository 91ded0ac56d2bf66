package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"guardian/pkg/domain"
	audit "guardian/pkg/platform/audit"
)

type entry struct {
	id        int64
	event     audit.Event
	published bool
}

// InMemoryStore keeps events in append order and doubles as an outbox.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []entry
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	s.nextID++
	s.entries = append(s.entries, entry{id: s.nextID, event: event})
	return nil
}

// ListByWallet returns events for walletID, newest first.
func (s *InMemoryStore) ListByWallet(_ context.Context, walletID domain.WalletID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].event.WalletID == walletID {
			out = append(out, s.entries[i].event)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.event)
	}
	return out, nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.OutboxEntry
	for _, e := range s.entries {
		if e.published {
			continue
		}
		out = append(out, audit.OutboxEntry{ID: e.id, Event: e.event})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if slices.Contains(ids, s.entries[i].id) {
			s.entries[i].published = true
		}
	}
	return nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
