package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/store/memory"
	"guardian/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestEmit_PersistsDecision(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store)

	err := p.Emit(context.Background(), audit.ComplianceEvent{
		WalletID:   "wallet-1",
		Subject:    "decision-1",
		Action:     audit.EventDecisionMade,
		Decision:   "BLOCK",
		Reason:     "critical_dqsn",
		PolicyHash: "abc",
	})
	require.NoError(t, err)

	events, err := store.ListByWallet(context.Background(), "wallet-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "BLOCK", events[0].Decision)
	assert.Equal(t, "abc", events[0].PolicyHash)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmit_FailsClosed(t *testing.T) {
	p := New(failingStore{})
	err := p.Emit(context.Background(), audit.ComplianceEvent{
		WalletID: "wallet-1",
		Subject:  "decision-1",
		Action:   audit.EventDecisionMade,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compliance audit persistence failed")
}

func TestEmit_RequiresFields(t *testing.T) {
	p := New(memory.NewInMemoryStore())
	assert.Error(t, p.Emit(context.Background(), audit.ComplianceEvent{Action: audit.EventDecisionMade}))
	assert.Error(t, p.Emit(context.Background(), audit.ComplianceEvent{WalletID: "wallet-1", Subject: "decision-1"}))
	assert.Error(t, p.Emit(context.Background(), audit.ComplianceEvent{WalletID: "wallet-1", Action: audit.EventDecisionMade}))
}

func TestEmit_FillsRequestScopedFields(t *testing.T) {
	store := memory.NewInMemoryStore()
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithRequestID(ctx, "req-9")
	ctx = requestcontext.WithActor(ctx, "admin")

	require.NoError(t, New(store).Emit(ctx, audit.ComplianceEvent{
		WalletID: "wallet-1",
		Subject:  "incident-1",
		Action:   audit.EventIncidentResolved,
	}))

	events, err := store.ListByWallet(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-9", events[0].RequestID)
	assert.Equal(t, "admin", events[0].ActorID)
	assert.Equal(t, at, events[0].Timestamp)
}
