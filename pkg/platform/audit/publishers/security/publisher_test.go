package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRingBuffer_DropsOldestWhenFull(t *testing.T) {
	b := NewRingBuffer(2)
	assert.False(t, b.Enqueue(audit.SecurityEvent{Subject: "a"}))
	assert.False(t, b.Enqueue(audit.SecurityEvent{Subject: "b"}))
	assert.True(t, b.Enqueue(audit.SecurityEvent{Subject: "c"}))

	assert.Equal(t, int64(1), b.Dropped())
	batch := b.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Subject)
	assert.Equal(t, "c", batch[1].Subject)
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.DequeueBatch(1))
}

func TestPublisher_FlushesInBackground(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store, WithFlushInterval(10*time.Millisecond))
	defer p.Close()

	p.Emit(context.Background(), audit.SecurityEvent{
		WalletID: "wallet-1",
		Action:   audit.EventLockdownTriggered,
		Reason:   "block_threshold",
	})

	require.Eventually(t, func() bool {
		events, _ := store.ListByWallet(context.Background(), "wallet-1")
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	events, _ := store.ListByWallet(context.Background(), "wallet-1")
	assert.Equal(t, audit.SeverityWarning, events[0].Severity)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_CloseDrains(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store, WithFlushInterval(time.Hour))
	for range 5 {
		p.Emit(context.Background(), audit.SecurityEvent{WalletID: "wallet-2", Action: audit.EventHintsFallback})
	}
	p.Close()

	events, err := store.ListByWallet(context.Background(), "wallet-2")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}
