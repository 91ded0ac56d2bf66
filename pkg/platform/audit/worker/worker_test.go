package worker

import (
	"context"
	"errors"
	"sync"
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

type record struct {
	topic string
	key   string
}

type fakeProducer struct {
	mu      sync.Mutex
	records []record
	failAt  int
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.records)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.records = append(p.records, record{topic: topic, key: string(key)})
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func seed(t *testing.T, store *memory.InMemoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, audit.Event{WalletID: "w1", Action: string(audit.EventDecisionMade), Timestamp: time.Now()}))
	require.NoError(t, store.Append(ctx, audit.Event{WalletID: "w1", Action: string(audit.EventLockdownTriggered), Timestamp: time.Now()}))
	require.NoError(t, store.Append(ctx, audit.Event{WalletID: "w2", Action: string(audit.EventProfileUpdated), Timestamp: time.Now()}))
}

func TestProcessBatch_RoutesByCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	seed(t, store)
	producer := &fakeProducer{}
	w, err := New(store, producer)
	require.NoError(t, err)

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []record{
		{topic: "guardian.audit.compliance", key: "w1"},
		{topic: "guardian.audit.security", key: "w1"},
		{topic: "guardian.audit.operations", key: "w2"},
	}, producer.records)

	n, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "published entries are not re-sent")
}

func TestProcessBatch_PartialFailureKeepsRemainder(t *testing.T) {
	store := memory.NewInMemoryStore()
	seed(t, store)
	producer := &fakeProducer{failAt: 2}
	w, err := New(store, producer)
	require.NoError(t, err)

	n, err := w.ProcessBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)

	pending, err := store.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memory.NewInMemoryStore()
	seed(t, store)
	producer := &fakeProducer{}
	w, err := New(store, producer, WithInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return producer.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, &fakeProducer{})
	assert.Error(t, err)
	_, err = New(memory.NewInMemoryStore(), nil)
	assert.Error(t, err)
}
