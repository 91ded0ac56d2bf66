package shield_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"guardian/internal/guardian"
	"guardian/internal/shield"
	"guardian/internal/shield/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubProvider struct {
	layer  guardian.Layer
	signal *guardian.Signal
	err    error
	block  bool
}

func (p stubProvider) Layer() guardian.Layer { return p.layer }

func (p stubProvider) Assess(ctx context.Context, _ shield.AssessInput) (*guardian.Signal, error) {
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.signal, p.err
}

func TestGather(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	g := shield.NewGatherer([]shield.Provider{
		stubProvider{layer: guardian.LayerSentinel, signal: &guardian.Signal{Score: 1.7, Reasons: []string{"x"}}},
		stubProvider{layer: guardian.LayerDQSN, err: errors.New("redis down")},
		stubProvider{layer: guardian.LayerADN, block: true},
		stubProvider{layer: guardian.LayerQWG},
	},
		shield.WithTimeout(20*time.Millisecond),
		shield.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		shield.WithMetrics(m),
	)

	signals := g.Gather(context.Background(), shield.AssessInput{})
	assert.Len(t, signals, 4)

	assert.Equal(t, guardian.LayerSentinel, signals[0].Layer)
	assert.True(t, signals[0].Available)
	assert.Equal(t, 1.0, signals[0].Score, "scores are clamped")

	assert.Equal(t, guardian.UnavailableSignal(guardian.LayerDQSN), signals[1])
	assert.Equal(t, guardian.UnavailableSignal(guardian.LayerADN), signals[2])
	assert.Equal(t, guardian.UnavailableSignal(guardian.LayerQWG), signals[3], "nil signal counts as unavailable")

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Unavailable.WithLabelValues("dqsn", "error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Unavailable.WithLabelValues("adn", "timeout")))
}

func TestFindings(t *testing.T) {
	f := shield.NewFindings(guardian.LayerSentinel)
	f.Add(0.5, "a")
	f.Add(0, "ignored")
	f.Add(0.5, "b")
	sig := f.Signal()
	assert.InDelta(t, 0.75, sig.Score, 1e-9)
	assert.Equal(t, []string{"a", "b"}, sig.Reasons)
	assert.False(t, sig.Critical)

	f.Critical("c")
	sig = f.Signal()
	assert.True(t, sig.Critical)
	assert.Equal(t, 1.0, sig.Score)
}
