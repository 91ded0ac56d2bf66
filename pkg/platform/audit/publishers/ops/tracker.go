// Package ops tracks routine activity (profile updates, token use) with
// sampling and a non-blocking buffer.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publisher"
)

type Tracker struct {
	sampler *Sampler
	pub     *publisher.Publisher
	metrics *audit.Metrics
	logger  *slog.Logger
}

type Option func(*Tracker)

func WithMetrics(m *audit.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker wraps store in an async publisher of the given buffer size.
func NewTracker(store audit.Store, sampler *Sampler, bufferSize int, opts ...Option) *Tracker {
	t := &Tracker{sampler: sampler, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	if t.sampler == nil {
		t.sampler = NewSampler(1)
	}
	t.pub = publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(bufferSize),
		publisher.WithMetrics(t.metrics),
		publisher.WithLogger(t.logger),
	)
	return t
}

// Track is fire-and-forget.
func (t *Tracker) Track(ctx context.Context, event audit.OpsEvent) {
	if !t.sampler.ShouldSample(string(event.Action)) {
		t.metrics.IncDropped(audit.CategoryOperations, "sampled")
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := t.pub.Emit(ctx, event.ToEvent()); err != nil && !errors.Is(err, publisher.ErrBufferFull) {
		t.logger.DebugContext(ctx, "ops audit dropped", "action", event.Action, "error", err)
	}
}

func (t *Tracker) Close() {
	t.pub.Close()
}
