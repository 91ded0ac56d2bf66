// Package security publishes lockdowns and degraded-mode events without
// blocking the evaluation path. Events sit in a ring buffer and a background
// loop flushes them to the store.
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "guardian/pkg/platform/audit"
)

const (
	defaultFlushInterval = 200 * time.Millisecond
	defaultBatchSize     = 100
)

type Publisher struct {
	store    audit.Store
	buffer   *RingBuffer
	logger   *slog.Logger
	metrics  *audit.Metrics
	interval time.Duration
	batch    int

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *audit.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithCapacity(n int) Option {
	return func(p *Publisher) { p.buffer = NewRingBuffer(n) }
}

// New starts the flush loop. Call Close to drain and stop it.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:    store,
		buffer:   NewRingBuffer(0),
		logger:   slog.Default(),
		interval: defaultFlushInterval,
		batch:    defaultBatchSize,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.loop()
	return p
}

// Emit never blocks.
func (p *Publisher) Emit(_ context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityWarning
	}
	if p.buffer.Enqueue(event) {
		p.metrics.IncDropped(audit.CategorySecurity, "buffer_full")
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush writes everything currently buffered.
func (p *Publisher) Flush(ctx context.Context) {
	for {
		batch := p.buffer.DequeueBatch(p.batch)
		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			if err := p.store.Append(ctx, ev.ToEvent()); err != nil {
				p.metrics.IncPersistFailures(audit.CategorySecurity)
				p.logger.ErrorContext(ctx, "security audit persist failed",
					"action", ev.Action,
					"wallet_id", ev.WalletID,
					"error", err,
				)
				continue
			}
			p.metrics.IncEmitted(audit.CategorySecurity)
		}
	}
}

func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.stop)
		<-p.done
	})
}

func (p *Publisher) loop() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			p.Flush(context.Background())
			return
		case <-p.wake:
			p.Flush(context.Background())
		case <-ticker.C:
			p.Flush(context.Background())
		}
	}
}
