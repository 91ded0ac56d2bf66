// Package worker relays audit outbox entries to the message broker.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/tx"
)

// Producer publishes one record to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Worker struct {
	outbox   audit.Outbox
	producer Producer
	runner   tx.Runner
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithTxRunner(r tx.Runner) Option {
	return func(w *Worker) { w.runner = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func New(outbox audit.Outbox, producer Producer, opts ...Option) (*Worker, error) {
	if outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	w := &Worker{
		outbox:   outbox,
		producer: producer,
		runner:   tx.NoopRunner{},
		logger:   slog.Default(),
		interval: time.Second,
		batch:    100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// ProcessBatch publishes one batch in outbox order. Entries published before a
// broker failure are still marked so they are not re-sent.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	var (
		published  int
		publishErr error
	)
	err := w.runner.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := w.outbox.FetchUnpublished(ctx, w.batch)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(entries))
		for _, entry := range entries {
			value, err := audit.MarshalPayload(entry.Event)
			if err != nil {
				return err
			}
			topic := entry.Event.Category.Topic()
			if err := w.producer.Publish(ctx, topic, []byte(entry.Event.WalletID), value); err != nil {
				publishErr = err
				break
			}
			ids = append(ids, entry.ID)
		}
		published = len(ids)
		return w.outbox.MarkPublished(ctx, ids)
	})
	if err != nil {
		return 0, err
	}
	return published, publishErr
}
