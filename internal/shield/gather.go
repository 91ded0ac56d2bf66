package shield

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"guardian/internal/guardian"
	"guardian/internal/shield/metrics"
	"guardian/pkg/requestcontext"
)

const defaultAssessTimeout = 250 * time.Millisecond

// Gatherer runs providers in parallel under a shared deadline.
type Gatherer struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type GathererOption func(*Gatherer)

func WithTimeout(d time.Duration) GathererOption {
	return func(g *Gatherer) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) GathererOption {
	return func(g *Gatherer) {
		g.metrics = m
	}
}

func NewGatherer(providers []Provider, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		providers: providers,
		timeout:   defaultAssessTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type result struct {
	signal *guardian.Signal
	err    error
}

// Gather returns one signal per provider, in provider order. A provider that
// errors, returns nothing or misses the deadline yields an unavailable
// signal; Gather itself never fails.
func (g *Gatherer) Gather(ctx context.Context, in AssessInput) []guardian.Signal {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	signals := make([]guardian.Signal, len(g.providers))
	var eg errgroup.Group
	for i, p := range g.providers {
		eg.Go(func() error {
			signals[i] = g.assess(ctx, p, in)
			return nil
		})
	}
	_ = eg.Wait()
	return signals
}

func (g *Gatherer) assess(ctx context.Context, p Provider, in AssessInput) guardian.Signal {
	layer := p.Layer()
	start := time.Now()
	done := make(chan result, 1)
	go func() {
		sig, err := p.Assess(ctx, in)
		done <- result{signal: sig, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	g.metrics.ObserveAssess(string(layer), time.Since(start))

	if res.err == nil && res.signal == nil {
		res.err = errors.New("provider returned no signal")
	}
	if res.err != nil {
		cause := "error"
		if errors.Is(res.err, context.DeadlineExceeded) {
			cause = "timeout"
		}
		g.metrics.IncUnavailable(string(layer), cause)
		g.logger.WarnContext(ctx, "shield layer unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"wallet_id", in.Context.WalletID,
			"layer", layer,
			"cause", cause,
			"error", res.err,
		)
		return guardian.UnavailableSignal(layer)
	}

	sig := res.signal.Clamp()
	sig.Layer = layer
	sig.Available = true
	g.metrics.ObserveScore(string(layer), sig.Score)
	return sig
}
