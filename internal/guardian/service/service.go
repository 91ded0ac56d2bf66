// Package service orchestrates an evaluation: it gathers wallet state and
// layer signals, runs the pure decision core, records the consequences and
// issues an execution token.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"guardian/internal/device"
	"guardian/internal/guardian"
	"guardian/internal/guardian/metrics"
	"guardian/internal/lockdown"
	"guardian/internal/profile"
	"guardian/internal/shield"
	"guardian/internal/wsqk"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	txcontext "guardian/pkg/platform/tx"
	"guardian/pkg/requestcontext"
)

var tracer = otel.Tracer("guardian/internal/guardian/service")

// Result is an evaluation outcome. Token is nil for BLOCK and LOCKDOWN and
// when the context carried no tx digest.
type Result struct {
	Decision          guardian.Decision
	Signals           []guardian.Signal
	Token             *wsqk.Token
	IncidentID        *domain.IncidentID
	LockdownTriggered bool
}

type Service struct {
	policy     guardian.Policy
	policyHash string

	gatherer   SignalGatherer
	hints      HintsSource
	lockdowns  LockdownService
	incidents  IncidentService
	profiles   profile.Store
	issuer     TokenIssuer
	devices    *device.Service
	tx         txcontext.Runner
	compliance ComplianceAuditor
	ops        OpsTracker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithPolicy(p guardian.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithHintsSource(h HintsSource) Option {
	return func(s *Service) {
		s.hints = h
	}
}

func WithTokenIssuer(i TokenIssuer) Option {
	return func(s *Service) {
		s.issuer = i
	}
}

func WithDeviceService(d *device.Service) Option {
	return func(s *Service) {
		s.devices = d
	}
}

// WithTxRunner sets the boundary for incident, lockdown, profile and audit
// writes.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

func WithOpsTracker(t OpsTracker) Option {
	return func(s *Service) {
		s.ops = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(gatherer SignalGatherer, lockdowns LockdownService, incidents IncidentService, profiles profile.Store, opts ...Option) (*Service, error) {
	if gatherer == nil {
		return nil, errors.New("signal gatherer is required")
	}
	if lockdowns == nil {
		return nil, errors.New("lockdown service is required")
	}
	if incidents == nil {
		return nil, errors.New("incident service is required")
	}
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}
	s := &Service{
		policy:    guardian.DefaultPolicy(),
		gatherer:  gatherer,
		lockdowns: lockdowns,
		incidents: incidents,
		profiles:  profiles,
		devices:   device.NewService(true),
		tx:        txcontext.NoopRunner{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	s.policyHash = s.policy.Hash()
	return s, nil
}

// Policy returns the active policy and its hash.
func (s *Service) Policy() (guardian.Policy, string) {
	return s.policy, s.policyHash
}

type walletState struct {
	lockdown  lockdown.Status
	profile   *profile.Profile
	stability float64
}

// Evaluate decides on tc and applies the consequences. Layer and hint
// failures degrade the decision; state and audit failures fail it.
func (s *Service) Evaluate(ctx context.Context, tc guardian.TransactionContext) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "guardian.Evaluate", trace.WithAttributes(
		attribute.String("wallet_id", tc.WalletID.String()),
		attribute.String("action", string(tc.Action)),
	))
	defer span.End()

	if err := guardian.ValidateContext(tc); err != nil {
		span.SetStatus(codes.Error, "invalid context")
		return nil, err
	}
	now := requestcontext.Now(ctx)

	state, err := s.loadState(ctx, tc.WalletID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load wallet state")
		return nil, err
	}

	deviceKey := profile.DeviceKey(tc, s.devices)
	signals := s.gatherSignals(ctx, shield.AssessInput{Context: tc, Profile: state.profile, DeviceKey: deviceKey})

	var (
		hints    *guardian.WeightHints
		fallback bool
	)
	if s.hints != nil {
		hints, fallback = s.hints.Fetch(ctx, tc.WalletID)
	}
	if fallback {
		s.metrics.IncHintsFallback()
	}

	decision := guardian.Evaluate(s.policy, guardian.EvaluationInput{
		DecisionID:       domain.NewDecisionID(),
		Context:          tc,
		Signals:          signals,
		Hints:            hints,
		HintsUnavailable: fallback,
		LockdownActive:   state.lockdown.Locked,
		StabilityIndex:   state.stability,
		EvaluatedAt:      now,
	})
	span.SetAttributes(
		attribute.String("verdict", string(decision.Verdict)),
		attribute.Float64("score", decision.Score),
		attribute.Float64("coverage", decision.Coverage),
	)

	result := &Result{Decision: decision, Signals: signals}
	if err := s.apply(ctx, tc, deviceKey, result); err != nil {
		s.metrics.IncSideEffectError()
		span.RecordError(err)
		span.SetStatus(codes.Error, "record decision")
		return nil, err
	}

	if decision.Verdict.Executable() && tc.TxDigest != "" && s.issuer != nil {
		token, err := s.issuer.Issue(decision, tc.WalletID, tc.TxDigest)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.Token = token
	}

	s.metrics.ObserveDecision(string(decision.Verdict), decision.Score, decision.Coverage, time.Since(start))
	s.logger.InfoContext(ctx, "guardian decision",
		"request_id", requestcontext.RequestID(ctx),
		"wallet_id", tc.WalletID,
		"decision_id", decision.ID,
		"action", tc.Action,
		"verdict", decision.Verdict,
		"score", decision.Score,
		"coverage", decision.Coverage,
		"reasons", decision.Reasons,
		"policy_version", decision.PolicyVersion,
	)
	return result, nil
}

func (s *Service) loadState(ctx context.Context, walletID domain.WalletID, now time.Time) (walletState, error) {
	var st walletState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.lockdowns.Check(gctx, walletID)
		st.lockdown = status
		return err
	})
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, walletID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
		}
		st.profile = p
		return nil
	})
	g.Go(func() error {
		idx, err := s.incidents.StabilityIndex(gctx, walletID, now)
		st.stability = idx
		return err
	})
	if err := g.Wait(); err != nil {
		return walletState{}, err
	}
	return st, nil
}

func (s *Service) gatherSignals(ctx context.Context, in shield.AssessInput) []guardian.Signal {
	ctx, span := tracer.Start(ctx, "guardian.GatherSignals")
	defer span.End()
	signals := s.gatherer.Gather(ctx, in)
	for _, sig := range signals {
		span.SetAttributes(attribute.Bool("available."+string(sig.Layer), sig.Available))
	}
	return signals
}

// apply records the decision's consequences in one transaction: the
// incident, the profile update, decision_made and the block count. The block
// count stays last; a Redis lockdown store does not roll back.
func (s *Service) apply(ctx context.Context, tc guardian.TransactionContext, deviceKey string, r *Result) error {
	d := r.Decision
	var learned bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if d.Verdict.AtLeast(guardian.VerdictBlock) {
			inc, err := s.incidents.Open(ctx, d)
			if err != nil {
				return err
			}
			id := inc.ID
			r.IncidentID = &id
		}
		if d.Verdict == guardian.VerdictAllow || d.Verdict == guardian.VerdictWarn {
			// The stored profile may be newer than the one the layers saw.
			if _, err := s.profiles.Update(ctx, tc.WalletID, func(current *profile.Profile) *profile.Profile {
				return profile.Observe(current, tc, deviceKey, d.EvaluatedAt)
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
			}
			learned = true
		}
		if s.compliance != nil {
			if err := s.compliance.Emit(ctx, audit.ComplianceEvent{
				Timestamp:  d.EvaluatedAt,
				WalletID:   tc.WalletID,
				Subject:    d.ID.String(),
				Action:     audit.EventDecisionMade,
				Decision:   string(d.Verdict),
				Reason:     strings.Join(d.Reasons, ","),
				PolicyHash: d.PolicyHash,
				RequestID:  requestcontext.RequestID(ctx),
				ActorID:    requestcontext.Actor(ctx),
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to audit decision")
			}
		}
		if d.Verdict == guardian.VerdictBlock {
			triggered, err := s.lockdowns.RecordBlock(ctx, tc.WalletID)
			if err != nil {
				return err
			}
			r.LockdownTriggered = triggered
		}
		return nil
	})
	if err != nil {
		return err
	}

	if learned && s.ops != nil {
		s.ops.Track(ctx, audit.OpsEvent{
			Timestamp: d.EvaluatedAt,
			WalletID:  tc.WalletID,
			Subject:   d.ID.String(),
			Action:    audit.EventProfileUpdated,
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	return nil
}
