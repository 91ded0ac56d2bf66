package wsqk

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"guardian/internal/guardian"
	"guardian/internal/wsqk/metrics"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	audit "guardian/pkg/platform/audit"
	"guardian/pkg/platform/audit/publishers/security"
	"guardian/pkg/requestcontext"
)

// ConsumedStore remembers used token ids until they expire. Consume reports
// whether jti was unused and is now marked.
type ConsumedStore interface {
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// OpsTracker records authorized executions.
type OpsTracker interface {
	Track(ctx context.Context, event audit.OpsEvent)
}

// Confirmation is what the signing host attests about the user.
type Confirmation struct {
	Acknowledged    bool
	StepUpSatisfied bool
}

// Authorization is a successful gate check.
type Authorization struct {
	DecisionID   domain.DecisionID `json:"decision_id"`
	WalletID     domain.WalletID   `json:"wallet_id"`
	Verdict      guardian.Verdict  `json:"verdict"`
	PolicyHash   string            `json:"policy_hash"`
	AuthorizedAt time.Time         `json:"authorized_at"`
}

// Gate verifies execution tokens. A token authorizes exactly one execution.
type Gate struct {
	key      []byte
	issuer   string
	consumed ConsumedStore
	ops      OpsTracker
	security *security.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type GateOption func(*Gate)

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithGateMetrics(m *metrics.Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithOpsTracker(t OpsTracker) GateOption {
	return func(g *Gate) {
		g.ops = t
	}
}

func WithSecurityPublisher(p *security.Publisher) GateOption {
	return func(g *Gate) {
		g.security = p
	}
}

func WithExpectedIssuer(name string) GateOption {
	return func(g *Gate) {
		if name != "" {
			g.issuer = name
		}
	}
}

func NewGate(masterSecret []byte, consumed ConsumedStore, opts ...GateOption) (*Gate, error) {
	if consumed == nil {
		return nil, errors.New("consumed token store is required")
	}
	key, err := DeriveSigningKey(masterSecret)
	if err != nil {
		return nil, err
	}
	g := &Gate{
		key:      key,
		issuer:   DefaultIssuer,
		consumed: consumed,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Authorize checks the token against the wallet and digest the signing host
// is about to act on, then consumes it.
//
// Errors: CodeUnauthorized for a bad or expired token, CodeForbidden when
// the binding or required confirmation does not hold, CodeConflict when the
// token was already used.
func (g *Gate) Authorize(ctx context.Context, token string, walletID domain.WalletID, txDigest string, conf Confirmation) (*Authorization, error) {
	now := requestcontext.Now(ctx)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return g.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		msg := "invalid execution token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "execution token has expired"
		}
		return nil, g.reject(ctx, walletID, "invalid", dErrors.New(dErrors.CodeUnauthorized, msg))
	}

	verdict, err := guardian.ParseVerdict(claims.Verdict)
	if err != nil || !verdict.Executable() {
		return nil, g.reject(ctx, walletID, "invalid", dErrors.New(dErrors.CodeUnauthorized, "invalid execution token"))
	}
	decisionID, err := domain.ParseDecisionID(claims.ID)
	if err != nil {
		return nil, g.reject(ctx, walletID, "invalid", dErrors.New(dErrors.CodeUnauthorized, "invalid execution token"))
	}

	if claims.WalletID != walletID.String() ||
		subtle.ConstantTimeCompare([]byte(claims.TxDigest), []byte(txDigest)) != 1 {
		return nil, g.reject(ctx, walletID, "mismatch", dErrors.New(dErrors.CodeForbidden, "token is not bound to this wallet and payload"))
	}
	if claims.RequiresAck && !conf.Acknowledged {
		return nil, g.reject(ctx, walletID, "unconfirmed", dErrors.New(dErrors.CodeForbidden, "warning must be acknowledged"))
	}
	if claims.RequiresStepUp && !conf.StepUpSatisfied {
		return nil, g.reject(ctx, walletID, "unconfirmed", dErrors.New(dErrors.CodeForbidden, "step-up authentication is required"))
	}

	ttl := max(claims.ExpiresAt.Sub(now), time.Second)
	fresh, err := g.consumed.Consume(ctx, claims.ID, ttl)
	if err != nil {
		g.metrics.IncAuthorization("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume execution token")
	}
	if !fresh {
		return nil, g.reject(ctx, walletID, "replayed", dErrors.New(dErrors.CodeConflict, "execution token already used"))
	}

	g.metrics.IncAuthorization("authorized")
	if g.ops != nil {
		g.ops.Track(ctx, audit.OpsEvent{
			Timestamp: now,
			WalletID:  walletID,
			Subject:   decisionID.String(),
			Action:    audit.EventTokenAuthorized,
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	return &Authorization{
		DecisionID:   decisionID,
		WalletID:     walletID,
		Verdict:      verdict,
		PolicyHash:   claims.PolicyHash,
		AuthorizedAt: now,
	}, nil
}

func (g *Gate) reject(ctx context.Context, walletID domain.WalletID, outcome string, err *dErrors.Error) error {
	g.metrics.IncAuthorization(outcome)
	severity := audit.SeverityWarning
	if outcome == "replayed" {
		severity = audit.SeverityCritical
	}
	security.Log(ctx, g.logger, g.security, audit.EventTokenRejected, walletID,
		"reason", outcome,
		"severity", string(severity),
	)
	return err
}
