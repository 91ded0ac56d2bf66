// Package guardian holds the decision core: the verdict model, the versioned
// policy and the pure rule chain that turns a transaction context plus layer
// signals into a verdict.
//
// Nothing in this package performs I/O. Given the same policy and input,
// Evaluate returns the same Decision.
package guardian

import (
	"fmt"
	"math"
	"time"

	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

// Verdict is the outcome of an evaluation. Verdicts are ordered by severity.
type Verdict string

const (
	VerdictAllow    Verdict = "ALLOW"
	VerdictWarn     Verdict = "WARN"
	VerdictStepUp   Verdict = "STEP_UP"
	VerdictBlock    Verdict = "BLOCK"
	VerdictLockdown Verdict = "LOCKDOWN"
)

var verdictRank = map[Verdict]int{
	VerdictAllow:    0,
	VerdictWarn:     1,
	VerdictStepUp:   2,
	VerdictBlock:    3,
	VerdictLockdown: 4,
}

func (v Verdict) String() string { return string(v) }

// Rank returns the severity of v; unknown verdicts rank below ALLOW.
func (v Verdict) Rank() int {
	if r, ok := verdictRank[v]; ok {
		return r
	}
	return -1
}

func (v Verdict) IsValid() bool {
	_, ok := verdictRank[v]
	return ok
}

// AtLeast reports whether v is as severe as other or more.
func (v Verdict) AtLeast(other Verdict) bool {
	return v.Rank() >= other.Rank()
}

// Executable reports whether a signing action may proceed under v, possibly
// after confirmation.
func (v Verdict) Executable() bool {
	return v == VerdictAllow || v == VerdictWarn || v == VerdictStepUp
}

// MaxVerdict returns the more severe of a and b.
func MaxVerdict(a, b Verdict) Verdict {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !v.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown verdict %q", s))
	}
	return v, nil
}

// Layer names a risk-signal source.
type Layer string

const (
	LayerSentinel Layer = "sentinel"
	LayerDQSN     Layer = "dqsn"
	LayerADN      Layer = "adn"
	LayerQWG      Layer = "qwg"
	// LayerAdaptive contributes weight hints only, never a signal.
	LayerAdaptive Layer = "adaptive"
)

// SignalLayers lists the layers that produce signals, in reporting order.
func SignalLayers() []Layer {
	return []Layer{LayerSentinel, LayerDQSN, LayerADN, LayerQWG}
}

func (l Layer) IsSignalLayer() bool {
	switch l {
	case LayerSentinel, LayerDQSN, LayerADN, LayerQWG:
		return true
	}
	return false
}

// Action is the wallet operation being gated.
type Action string

const (
	ActionSend         Action = "send"
	ActionSignMessage  Action = "sign_message"
	ActionExportKey    Action = "export_key"
	ActionChangePolicy Action = "change_policy"
	ActionAddDevice    Action = "add_device"
)

// IsSensitive reports whether the action always requires step-up.
func (a Action) IsSensitive() bool {
	switch a {
	case ActionExportKey, ActionChangePolicy, ActionAddDevice:
		return true
	}
	return false
}

func (a Action) IsValid() bool {
	switch a {
	case ActionSend, ActionSignMessage, ActionExportKey, ActionChangePolicy, ActionAddDevice:
		return true
	}
	return false
}

// KeyScheme is the signature scheme protecting the wallet key.
type KeyScheme string

const (
	KeySchemeECDSA     KeyScheme = "ecdsa"
	KeySchemeSchnorr   KeyScheme = "schnorr"
	KeySchemePQCHybrid KeyScheme = "pqc_hybrid"
)

func (k KeyScheme) IsValid() bool {
	switch k {
	case KeySchemeECDSA, KeySchemeSchnorr, KeySchemePQCHybrid:
		return true
	}
	return false
}

// IsLegacy reports whether the scheme is breakable by a quantum adversary.
func (k KeyScheme) IsLegacy() bool {
	return k == KeySchemeECDSA || k == KeySchemeSchnorr
}

// TransactionContext describes the operation under evaluation.
type TransactionContext struct {
	WalletID      domain.WalletID
	AccountID     domain.AccountID
	Action        Action
	Amount        int64 // minor units
	Asset         string
	Destination   domain.Address
	DeviceID      domain.DeviceID
	UserAgent     string
	ClientIP      string
	KeyScheme     KeyScheme
	PubkeyExposed bool
	// TxDigest is the hex SHA-256 of the payload to be signed. Execution
	// tokens are bound to it.
	TxDigest   string
	OccurredAt time.Time
}

// Signal is one layer's assessment of the transaction.
type Signal struct {
	Layer     Layer    `json:"layer"`
	Score     float64  `json:"score"`
	Critical  bool     `json:"critical"`
	Available bool     `json:"available"`
	Reasons   []string `json:"reasons"`
}

// UnavailableSignal marks a layer that failed or timed out.
func UnavailableSignal(layer Layer) Signal {
	return Signal{Layer: layer, Reasons: []string{string(layer) + "_unavailable"}}
}

// Clamp keeps the score inside [0,1].
func (s Signal) Clamp() Signal {
	s.Score = clamp01(s.Score)
	return s
}

// WeightHints are per-layer multipliers published by the adaptive layer.
type WeightHints struct {
	Multipliers map[Layer]float64 `json:"multipliers"`
	Version     string            `json:"version"`
	IssuedAt    time.Time         `json:"issued_at"`
}

// LayerScore is one layer's contribution to the weighted score.
type LayerScore struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Available    bool    `json:"available"`
	Critical     bool    `json:"critical"`
}

// EvaluationInput is everything Evaluate needs. The caller gathers it.
type EvaluationInput struct {
	DecisionID domain.DecisionID
	Context    TransactionContext
	Signals    []Signal
	Hints      *WeightHints
	// HintsUnavailable is set when the hints source failed and static
	// weights are in use.
	HintsUnavailable bool
	LockdownActive   bool
	// StabilityIndex is in [0,1]; 1 means no recent incidents.
	StabilityIndex float64
	EvaluatedAt    time.Time
}

// Decision is the result of Evaluate.
type Decision struct {
	ID             domain.DecisionID
	WalletID       domain.WalletID
	Action         Action
	Verdict        Verdict
	Score          float64
	Coverage       float64
	Breakdown      map[Layer]LayerScore
	Reasons        []string
	Weights        Weights
	HintsApplied   bool
	HintsVersion   string
	StabilityIndex float64
	PolicyVersion  string
	PolicyHash     string
	EvaluatedAt    time.Time
}

// Reason codes produced by the rule chain.
const (
	ReasonWalletLocked         = "wallet_locked"
	ReasonInsufficientCoverage = "insufficient_coverage"
	ReasonSensitiveAction      = "sensitive_action"
	ReasonLowStability         = "low_stability"
	ReasonDegradedStability    = "degraded_stability"
	ReasonScoreWarn            = "score_warn"
	ReasonScoreStepUp          = "score_step_up"
	ReasonScoreBlock           = "score_block"
	ReasonHintsFallback        = "hints_fallback"
)

// CriticalReason is the reason code for a critical signal from layer.
func CriticalReason(layer Layer) string {
	return "critical_" + string(layer)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}
