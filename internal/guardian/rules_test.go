package guardian

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guardian/pkg/domain"
)

// RulesSuite covers the rule chain. Evaluate is pure, so every case builds
// its input explicitly and asserts on the returned Decision.
type RulesSuite struct {
	suite.Suite
	policy Policy
	now    time.Time
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) SetupTest() {
	s.policy = DefaultPolicy()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RulesSuite) input(signals ...Signal) EvaluationInput {
	return EvaluationInput{
		DecisionID: domain.NewDecisionID(),
		Context: TransactionContext{
			WalletID:   "wallet-1",
			Action:     ActionSend,
			Amount:     1000,
			Asset:      "DGB",
			KeyScheme:  KeySchemePQCHybrid,
			OccurredAt: s.now,
		},
		Signals:        signals,
		StabilityIndex: 1,
		EvaluatedAt:    s.now,
	}
}

func allLayers(score float64) []Signal {
	out := make([]Signal, 0, 4)
	for _, l := range SignalLayers() {
		out = append(out, Signal{Layer: l, Score: score, Available: true})
	}
	return out
}

func (s *RulesSuite) TestScoreThresholds() {
	cases := []struct {
		name    string
		score   float64
		verdict Verdict
		reason  string
	}{
		{"quiet signals allow", 0.1, VerdictAllow, ""},
		{"moderate score warns", 0.4, VerdictWarn, ReasonScoreWarn},
		{"elevated score steps up", 0.6, VerdictStepUp, ReasonScoreStepUp},
		{"high score blocks", 0.9, VerdictBlock, ReasonScoreBlock},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			d := Evaluate(s.policy, s.input(allLayers(tc.score)...))
			s.Equal(tc.verdict, d.Verdict)
			s.InDelta(tc.score, d.Score, 1e-9)
			s.InDelta(1.0, d.Coverage, 1e-9)
			if tc.reason == "" {
				s.Empty(d.Reasons)
				s.NotNil(d.Reasons)
			} else {
				s.Equal([]string{tc.reason}, d.Reasons)
			}
		})
	}
}

func (s *RulesSuite) TestHardRules() {
	s.Run("active lockdown wins over everything", func() {
		in := s.input(allLayers(0)...)
		in.LockdownActive = true
		d := Evaluate(s.policy, in)
		s.Equal(VerdictLockdown, d.Verdict)
		s.Contains(d.Reasons, ReasonWalletLocked)
	})

	s.Run("critical signal blocks despite low score", func() {
		signals := allLayers(0)
		signals[1].Critical = true
		signals[1].Reasons = []string{"destination_denied"}
		d := Evaluate(s.policy, s.input(signals...))
		s.Equal(VerdictBlock, d.Verdict)
		s.Contains(d.Reasons, CriticalReason(LayerDQSN))
		s.Contains(d.Reasons, "destination_denied")
		s.True(d.Breakdown[LayerDQSN].Critical)
	})

	s.Run("critical flag on an unavailable signal is ignored", func() {
		signals := allLayers(0)
		signals[1] = Signal{Layer: LayerDQSN, Critical: true}
		d := Evaluate(s.policy, s.input(signals...))
		s.Equal(VerdictAllow, d.Verdict)
		s.NotContains(d.Reasons, CriticalReason(LayerDQSN))
	})

	s.Run("lockdown outranks critical", func() {
		signals := allLayers(0)
		signals[0].Critical = true
		in := s.input(signals...)
		in.LockdownActive = true
		d := Evaluate(s.policy, in)
		s.Equal(VerdictLockdown, d.Verdict)
		s.Contains(d.Reasons, CriticalReason(LayerSentinel))
	})
}

func (s *RulesSuite) TestCoverage() {
	s.Run("no signals steps up with zero score", func() {
		d := Evaluate(s.policy, s.input())
		s.Equal(VerdictStepUp, d.Verdict)
		s.Zero(d.Score)
		s.Zero(d.Coverage)
		s.Contains(d.Reasons, ReasonInsufficientCoverage)
		s.Contains(d.Reasons, "sentinel_unavailable")
		s.Contains(d.Reasons, "qwg_unavailable")
	})

	s.Run("coverage below minimum steps up", func() {
		d := Evaluate(s.policy, s.input(Signal{Layer: LayerSentinel, Available: true}))
		s.Equal(VerdictStepUp, d.Verdict)
		s.InDelta(0.35, d.Coverage, 1e-9)
		s.Contains(d.Reasons, ReasonInsufficientCoverage)
	})

	s.Run("missing layers renormalize the score", func() {
		d := Evaluate(s.policy, s.input(
			Signal{Layer: LayerSentinel, Score: 0.4, Available: true},
			Signal{Layer: LayerDQSN, Score: 0.4, Available: true},
			UnavailableSignal(LayerADN),
		))
		s.InDelta(0.4, d.Score, 1e-9)
		s.InDelta(0.65, d.Coverage, 1e-9)
		s.Equal(VerdictWarn, d.Verdict)
		s.False(d.Breakdown[LayerADN].Available)
		s.Contains(d.Reasons, "adn_unavailable")
		s.Contains(d.Reasons, "qwg_unavailable")
	})

	s.Run("contributions sum to the score", func() {
		d := Evaluate(s.policy, s.input(
			Signal{Layer: LayerSentinel, Score: 0.2, Available: true},
			Signal{Layer: LayerDQSN, Score: 0.7, Available: true},
			Signal{Layer: LayerADN, Score: 0.1, Available: true},
			Signal{Layer: LayerQWG, Score: 0.5, Available: true},
		))
		var sum float64
		for _, ls := range d.Breakdown {
			sum += ls.Contribution
		}
		s.InDelta(d.Score, sum, 1e-9)
	})
}

func (s *RulesSuite) TestEscalations() {
	s.Run("sensitive action requires step-up", func() {
		in := s.input(allLayers(0)...)
		in.Context.Action = ActionExportKey
		d := Evaluate(s.policy, in)
		s.Equal(VerdictStepUp, d.Verdict)
		s.Equal([]string{ReasonSensitiveAction}, d.Reasons)
	})

	s.Run("sensitive action does not lower a block", func() {
		in := s.input(allLayers(0.9)...)
		in.Context.Action = ActionAddDevice
		d := Evaluate(s.policy, in)
		s.Equal(VerdictBlock, d.Verdict)
	})

	s.Run("degraded stability steps up", func() {
		in := s.input(allLayers(0)...)
		in.StabilityIndex = 0.5
		d := Evaluate(s.policy, in)
		s.Equal(VerdictStepUp, d.Verdict)
		s.Equal([]string{ReasonDegradedStability}, d.Reasons)
	})

	s.Run("low stability blocks", func() {
		in := s.input(allLayers(0)...)
		in.StabilityIndex = 0.1
		d := Evaluate(s.policy, in)
		s.Equal(VerdictBlock, d.Verdict)
		s.Equal([]string{ReasonLowStability}, d.Reasons)
	})
}

func (s *RulesSuite) TestHints() {
	s.Run("hints reshape weights and are reported", func() {
		in := s.input(allLayers(0)...)
		in.Hints = &WeightHints{
			Multipliers: map[Layer]float64{LayerDQSN: 1.5, LayerQWG: 0.5},
			Version:     "h-7",
		}
		d := Evaluate(s.policy, in)
		s.True(d.HintsApplied)
		s.Equal("h-7", d.HintsVersion)
		s.Greater(d.Weights[LayerDQSN], s.policy.Weights[LayerDQSN])
		s.Less(d.Weights[LayerQWG], s.policy.Weights[LayerQWG])
		s.InDelta(1.0, d.Weights.Sum(), 1e-9)
	})

	s.Run("fallback to static weights is reported", func() {
		in := s.input(allLayers(0)...)
		in.HintsUnavailable = true
		d := Evaluate(s.policy, in)
		s.False(d.HintsApplied)
		s.Equal(VerdictAllow, d.Verdict)
		s.Equal([]string{ReasonHintsFallback}, d.Reasons)
	})
}

func (s *RulesSuite) TestSignalHandling() {
	s.Run("scores are clamped", func() {
		d := Evaluate(s.policy, s.input(
			Signal{Layer: LayerSentinel, Score: 7, Available: true},
			Signal{Layer: LayerDQSN, Score: -3, Available: true},
			Signal{Layer: LayerADN, Score: 1, Available: true},
			Signal{Layer: LayerQWG, Score: 1, Available: true},
		))
		s.Equal(1.0, d.Breakdown[LayerSentinel].Score)
		s.Equal(0.0, d.Breakdown[LayerDQSN].Score)
	})

	s.Run("first signal per layer wins", func() {
		signals := append(allLayers(0), Signal{Layer: LayerSentinel, Score: 1, Available: true, Critical: true})
		d := Evaluate(s.policy, s.input(signals...))
		s.Equal(VerdictAllow, d.Verdict)
	})

	s.Run("adaptive layer signals are ignored", func() {
		signals := append(allLayers(0), Signal{Layer: LayerAdaptive, Score: 1, Available: true, Critical: true})
		d := Evaluate(s.policy, s.input(signals...))
		s.Equal(VerdictAllow, d.Verdict)
		s.NotContains(d.Breakdown, LayerAdaptive)
	})

	s.Run("reasons are sorted and unique", func() {
		signals := allLayers(0.6)
		signals[0].Reasons = []string{"new_destination", "amount_spike"}
		signals[2].Reasons = []string{"new_destination"}
		d := Evaluate(s.policy, s.input(signals...))
		s.Equal([]string{"amount_spike", "new_destination", ReasonScoreStepUp}, d.Reasons)
	})
}

func (s *RulesSuite) TestDeterminism() {
	in := s.input(
		Signal{Layer: LayerSentinel, Score: 0.33, Available: true, Reasons: []string{"b", "a"}},
		Signal{Layer: LayerDQSN, Score: 0.12, Available: true},
		UnavailableSignal(LayerQWG),
	)
	in.Hints = &WeightHints{Multipliers: map[Layer]float64{LayerSentinel: 1.2}, Version: "v"}

	first := Evaluate(s.policy, in)
	second := Evaluate(s.policy, in)
	s.Equal(first, second)
	s.Equal(s.now, first.EvaluatedAt)
	s.Equal(s.policy.Hash(), first.PolicyHash)
	s.Equal(s.policy.Version, first.PolicyVersion)
}
