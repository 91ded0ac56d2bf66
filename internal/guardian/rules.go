package guardian

import (
	"guardian/pkg/platform/strings"
)

// Evaluate applies the policy's rule chain to the input. It performs no I/O
// and reads no clock: EvaluatedAt comes from the input.
//
// Rule priority:
//  1. Active lockdown (hard) - LOCKDOWN
//  2. Critical signal from an available layer (hard) - BLOCK
//  3. Weighted score against thresholds, escalated to STEP_UP when coverage
//     is below the policy minimum
//  4. Sensitive action - at least STEP_UP
//  5. Stability index - at least STEP_UP or BLOCK
//
// Reason codes are reported for every rule whose condition holds, even when
// a hard rule already decided the verdict.
func Evaluate(policy Policy, in EvaluationInput) Decision {
	weights := MergeHints(policy.Weights, in.Hints, policy.HintBounds)
	signals := indexSignals(in.Signals)

	d := Decision{
		ID:             in.DecisionID,
		WalletID:       in.Context.WalletID,
		Action:         in.Context.Action,
		Breakdown:      make(map[Layer]LayerScore, len(weights)),
		Weights:        weights,
		HintsApplied:   in.Hints != nil,
		StabilityIndex: clamp01(in.StabilityIndex),
		PolicyVersion:  policy.Version,
		PolicyHash:     policy.Hash(),
		EvaluatedAt:    in.EvaluatedAt,
	}
	if in.Hints != nil {
		d.HintsVersion = in.Hints.Version
	}

	var reasons []string
	if in.HintsUnavailable {
		reasons = append(reasons, ReasonHintsFallback)
	}

	var total, covered, weighted float64
	critical := false
	for _, layer := range SignalLayers() {
		w, ok := weights[layer]
		if !ok {
			continue
		}
		total += w

		sig, seen := signals[layer]
		if !seen {
			sig = UnavailableSignal(layer)
		}
		reasons = append(reasons, sig.Reasons...)

		ls := LayerScore{Weight: w, Available: sig.Available}
		if sig.Available {
			ls.Score = sig.Score
			ls.Critical = sig.Critical
			covered += w
			weighted += w * sig.Score
			if sig.Critical {
				critical = true
				reasons = append(reasons, CriticalReason(layer))
			}
		}
		d.Breakdown[layer] = ls
	}

	if covered > 0 {
		d.Score = clamp01(weighted / covered)
		for layer, ls := range d.Breakdown {
			if ls.Available {
				ls.Contribution = ls.Weight * ls.Score / covered
				d.Breakdown[layer] = ls
			}
		}
	}
	if total > 0 {
		d.Coverage = clamp01(covered / total)
	}

	verdict := scoreVerdict(policy.Thresholds, d.Score)
	switch verdict {
	case VerdictBlock:
		reasons = append(reasons, ReasonScoreBlock)
	case VerdictStepUp:
		reasons = append(reasons, ReasonScoreStepUp)
	case VerdictWarn:
		reasons = append(reasons, ReasonScoreWarn)
	}

	if covered == 0 {
		d.Score = 0
		verdict = VerdictStepUp
		reasons = append(reasons, ReasonInsufficientCoverage)
	} else if d.Coverage < policy.MinCoverage {
		verdict = MaxVerdict(verdict, VerdictStepUp)
		reasons = append(reasons, ReasonInsufficientCoverage)
	}

	if d.Action.IsSensitive() {
		verdict = MaxVerdict(verdict, VerdictStepUp)
		reasons = append(reasons, ReasonSensitiveAction)
	}

	switch {
	case d.StabilityIndex < policy.Stability.BlockBelow:
		verdict = MaxVerdict(verdict, VerdictBlock)
		reasons = append(reasons, ReasonLowStability)
	case d.StabilityIndex < policy.Stability.StepUpBelow:
		verdict = MaxVerdict(verdict, VerdictStepUp)
		reasons = append(reasons, ReasonDegradedStability)
	}

	if critical {
		verdict = MaxVerdict(verdict, VerdictBlock)
	}
	if in.LockdownActive {
		verdict = VerdictLockdown
		reasons = append(reasons, ReasonWalletLocked)
	}

	d.Verdict = verdict
	d.Reasons = strings.SortedUnique(reasons)
	return d
}

func scoreVerdict(t Thresholds, score float64) Verdict {
	switch {
	case score >= t.Block:
		return VerdictBlock
	case score >= t.StepUp:
		return VerdictStepUp
	case score >= t.Warn:
		return VerdictWarn
	default:
		return VerdictAllow
	}
}

// indexSignals keeps the first signal per signal layer, clamped.
func indexSignals(signals []Signal) map[Layer]Signal {
	out := make(map[Layer]Signal, len(signals))
	for _, s := range signals {
		if !s.Layer.IsSignalLayer() {
			continue
		}
		if _, dup := out[s.Layer]; dup {
			continue
		}
		out[s.Layer] = s.Clamp()
	}
	return out
}
