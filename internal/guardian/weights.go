package guardian

import "math"

// Weights assigns a non-negative weight to each signal layer.
type Weights map[Layer]float64

func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Normalized scales the weights to sum to 1. A zero sum returns a copy.
func (w Weights) Normalized() Weights {
	out := w.Clone()
	sum := w.Sum()
	if sum <= 0 {
		return out
	}
	for k, v := range out {
		out[k] = v / sum
	}
	return out
}

// MergeHints multiplies each static weight by its hint, clamped to bounds,
// and normalizes the result. Hints for layers without a static weight are
// ignored, as are non-finite multipliers. Nil hints yield the normalized
// static weights.
func MergeHints(static Weights, hints *WeightHints, bounds HintBounds) Weights {
	merged := static.Clone()
	if hints != nil {
		for layer, w := range merged {
			m, ok := hints.Multipliers[layer]
			if !ok || math.IsNaN(m) || math.IsInf(m, 0) {
				continue
			}
			merged[layer] = w * min(max(m, bounds.Min), bounds.Max)
		}
	}
	return merged.Normalized()
}
