package guardian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeHints(t *testing.T) {
	static := Weights{LayerSentinel: 0.5, LayerDQSN: 0.5}
	bounds := HintBounds{Min: 0.5, Max: 1.5}

	t.Run("nil hints normalize static weights", func(t *testing.T) {
		got := MergeHints(Weights{LayerSentinel: 2, LayerDQSN: 2}, nil, bounds)
		assert.InDelta(t, 0.5, got[LayerSentinel], 1e-9)
		assert.InDelta(t, 0.5, got[LayerDQSN], 1e-9)
	})

	t.Run("multipliers are clamped to bounds", func(t *testing.T) {
		got := MergeHints(static, &WeightHints{Multipliers: map[Layer]float64{
			LayerSentinel: 3,
			LayerDQSN:     0.1,
		}}, bounds)
		// 0.5*1.5 and 0.5*0.5, normalized
		assert.InDelta(t, 0.75, got[LayerSentinel], 1e-9)
		assert.InDelta(t, 0.25, got[LayerDQSN], 1e-9)
	})

	t.Run("unknown layers are ignored", func(t *testing.T) {
		got := MergeHints(static, &WeightHints{Multipliers: map[Layer]float64{LayerADN: 1.5}}, bounds)
		assert.Len(t, got, 2)
		assert.NotContains(t, got, LayerADN)
	})

	t.Run("non-finite multipliers are ignored", func(t *testing.T) {
		got := MergeHints(static, &WeightHints{Multipliers: map[Layer]float64{
			LayerSentinel: math.NaN(),
			LayerDQSN:     math.Inf(1),
		}}, bounds)
		assert.InDelta(t, 0.5, got[LayerSentinel], 1e-9)
		assert.InDelta(t, 0.5, got[LayerDQSN], 1e-9)
	})

	t.Run("static weights are not mutated", func(t *testing.T) {
		MergeHints(static, &WeightHints{Multipliers: map[Layer]float64{LayerSentinel: 1.5}}, bounds)
		assert.Equal(t, 0.5, static[LayerSentinel])
	})
}

func TestWeightsNormalizedZeroSum(t *testing.T) {
	w := Weights{LayerSentinel: 0}
	assert.Equal(t, w, w.Normalized())
}
