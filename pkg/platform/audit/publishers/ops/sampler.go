package ops

import (
	"math/rand/v2"
	"sync"
)

// Sampler decides which ops events are kept. Each event name may carry its
// own rate; all others use the default. Rates are clamped to [0,1].
type Sampler struct {
	mu       sync.RWMutex
	fallback float64
	rates    map[string]float64
	roll     func() float64
}

func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		fallback: clampRate(defaultRate),
		rates:    map[string]float64{},
		roll:     rand.Float64, //nolint:gosec // sampling, not security
	}
}

func (s *Sampler) ShouldSample(event string) bool {
	s.mu.RLock()
	rate, ok := s.rates[event]
	s.mu.RUnlock()
	if !ok {
		rate = s.fallback
	}
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.roll() < rate
}

// SetRate overrides the rate for one event name.
func (s *Sampler) SetRate(event string, rate float64) {
	s.mu.Lock()
	s.rates[event] = clampRate(rate)
	s.mu.Unlock()
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
