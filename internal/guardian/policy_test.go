package guardian

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guardian/pkg/domain-errors"
)

const samplePolicy = `
version: prod-2026-03
weights:
  sentinel: 0.4
  dqsn: 0.3
  adn: 0.2
  qwg: 0.1
thresholds:
  warn: 0.25
  step_up: 0.5
  block: 0.85
min_coverage: 0.6
hint_bounds:
  min: 0.75
  max: 1.25
stability:
  step_up_below: 0.5
  block_below: 0.1
lockdown:
  block_threshold: 2
  window: 30m
  duration: 12h
`

func TestDefaultPolicyIsValid(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
}

func TestParsePolicy(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		p, err := ParsePolicy(strings.NewReader(samplePolicy))
		require.NoError(t, err)
		assert.Equal(t, "prod-2026-03", p.Version)
		assert.Equal(t, 0.4, p.Weights[LayerSentinel])
		assert.Equal(t, 0.85, p.Thresholds.Block)
		assert.Equal(t, 30*time.Minute, p.Lockdown.Window.Std())
		assert.Equal(t, 12*time.Hour, p.Lockdown.Duration.Std())
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := ParsePolicy(strings.NewReader(samplePolicy + "extra: true\n"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("empty document is rejected", func(t *testing.T) {
		_, err := ParsePolicy(strings.NewReader(""))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("bad duration is rejected", func(t *testing.T) {
		doc := strings.Replace(samplePolicy, "window: 30m", "window: soon", 1)
		_, err := ParsePolicy(strings.NewReader(doc))
		require.Error(t, err)
	})
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "prod-2026-03", p.Version)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPolicyValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"missing version", func(p *Policy) { p.Version = "" }},
		{"unknown layer", func(p *Policy) { p.Weights[LayerAdaptive] = 0.1 }},
		{"negative weight", func(p *Policy) { p.Weights[LayerQWG] = -0.1 }},
		{"zero weights", func(p *Policy) { p.Weights = Weights{LayerSentinel: 0} }},
		{"threshold out of range", func(p *Policy) { p.Thresholds.Block = 1.2 }},
		{"unordered thresholds", func(p *Policy) { p.Thresholds.Warn = 0.9 }},
		{"coverage out of range", func(p *Policy) { p.MinCoverage = -0.1 }},
		{"hint min above one", func(p *Policy) { p.HintBounds.Min = 1.1 }},
		{"hint max below one", func(p *Policy) { p.HintBounds.Max = 0.9 }},
		{"stability inverted", func(p *Policy) { p.Stability.BlockBelow = 0.9 }},
		{"zero lockdown threshold", func(p *Policy) { p.Lockdown.BlockThreshold = 0 }},
		{"zero lockdown window", func(p *Policy) { p.Lockdown.Window = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestPolicyHash(t *testing.T) {
	a := DefaultPolicy()
	b := DefaultPolicy()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)

	b.Thresholds.Warn = 0.31
	assert.NotEqual(t, a.Hash(), b.Hash())
}
