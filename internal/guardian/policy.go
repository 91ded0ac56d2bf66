package guardian

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "guardian/pkg/domain-errors"
)

// Duration is a time.Duration that reads and writes as "1h30m" in YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Thresholds map the weighted score onto verdicts.
type Thresholds struct {
	Warn   float64 `yaml:"warn" json:"warn"`
	StepUp float64 `yaml:"step_up" json:"step_up"`
	Block  float64 `yaml:"block" json:"block"`
}

// HintBounds clamp adaptive multipliers.
type HintBounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// StabilityPolicy escalates wallets with a poor incident history.
type StabilityPolicy struct {
	StepUpBelow float64 `yaml:"step_up_below" json:"step_up_below"`
	BlockBelow  float64 `yaml:"block_below" json:"block_below"`
}

// LockdownPolicy freezes a wallet after repeated BLOCK verdicts.
type LockdownPolicy struct {
	BlockThreshold int      `yaml:"block_threshold" json:"block_threshold"`
	Window         Duration `yaml:"window" json:"window"`
	Duration       Duration `yaml:"duration" json:"duration"`
}

// Policy is the versioned, validated configuration of the rule chain.
type Policy struct {
	Version     string          `yaml:"version" json:"version"`
	Weights     Weights         `yaml:"weights" json:"weights"`
	Thresholds  Thresholds      `yaml:"thresholds" json:"thresholds"`
	MinCoverage float64         `yaml:"min_coverage" json:"min_coverage"`
	HintBounds  HintBounds      `yaml:"hint_bounds" json:"hint_bounds"`
	Stability   StabilityPolicy `yaml:"stability" json:"stability"`
	Lockdown    LockdownPolicy  `yaml:"lockdown" json:"lockdown"`
}

// DefaultPolicy is used when no policy file is configured.
func DefaultPolicy() Policy {
	return Policy{
		Version: "default-v1",
		Weights: Weights{
			LayerSentinel: 0.35,
			LayerDQSN:     0.30,
			LayerADN:      0.20,
			LayerQWG:      0.15,
		},
		Thresholds:  Thresholds{Warn: 0.30, StepUp: 0.55, Block: 0.80},
		MinCoverage: 0.5,
		HintBounds:  HintBounds{Min: 0.5, Max: 1.5},
		Stability:   StabilityPolicy{StepUpBelow: 0.6, BlockBelow: 0.2},
		Lockdown: LockdownPolicy{
			BlockThreshold: 3,
			Window:         Duration(time.Hour),
			Duration:       Duration(24 * time.Hour),
		},
	}
}

// LoadPolicy reads and validates a YAML policy file.
func LoadPolicy(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, fmt.Errorf("open policy: %w", err)
	}
	defer f.Close()
	return ParsePolicy(f)
}

// ParsePolicy decodes a YAML policy. Unknown fields are rejected.
func ParsePolicy(r io.Reader) (Policy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Policy{}, dErrors.New(dErrors.CodeValidation, "policy document is empty")
		}
		return Policy{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid policy document")
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks ranges and orderings. Errors carry CodeValidation.
func (p Policy) Validate() error {
	invalid := func(format string, args ...any) error {
		return dErrors.New(dErrors.CodeValidation, "policy: "+fmt.Sprintf(format, args...))
	}

	if p.Version == "" {
		return invalid("version is required")
	}

	var sum float64
	for layer, w := range p.Weights {
		if !layer.IsSignalLayer() {
			return invalid("unknown weight layer %q", layer)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return invalid("weight for %s must be a non-negative number", layer)
		}
		sum += w
	}
	if sum <= 0 {
		return invalid("weights must sum to a positive value")
	}

	t := p.Thresholds
	for name, v := range map[string]float64{"warn": t.Warn, "step_up": t.StepUp, "block": t.Block} {
		if !in01(v) {
			return invalid("threshold %s must be in [0,1]", name)
		}
	}
	if t.Warn > t.StepUp || t.StepUp > t.Block {
		return invalid("thresholds must satisfy warn <= step_up <= block")
	}

	if !in01(p.MinCoverage) {
		return invalid("min_coverage must be in [0,1]")
	}

	if !(p.HintBounds.Min > 0 && p.HintBounds.Min <= 1 && p.HintBounds.Max >= 1) {
		return invalid("hint_bounds must satisfy 0 < min <= 1 <= max")
	}

	if !in01(p.Stability.StepUpBelow) || !in01(p.Stability.BlockBelow) {
		return invalid("stability bounds must be in [0,1]")
	}
	if p.Stability.BlockBelow > p.Stability.StepUpBelow {
		return invalid("stability block_below must not exceed step_up_below")
	}

	if p.Lockdown.BlockThreshold < 1 {
		return invalid("lockdown block_threshold must be at least 1")
	}
	if p.Lockdown.Window <= 0 || p.Lockdown.Duration <= 0 {
		return invalid("lockdown window and duration must be positive")
	}
	return nil
}

// Hash is the hex SHA-256 of the policy's canonical JSON encoding. Map keys
// are sorted by encoding/json, so equal policies hash equally.
func (p Policy) Hash() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		// Policy holds only numbers and strings; encoding cannot fail.
		panic(fmt.Sprintf("encode policy: %v", err))
	}
	sum := sha256.Sum256(bytes.TrimSpace(buf.Bytes()))
	return hex.EncodeToString(sum[:])
}

func in01(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
