// Package dqsn scores destinations by their reputation: denied destinations
// produce a critical signal, suspicious ones a high score.
package dqsn

import (
	"context"
	"fmt"
	"time"

	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

// Level is a destination's reputation.
type Level string

const (
	LevelAllow      Level = "allow"
	LevelSuspicious Level = "suspicious"
	LevelDeny       Level = "deny"
)

func (l Level) IsValid() bool {
	return l == LevelAllow || l == LevelSuspicious || l == LevelDeny
}

func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown reputation level %q", s))
	}
	return l, nil
}

type Reputation struct {
	Address   domain.Address `json:"address"`
	Level     Level          `json:"level"`
	Source    string         `json:"source,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store holds destination reputations. Get returns nil, nil for unknown
// destinations.
type Store interface {
	Get(ctx context.Context, addr domain.Address) (*Reputation, error)
	Set(ctx context.Context, rep Reputation) error
}
