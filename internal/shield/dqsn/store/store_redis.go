package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"guardian/internal/shield/dqsn"
	"guardian/pkg/domain"
)

const reputationKeyPrefix = "guardian:reputation:"

// RedisStore keeps each reputation as a JSON string so that an external
// feed can write the same keys.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, addr domain.Address) (*dqsn.Reputation, error) {
	raw, err := s.client.Get(ctx, reputationKeyPrefix+addr.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reputation: %w", err)
	}
	var rep dqsn.Reputation
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode reputation: %w", err)
	}
	return &rep, nil
}

func (s *RedisStore) Set(ctx context.Context, rep dqsn.Reputation) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode reputation: %w", err)
	}
	if err := s.client.Set(ctx, reputationKeyPrefix+rep.Address.String(), raw, 0).Err(); err != nil {
		return fmt.Errorf("set reputation: %w", err)
	}
	return nil
}
