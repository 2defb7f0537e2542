package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StateTTL bounds how long a login attempt may take.
const StateTTL = 10 * time.Minute

// ErrInvalidState is returned for unknown, expired or reused state values.
var ErrInvalidState = errors.New("invalid oauth state")

// ErrStateUnavailable is returned when no Redis client is configured.
var ErrStateUnavailable = errors.New("oauth state store unavailable")

// StateStore issues single-use state values bound to a provider.
type StateStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStateStore(rdb redis.Cmdable) *StateStore {
	return &StateStore{rdb: rdb, ttl: StateTTL}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

// Issue stores a fresh state for provider.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	if s.rdb == nil {
		return "", ErrStateUnavailable
	}
	state := uuid.NewString()
	if err := s.rdb.Set(ctx, stateKey(state), provider, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume deletes state and checks it was issued for provider.
func (s *StateStore) Consume(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrInvalidState
	}
	if s.rdb == nil {
		return ErrStateUnavailable
	}
	got, err := s.rdb.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("load oauth state: %w", err)
	}
	if got != provider {
		return ErrInvalidState
	}
	return nil
}
