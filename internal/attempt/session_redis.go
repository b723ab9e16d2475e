package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-quiz/internal/session"
)

const sessionKeyPrefix = "quiz:session:"

// RedisSessionStore keeps live snapshots as JSON values with a sliding TTL:
// every save pushes the expiry out, so an abandoned attempt disappears on
// its own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *RedisSessionStore) Load(ctx context.Context, id string) (session.State, error) {
	b, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.State{}, ErrAttemptNotFound
		}
		return session.State{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return decodeState(b)
}

func (r *RedisSessionStore) Save(ctx context.Context, s session.State) error {
	b, err := encodeState(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(s.AttemptID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.AttemptID, err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

// Ping reports whether redis is reachable; used by the readiness probe.
func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func encodeState(s session.State) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.AttemptID, err)
	}
	return b, nil
}

func decodeState(b []byte) (session.State, error) {
	var s session.State
	if err := json.Unmarshal(b, &s); err != nil {
		return session.State{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
