package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/mocktalk/internal/interview"
)

const keyPrefix = "mocktalk:session:"

// Redis stores sessions as JSON strings with a TTL, so several server
// processes can share them.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedis(rdb, ttl), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, id string) (interview.SessionState, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return interview.SessionState{}, ErrNotFound
	}
	if err != nil {
		return interview.SessionState{}, fmt.Errorf("loading session %s: %w", id, err)
	}

	var st interview.SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return interview.SessionState{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return st, nil
}

func (r *Redis) Put(ctx context.Context, id string, st interview.SessionState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+id, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing session %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, keyPrefix+id).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
