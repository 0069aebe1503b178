// Package sessions keeps live interview state between requests, keyed by
// session ID.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/mocktalk/internal/interview"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Store holds one SessionState per ID. Every Put refreshes the expiry.
type Store interface {
	Get(ctx context.Context, id string) (interview.SessionState, error)
	Put(ctx context.Context, id string, st interview.SessionState) error
	Delete(ctx context.Context, id string) error
	Close() error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Open returns the store for backend. redisAddr is only used by the redis backend.
func Open(ctx context.Context, backend, redisAddr string, ttl time.Duration) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(ttl), nil
	case BackendRedis:
		return OpenRedis(ctx, redisAddr, ttl)
	default:
		return nil, fmt.Errorf("unknown sessions backend %q", backend)
	}
}
