// Package history persists finished interview sessions.
package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/interview"
)

// ErrNotFound is returned by Get when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is an ordered, append-only list of session records.
type Store interface {
	// Load returns every record in save order.
	Load(ctx context.Context) ([]interview.Record, error)
	// Append adds rec at the end of the list.
	Append(ctx context.Context, rec interview.Record) error
	// Get returns the n-th record, counting from 1.
	Get(ctx context.Context, n int) (interview.Record, error)
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend at path. An empty backend means JSON.
func Open(backend, path string, logger *zap.Logger) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONFile(path, logger), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

func pick(records []interview.Record, n int) (interview.Record, error) {
	if n < 1 || n > len(records) {
		return interview.Record{}, ErrNotFound
	}
	return records[n-1], nil
}
