package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/kalambet/mocktalk/internal/interview"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry struct {
	state     interview.SessionState
	expiresAt time.Time
}

// Memory is an in-process store. Expired sessions are dropped lazily on
// access and by Sweep.
type Memory struct {
	clock Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory creates a memory store. A non-positive ttl means DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(realClock{}, ttl)
}

// NewMemoryWithClock creates a memory store with a custom clock (for testing).
func NewMemoryWithClock(clock Clock, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{clock: clock, ttl: ttl, entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, id string) (interview.SessionState, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return interview.SessionState{}, ErrNotFound
	}
	if !m.clock.Now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return interview.SessionState{}, ErrNotFound
	}
	return e.state.Clone(), nil
}

func (m *Memory) Put(_ context.Context, id string, st interview.SessionState) error {
	st = st.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = entry{state: st, expiresAt: m.clock.Now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Sweep removes every expired session and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
