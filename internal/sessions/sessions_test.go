package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/mocktalk/internal/interview"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

func (c *mockClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sampleState() interview.SessionState {
	st := interview.NewState()
	st.Stage = interview.StageInterview
	st.Config.Role = "Backend Engineer"
	st.CurrentIndex = 1
	st.CurrentQuestion = "Tell me about a time you shipped under pressure."
	st.AskedQuestions = []string{st.CurrentQuestion}
	st.Turns = []interview.Turn{{Question: "Warm-up?", Answer: "Sure.", Feedback: "Good."}}
	return st
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	_, err := m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	st := sampleState()
	require.NoError(t, m.Put(ctx, "abc", st))
	st.AskedQuestions[0] = "mutated after put"

	got, err := m.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	require.NoError(t, m.Delete(ctx, "abc"))
	_, err = m.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &mockClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemoryWithClock(clock, time.Minute)

	require.NoError(t, m.Put(ctx, "a", sampleState()))
	require.NoError(t, m.Put(ctx, "b", sampleState()))

	clock.Advance(30 * time.Second)
	require.NoError(t, m.Put(ctx, "b", sampleState()))

	clock.Advance(45 * time.Second)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "b")
	assert.NoError(t, err, "put refreshes expiry")

	clock.Advance(time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, m.Len())
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, s := setupTestRedis(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "abc", sampleState()))
	assert.True(t, mr.Exists("mocktalk:session:abc"))
	assert.Equal(t, time.Minute, mr.TTL("mocktalk:session:abc"))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	mr, s := setupTestRedis(t)

	require.NoError(t, s.Put(ctx, "abc", sampleState()))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCorruptPayload(t *testing.T) {
	mr, s := setupTestRedis(t)
	require.NoError(t, mr.Set("mocktalk:session:bad", "{not json"))

	_, err := s.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := Open(ctx, "", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, BackendRedis, mr.Addr(), time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	s.Close()

	_, err = Open(ctx, "etcd", "", 0)
	assert.Error(t, err)
}
