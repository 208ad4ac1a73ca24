package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, maxAttempts int, window time.Duration) (*LoginLimiter, *fakeClock) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	clk := &fakeClock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	l := &LoginLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		now:         clk.Now,
	}
	t.Cleanup(func() { l.Close() })
	return l, clk
}

func recordFailures(t *testing.T, l *LoginLimiter, clk *fakeClock, addr string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		clk.Advance(time.Second)
		require.NoError(t, l.RecordFailure(context.Background(), addr))
	}
}

func TestAllowUnderLimit(t *testing.T) {
	l, clk := newTestLimiter(t, 5, 15*time.Minute)

	recordFailures(t, l, clk, "10.0.0.1", 4)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	l, clk := newTestLimiter(t, 5, 15*time.Minute)

	recordFailures(t, l, clk, "10.0.0.1", 5)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWindowSlides(t *testing.T) {
	l, clk := newTestLimiter(t, 5, 15*time.Minute)

	recordFailures(t, l, clk, "10.0.0.1", 5)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)

	// Once the oldest attempt falls out of the window the count drops
	// below the limit again.
	clk.Advance(15 * time.Minute)

	ok, err = l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordSuccessClearsWindow(t *testing.T) {
	l, clk := newTestLimiter(t, 5, 15*time.Minute)

	recordFailures(t, l, clk, "10.0.0.1", 5)
	require.NoError(t, l.RecordSuccess(context.Background(), "10.0.0.1"))

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddressesCountedIndependently(t *testing.T) {
	l, clk := newTestLimiter(t, 5, 15*time.Minute)

	recordFailures(t, l, clk, "10.0.0.1", 5)

	ok, err := l.Allow(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)
}
