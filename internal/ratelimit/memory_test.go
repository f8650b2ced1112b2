package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter() (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.Now
	return l, clock
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l, clock := newTestLimiter()
	ctx := context.Background()
	tier := Tier{Name: "test", Limit: 3, Window: time.Minute}

	for i := 1; i <= tier.Limit; i++ {
		res, err := l.Allow(ctx, tier, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, tier.Limit-i, res.Remaining)
	}

	clock.Advance(20 * time.Second)
	res, err := l.Allow(ctx, tier, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, 40*time.Second, res.RetryAfter, "Окно отсчитывается от первого запроса")

	// Окно истекло - счетчик начинается заново
	clock.Advance(40 * time.Second)
	res, err = l.Allow(ctx, tier, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, tier.Limit-1, res.Remaining)
}

func TestMemoryLimiter_KeysAndTiersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()
	ctx := context.Background()
	tier := Tier{Name: "one", Limit: 1, Window: time.Minute}
	other := Tier{Name: "two", Limit: 1, Window: time.Minute}

	res, _ := l.Allow(ctx, tier, "user:1")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, tier, "user:1")
	assert.False(t, res.Allowed)

	res, _ = l.Allow(ctx, tier, "user:2")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, other, "user:1")
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_CleanupAndReset(t *testing.T) {
	l, clock := newTestLimiter()
	ctx := context.Background()
	short := Tier{Name: "short", Limit: 1, Window: time.Second}
	long := Tier{Name: "long", Limit: 1, Window: time.Hour}

	_, _ = l.Allow(ctx, short, "k")
	_, _ = l.Allow(ctx, long, "k")
	clock.Advance(2 * time.Second)

	l.cleanup()
	assert.Len(t, l.windows, 1)

	l.Reset()
	res, _ := l.Allow(ctx, long, "k")
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()
	tier := Tier{Name: "burst", Limit: 50, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, tier, "shared")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, tier.Limit, allowed)
}

func TestNewResult_RetryAfterFallback(t *testing.T) {
	tier := Tier{Name: "x", Limit: 1, Window: time.Minute}

	res := newResult(tier, 2, 0)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	res = newResult(tier, 1, 30*time.Second)
	assert.True(t, res.Allowed)
	assert.Zero(t, res.RetryAfter)
}
