package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemoryLimiter(t *testing.T, limit RateLimit) (*MemoryRateLimiter, *fakeClock) {
	t.Helper()

	config := DefaultConfig()
	config.CleanupInterval = 0
	config.Limits[CategoryInference] = limit

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewMemoryRateLimiter(config)
	limiter.now = clock.Now
	t.Cleanup(func() { limiter.Close() })
	return limiter, clock
}

func TestMemoryRateLimiter_Burst(t *testing.T) {
	limiter, _ := newTestMemoryLimiter(t, RateLimit{RequestsPerMinute: 60, BurstSize: 3, WindowSize: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, retryAfter, err := limiter.Allow(ctx, "client", CategoryInference)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
		assert.Zero(t, retryAfter)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "client", CategoryInference)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, retryAfter)
}

func TestMemoryRateLimiter_Refill(t *testing.T) {
	limiter, clock := newTestMemoryLimiter(t, RateLimit{RequestsPerMinute: 60, BurstSize: 1, WindowSize: time.Minute})
	ctx := context.Background()

	allowed, _, _ := limiter.Allow(ctx, "client", CategoryInference)
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(ctx, "client", CategoryInference)
	assert.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _, _ = limiter.Allow(ctx, "client", CategoryInference)
	assert.True(t, allowed)

	// refill never exceeds the burst
	clock.Advance(time.Hour)
	allowed, _, _ = limiter.Allow(ctx, "client", CategoryInference)
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(ctx, "client", CategoryInference)
	assert.False(t, allowed)
}

func TestMemoryRateLimiter_ClientsAndCategoriesAreSeparate(t *testing.T) {
	limiter, _ := newTestMemoryLimiter(t, RateLimit{RequestsPerMinute: 1, BurstSize: 1, WindowSize: time.Minute})
	ctx := context.Background()

	allowed, _, _ := limiter.Allow(ctx, "client1", CategoryInference)
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(ctx, "client2", CategoryInference)
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(ctx, "client1", CategoryDefault)
	assert.True(t, allowed)

	allowed, _, _ = limiter.Allow(ctx, "client1", CategoryInference)
	assert.False(t, allowed)

	stats := limiter.Stats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
	assert.Equal(t, 3, stats.ActiveClients)
}

func TestMemoryRateLimiter_Disabled(t *testing.T) {
	config := NewConfig(1, 1, false)
	limiter := NewMemoryRateLimiter(config)
	defer limiter.Close()

	for i := 0; i < 10; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "client", CategoryInference)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestMemoryRateLimiter_CloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	config := DefaultConfig()
	config.CleanupInterval = time.Millisecond
	limiter := NewMemoryRateLimiter(config)

	require.NoError(t, limiter.Close())
	require.NoError(t, limiter.Close())
}

func TestCategory(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"POST", "/api/v1/inference/wound", CategoryInference},
		{"POST", "/api/v1/inference/chat", CategoryInference},
		{"POST", "/api/v1/auth/login", CategoryAuth},
		{"POST", "/api/v1/auth/signup", CategoryAuth},
		{"GET", "/api/v1/auth/me", CategoryDefault},
		{"GET", "/api/v1/vehicles", CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.method, tt.path))
		})
	}
}

func TestConfig_LimitFallsBackToDefault(t *testing.T) {
	config := NewConfig(12, 4, true)
	assert.Equal(t, 12, config.Limit(CategoryInference).RequestsPerMinute)
	assert.Equal(t, config.Limits[CategoryDefault], config.Limit("unknown"))
}
