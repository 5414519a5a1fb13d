package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow counts requests per key and starts the window's expiry on the
// first one. Returns the count and the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisRateLimiter is a fixed window limiter shared by every process using
// the same Redis. It allows BurstSize requests per WindowSize.
type RedisRateLimiter struct {
	client  func() *redis.Client
	config  *Config
	total   int64
	blocked int64
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	return NewRedisRateLimiterFrom(func() *redis.Client { return client }, config)
}

// NewRedisRateLimiterFrom resolves the client on every check, so a client
// swapped by a reconnect is picked up.
func NewRedisRateLimiterFrom(source func() *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &RedisRateLimiter{client: source, config: config}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.total, 1)

	limit := r.config.Limit(category)
	key := fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, category, clientID)

	res, err := fixedWindow.Run(ctx, r.client(), []string{key}, limit.WindowSize.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script result format")
	}

	if res[0] <= int64(limit.BurstSize) {
		return true, 0, nil
	}

	atomic.AddInt64(&r.blocked, 1)
	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = limit.WindowSize
	}
	return false, retryAfter, nil
}

func (r *RedisRateLimiter) Limit(category string) RateLimit {
	return r.config.Limit(category)
}

// Stats covers this process only; ActiveClients is not tracked.
func (r *RedisRateLimiter) Stats() RateLimiterStats {
	return RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.total),
		BlockedRequests: atomic.LoadInt64(&r.blocked),
	}
}

// Close does not close the client, which belongs to the caller.
func (r *RedisRateLimiter) Close() error {
	return nil
}
