package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryRateLimiter is a token bucket limiter for a single process. Buckets
// hold BurstSize tokens and refill at RequestsPerMinute.
type MemoryRateLimiter struct {
	config  *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*tokenBucket // category:clientID -> bucket
	stats   RateLimiterStats

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryRateLimiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
		done:    make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		limiter.wg.Add(1)
		go limiter.cleanupIdleBuckets()
	}

	return limiter
}

func (r *MemoryRateLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	limit := r.config.Limit(category)
	key := category + ":" + clientID
	perSecond := float64(limit.RequestsPerMinute) / 60

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.TotalRequests++

	now := r.now()
	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(limit.BurstSize), lastRefill: now}
		r.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(limit.BurstSize), bucket.tokens+elapsed*perSecond)
		bucket.lastRefill = now
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0, nil
	}

	r.stats.BlockedRequests++
	if perSecond <= 0 {
		return false, limit.WindowSize, nil
	}
	wait := time.Duration((1 - bucket.tokens) / perSecond * float64(time.Second))
	return false, wait, nil
}

func (r *MemoryRateLimiter) Limit(category string) RateLimit {
	return r.config.Limit(category)
}

func (r *MemoryRateLimiter) Stats() RateLimiterStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.stats
	stats.ActiveClients = len(r.buckets)
	return stats
}

// Close stops the cleanup goroutine.
func (r *MemoryRateLimiter) Close() error {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
	return nil
}

// cleanupIdleBuckets drops buckets that have refilled completely.
func (r *MemoryRateLimiter) cleanupIdleBuckets() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for key, bucket := range r.buckets {
				if now.Sub(bucket.lastRefill) > time.Hour {
					delete(r.buckets, key)
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}
