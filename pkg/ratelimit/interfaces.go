package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a client may make one more request in a
// category. retryAfter is set when the request is refused.
type RateLimiter interface {
	Allow(ctx context.Context, clientID, category string) (allowed bool, retryAfter time.Duration, err error)
	Limit(category string) RateLimit
	Stats() RateLimiterStats
	Close() error
}

// RateLimit defines the configuration for rate limiting
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
	ActiveClients   int   `json:"activeClients"`
}
