package ratelimit

import (
	"strings"
	"time"
)

// Rate limit categories
const (
	CategoryAuth      = "auth"
	CategoryInference = "inference"
	CategoryDefault   = "default"
)

// Config holds the configuration for rate limiting
type Config struct {
	Limits map[string]RateLimit `json:"limits"`

	// Redis key prefix for rate limiting counters
	KeyPrefix string `json:"keyPrefix"`

	// How often idle in-memory buckets are dropped
	CleanupInterval time.Duration `json:"cleanupInterval"`

	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return NewConfig(30, 10, true)
}

// NewConfig builds a config whose inference category uses the given rate.
// Auth is kept stricter and everything else looser.
func NewConfig(requestsPerMinute, burstSize int, enabled bool) *Config {
	return &Config{
		Limits: map[string]RateLimit{
			// model calls are expensive
			CategoryInference: {RequestsPerMinute: requestsPerMinute, BurstSize: burstSize, WindowSize: time.Minute},
			CategoryAuth:      {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			CategoryDefault:   {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
		},
		KeyPrefix:       "ridecare:ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         enabled,
	}
}

// Limit returns the limit of category, falling back to the default one.
func (c *Config) Limit(category string) RateLimit {
	if limit, ok := c.Limits[category]; ok {
		return limit
	}
	if limit, ok := c.Limits[CategoryDefault]; ok {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}

// Category maps a route to its rate limit category.
func Category(method, path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/inference/"):
		return CategoryInference
	case method == "POST" && (path == "/api/v1/auth/login" || path == "/api/v1/auth/signup"):
		return CategoryAuth
	default:
		return CategoryDefault
	}
}
