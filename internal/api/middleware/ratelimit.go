package middleware

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"ridecare-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter ratelimit.RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := getClientID(c)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		category := ratelimit.Category(c.Request.Method, path)

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), clientID, category)
		if err != nil {
			// fail open
			logger.Warn("rate limiter unavailable", zap.String("category", category), zap.Error(err))
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		setRateLimitHeaders(c, limiter.Limit(category), allowed, retryAfter)

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    "Rate limit exceeded",
				"error":      fmt.Sprintf("Too many requests. Try again in %v", retryAfter.Round(time.Second)),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": retryAfterSeconds(retryAfter),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getClientID prefers the authenticated user, then an API key, then the
// client address plus a hash of its User-Agent. The address comes from
// gin's ClientIP, which only honours forwarding headers set by trusted proxies.
func getClientID(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}

	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return "api:" + apiKey
	}

	return fmt.Sprintf("anon:%s:%s", c.ClientIP(), hashString(c.GetHeader("User-Agent")))
}

func hashString(s string) string {
	if s == "" {
		return "unknown"
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, allowed bool, retryAfter time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RequestsPerMinute))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.WindowSize.Seconds())))
	c.Header("X-RateLimit-Burst", strconv.Itoa(limit.BurstSize))

	if !allowed {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))
	}
}
