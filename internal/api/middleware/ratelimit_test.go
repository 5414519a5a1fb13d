package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ridecare-backend/pkg/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestMiddleware(t *testing.T) *gin.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	config := ratelimit.NewConfig(1, 1, true)
	config.KeyPrefix = "test_ratelimit:"
	config.Limits[ratelimit.CategoryDefault] = ratelimit.RateLimit{
		RequestsPerMinute: 5,
		BurstSize:         2,
		WindowSize:        time.Minute,
	}

	limiter := ratelimit.NewRedisRateLimiter(client, config)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter, zap.NewNop()))

	router.POST("/api/v1/inference/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"answer": "ok"})
	})
	router.GET("/api/v1/vehicles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"vehicles": []string{}})
	})

	return router
}

func doRequest(router http.Handler, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Forwarded-For", ip)
	req.Header.Set("User-Agent", "TestAgent/1.0")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_BasicFunctionality(t *testing.T) {
	router := setupTestMiddleware(t)

	w1 := doRequest(router, "GET", "/api/v1/vehicles", "192.168.1.1")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "5", w1.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", w1.Header().Get("X-RateLimit-Burst"))
	assert.Equal(t, "60", w1.Header().Get("X-RateLimit-Window"))

	w2 := doRequest(router, "GET", "/api/v1/vehicles", "192.168.1.1")
	assert.Equal(t, http.StatusOK, w2.Code)

	w3 := doRequest(router, "GET", "/api/v1/vehicles", "192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
}

func TestRateLimitMiddleware_RateLimitExceeded(t *testing.T) {
	router := setupTestMiddleware(t)

	w1 := doRequest(router, "POST", "/api/v1/inference/chat", "192.168.1.2")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "1", w1.Header().Get("X-RateLimit-Limit"))

	w2 := doRequest(router, "POST", "/api/v1/inference/chat", "192.168.1.2")
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.NotEmpty(t, w2.Header().Get("Retry-After"))
	assert.Contains(t, w2.Body.String(), "Rate limit exceeded")
	assert.Contains(t, w2.Body.String(), "RATE_LIMIT_EXCEEDED")

	// a separate category still has room
	w3 := doRequest(router, "GET", "/api/v1/vehicles", "192.168.1.2")
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_DifferentClients(t *testing.T) {
	router := setupTestMiddleware(t)

	w1 := doRequest(router, "POST", "/api/v1/inference/chat", "192.168.1.3")
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := doRequest(router, "POST", "/api/v1/inference/chat", "192.168.1.4")
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_UntrustedForwardedForIsIgnored(t *testing.T) {
	router := setupTestMiddleware(t)
	require.NoError(t, router.SetTrustedProxies(nil))

	w1 := doRequest(router, "POST", "/api/v1/inference/chat", "203.0.113.1")
	assert.Equal(t, http.StatusOK, w1.Code)

	// rotating the header does not open a new bucket when no proxy is trusted
	w2 := doRequest(router, "POST", "/api/v1/inference/chat", "203.0.113.2")
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestRateLimitMiddleware_TrustedProxyForwardedFor(t *testing.T) {
	router := setupTestMiddleware(t)
	// httptest requests come from 192.0.2.1
	require.NoError(t, router.SetTrustedProxies([]string{"192.0.2.0/24"}))

	w1 := doRequest(router, "POST", "/api/v1/inference/chat", "203.0.113.1")
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := doRequest(router, "POST", "/api/v1/inference/chat", "203.0.113.2")
	assert.Equal(t, http.StatusOK, w2.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}
func (failingLimiter) Limit(string) ratelimit.RateLimit  { return ratelimit.RateLimit{} }
func (failingLimiter) Stats() ratelimit.RateLimiterStats { return ratelimit.RateLimiterStats{} }
func (failingLimiter) Close() error                      { return nil }

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(failingLimiter{}, zap.NewNop()))
	router.GET("/api/v1/vehicles", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(router, "GET", "/api/v1/vehicles", "10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rate limiter unavailable", w.Header().Get("X-RateLimit-Error"))
}

func TestGetClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		setupContext func(*gin.Context)
		expected     string
	}{
		{
			name: "authenticated user",
			setupContext: func(c *gin.Context) {
				c.Set("user_id", "user123")
			},
			expected: "user:user123",
		},
		{
			name: "api key",
			setupContext: func(c *gin.Context) {
				c.Request.Header.Set("X-API-Key", "api123")
			},
			expected: "api:api123",
		},
		{
			name: "anonymous user",
			setupContext: func(c *gin.Context) {
				c.Request.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
				c.Request.Header.Set("User-Agent", "TestAgent/1.0")
			},
			expected: "anon:192.168.1.1:" + hashString("TestAgent/1.0"),
		},
		{
			name: "anonymous without user agent",
			setupContext: func(c *gin.Context) {
				c.Request.Header.Set("X-Real-IP", "172.16.0.9")
			},
			expected: "anon:172.16.0.9:unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/test", nil)

			tt.setupContext(c)

			assert.Equal(t, tt.expected, getClientID(c))
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
}
