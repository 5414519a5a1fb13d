package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("PORT", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, AuthModeExistence, cfg.AuthMode)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "ridecare:slot:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "slots", cfg.Mongo.Collection)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("AUTH_MODE", "password")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,, 127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, AuthModePassword, cfg.AuthMode)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownValues(t *testing.T) {
	cfg := &Config{StorageBackend: "sqlite", AuthMode: AuthModeExistence}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StorageBackend: BackendMemory, AuthMode: "oauth"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StorageBackend: BackendMemory, AuthMode: AuthModeExistence,
		RateLimit: RateLimitConfig{Enabled: true}}
	assert.Error(t, cfg.Validate())
}
