package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Login modes
const (
	AuthModeExistence = "existence"
	AuthModePassword  = "password"
)

type Config struct {
	Port           string
	StorageBackend string
	AuthMode       string
	JWTSecret      string
	JWTExpiry      time.Duration
	AllowedOrigins []string
	// TrustedProxies are the addresses/CIDRs whose X-Forwarded-For is believed.
	// Empty trusts none.
	TrustedProxies []string
	LogLevel       string
	Redis          RedisConfig
	Mongo          MongoConfig
	Inference      InferenceConfig
	RateLimit      RateLimitConfig
}

type RedisConfig struct {
	URL            string
	Host           string
	Port           string
	Password       string
	DB             int
	KeyPrefix      string
	PoolSize       int
	MinIdleConns   int
	MaxRetries     int
	RetryDelay     time.Duration
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolTimeout    time.Duration
	HealthInterval time.Duration
}

type MongoConfig struct {
	URI          string
	Database     string
	Collection   string
	Transactions bool
}

type InferenceConfig struct {
	WoundURL string
	SignURL  string
	ChatURL  string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may carry everything
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		AuthMode:       strings.ToLower(getEnv("AUTH_MODE", AuthModeExistence)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      getDuration("JWT_EXPIRY", 24*time.Hour),
		AllowedOrigins: getList("ALLOWED_ORIGINS", "http://localhost:8081,http://localhost:19006"),
		TrustedProxies: getList("TRUSTED_PROXIES", ""),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             getInt("REDIS_DB", 0),
			KeyPrefix:      getEnv("REDIS_KEY_PREFIX", "ridecare:slot:"),
			PoolSize:       getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:   getInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:     getInt("REDIS_MAX_RETRIES", 3),
			RetryDelay:     getDuration("REDIS_RETRY_DELAY", 500*time.Millisecond),
			DialTimeout:    getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:    getDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			HealthInterval: getDuration("REDIS_HEALTH_INTERVAL", 30*time.Second),
		},
		Mongo: MongoConfig{
			URI:          os.Getenv("MONGO_URI"),
			Database:     getEnv("MONGO_DATABASE", "ridecare"),
			Collection:   getEnv("MONGO_COLLECTION", "slots"),
			Transactions: getBool("MONGO_TRANSACTIONS", false),
		},
		Inference: InferenceConfig{
			WoundURL: getEnv("WOUND_API_URL", "http://localhost:8001"),
			SignURL:  getEnv("SIGN_API_URL", "http://localhost:8002"),
			ChatURL:  getEnv("CHAT_API_URL", "http://localhost:8000"),
			Timeout:  getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getInt("RATE_LIMIT_RPM", 30),
			BurstSize:         getInt("RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints Load cannot express with defaults.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendRedis:
	case BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.AuthMode {
	case AuthModeExistence, AuthModePassword:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("RATE_LIMIT_RPM must be greater than 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated value, dropping empty items.
func getList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
