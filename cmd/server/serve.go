package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ridecare-backend/internal/api/middleware"
	"ridecare-backend/internal/api/routes"
	"ridecare-backend/internal/config"
	"ridecare-backend/internal/inference"
	"ridecare-backend/internal/state"
	"ridecare-backend/internal/websocket"
	"ridecare-backend/pkg/jwt"
	"ridecare-backend/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(logger)

	authMode := state.AuthExistence
	if cfg.AuthMode == config.AuthModePassword {
		authMode = state.AuthPassword
	}
	store := state.New(b.store, state.WithLogger(logger), state.WithAuthMode(authMode))
	defer store.Close()

	if err := store.Load(ctx); err != nil {
		return err
	}
	logger.Info("state loaded", zap.String("backend", b.name), zap.Bool("atomic", b.store.Atomic()))

	hub := websocket.NewHub(store, cfg.AllowedOrigins, logger)
	hub.Start()
	defer hub.Stop()

	tokens, err := jwt.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, tokens will not survive a restart")
	}

	limiter := newLimiter(b)
	defer limiter.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// forwarding headers are only believed from configured proxies
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	routes.SetupRoutes(router, routes.Dependencies{
		Store:       store,
		Backend:     b.store,
		BackendName: b.name,
		Redis:       b.redis,
		Hub:         hub,
		Tokens:      tokens,
		Limiter:     limiter,
		Inference:   inference.NewClient(cfg.Inference, logger),
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLimiter(b *backend) ratelimit.RateLimiter {
	limits := ratelimit.NewConfig(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize, cfg.RateLimit.Enabled)
	if b.redis != nil {
		return ratelimit.NewRedisRateLimiterFrom(b.redis.GetClient, limits)
	}
	return ratelimit.NewMemoryRateLimiter(limits)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Burst"},
	}

	// wildcard origin cannot be combined with credentials
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}
