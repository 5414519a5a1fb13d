package main

import (
	"context"
	"fmt"

	"ridecare-backend/internal/config"
	"ridecare-backend/pkg/database"
	"ridecare-backend/pkg/redis"
	"ridecare-backend/pkg/storage"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// backend is the slot store chosen by STORAGE_BACKEND plus the clients it owns.
type backend struct {
	name  string
	store storage.Store
	redis *redis.Client
	mongo *mongo.Database
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := redis.NewClient(cfg.Redis, logger)
		status := client.HealthCheck()
		if status.IsConnected {
			logger.Info("Redis connected", zap.String("addr", status.ConnectionInfo))
		} else {
			logger.Warn("Redis connection failed, will retry automatically", zap.String("error", status.Error))
		}
		return &backend{
			name:  config.BackendRedis,
			store: storage.NewRedisStore(client, cfg.Redis.KeyPrefix),
			redis: client,
		}, nil

	case config.BackendMongo:
		db, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewMongoStore(ctx, db, cfg.Mongo.Collection, cfg.Mongo.Transactions)
		if err != nil {
			_ = database.Disconnect(db.Client())
			return nil, err
		}
		return &backend{name: config.BackendMongo, store: store, mongo: db}, nil

	case config.BackendMemory:
		logger.Warn("using in-memory storage, state is lost on restart")
		return &backend{name: config.BackendMemory, store: storage.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (b *backend) Close(logger *zap.Logger) {
	if err := b.store.Close(); err != nil {
		logger.Error("error closing slot store", zap.Error(err))
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			logger.Error("error closing Redis client", zap.Error(err))
		}
	}
	if b.mongo != nil {
		if err := database.Disconnect(b.mongo.Client()); err != nil {
			logger.Error("error disconnecting MongoDB", zap.Error(err))
		}
	}
}
