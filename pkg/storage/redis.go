package storage

import (
	"context"
	"errors"
	"fmt"

	rediscli "ridecare-backend/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps each slot under prefix+name. SetMany runs in MULTI/EXEC.
type RedisStore struct {
	client *rediscli.Client
	prefix string
}

func NewRedisStore(client *rediscli.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetClient().Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.GetClient().Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set slot %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) SetMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := r.client.GetClient().TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, r.key(e.Key), e.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %d slots: %w", len(entries), err)
	}
	return nil
}

func (r *RedisStore) Atomic() bool { return true }

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.GetClient().Ping(ctx).Err()
}

// Close is a no-op: the shared client is owned by whoever created it.
func (r *RedisStore) Close() error { return nil }
