package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Entry is one key/value pair of a multi-key write.
type Entry struct {
	Key   string
	Value string
}

// Store is a durable string key-value store addressed by fixed slot names.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all entries as one logical transaction when the
	// backend supports it. Backends that cannot report false from Atomic.
	SetMany(ctx context.Context, entries []Entry) error
	Atomic() bool
	Ping(ctx context.Context) error
	Close() error
}
