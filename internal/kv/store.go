package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Entry is one key/blob pair of a batch write.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the blob store every backend (memory, SQLite, PostgreSQL, Redis) satisfies.
// Reads after a completed Put observe it; Put applies all entries or none.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, entries ...Entry) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key scopes key to a namespace.
func Key(namespace, key string) string {
	return namespace + ":" + key
}

// SplitKey is the inverse of Key.
func SplitKey(full string) (namespace, key string, ok bool) {
	return strings.Cut(full, ":")
}
