// Package kvstore defines the key-value capability the form state store is
// built on, plus in-memory, Redis and Postgres implementations. Injecting the
// capability keeps the engine testable without a host environment.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("kvstore: key not found")

// KeyValueStore is the storage capability supplied by the host.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
