// Package store defines the durable-store contract confcache caches in front
// of. The store is the authority for configuration values and the only place
// they survive restarts; the shared cache is a disposable accelerator.
package store

import (
	"context"
	"errors"
)

// Record is one durable key/value pair. Value holds the codec-encoded
// payload; the store never interprets it.
type Record struct {
	Key   string
	Value []byte
}

var (
	// ErrNotFound: no record exists for the key. A normal outcome, not a
	// fault.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicateKey: a Create collided with an existing record (typically
	// a concurrent writer's create).
	ErrDuplicateKey = errors.New("store: duplicate key")

	// ErrUnavailable: the store cannot serve requests right now, typically
	// because the schema is not yet provisioned. Callers degrade to
	// absent / no-op instead of failing.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is a keyed record store. Implementations must be safe for concurrent
// use, must enforce at most one record per key, and must wrap the sentinel
// errors above so callers can match with errors.Is.
type Store interface {
	// Get returns the record for an exact key.
	Get(ctx context.Context, key string) (Record, error)

	// GetForWrite is Get routed to the primary replica, for lookups whose
	// result feeds a create or update. Single-node stores alias Get.
	GetForWrite(ctx context.Context, key string) (Record, error)

	// Filter returns the records whose key is in keys, in one batched
	// lookup. Missing keys are simply absent from the result.
	Filter(ctx context.Context, keys []string) ([]Record, error)

	// Create inserts a new record atomically, failing with ErrDuplicateKey
	// when one already exists.
	Create(ctx context.Context, key string, value []byte) (Record, error)

	// Update overwrites the value of an existing record.
	Update(ctx context.Context, key string, value []byte) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// SaveEvent announces a durable write, from any path (including
// administrative edits outside the backend's WritePath).
type SaveEvent struct {
	Key     string
	Created bool
}

// Subscription is a standing save-event registration. Close tears it down;
// safe to call multiple times.
type Subscription interface {
	Close()
}

// Watcher is implemented by stores able to announce their saves. Handlers
// run synchronously on the writing goroutine and must be fast.
type Watcher interface {
	Watch(fn func(SaveEvent)) Subscription
}
