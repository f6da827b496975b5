// Package cache defines the shared-cache abstraction used by confcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation), and must be safe
// for concurrent use.
//
// Entries may vanish at any time (eviction, restart, TTL); no implementation
// guarantees permanence and all callers must tolerate absence.
package cache

import (
	"context"
	"time"
)

// Cache is a minimal byte store with batch operations and TTLs.
// A ttl <= 0 means "no expiry" wherever the backing store supports it.
type Cache interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetMany returns a mapping holding only the keys that hit.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetMany stores every pair in items under one TTL, batched where the
	// backing store supports it.
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	// Add stores value only when key is currently absent and reports whether
	// the write took effect.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// DelMany removes keys (best-effort; missing keys are not an error).
	DelMany(ctx context.Context, keys ...string) error

	// Shared reports whether entries are visible to other processes.
	// confcache refuses to run on a process-local cache.
	Shared() bool

	// Close releases resources.
	Close(ctx context.Context) error
}
