package confcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/confcache/cache"
	c "github.com/unkn0wn-root/confcache/codec"
	"github.com/unkn0wn-root/confcache/store"
)

// Backend is the configuration access API. V is the caller's value type;
// serialization is handled by a pluggable Codec[V].
//
// Reads treat missing data as absence, never as an error: Get reports
// presence via its bool, GetMany omits unresolved keys. The only errors a
// Backend surfaces are codec failures on a concrete payload.
type Backend[V any] interface {
	// Get returns the value for key, consulting the shared cache first and
	// repopulating it from the durable store on a miss.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// GetMany resolves a set of keys in bulk. The result holds only the keys
	// that resolved to a value; iteration order is undefined. With fallback
	// false the shared cache is bypassed and only the durable store is read.
	GetMany(ctx context.Context, keys []string, fallback bool) (map[string]V, error)

	// Set persists value durably, overwrites the cache entry and emits a
	// change notification. Safe under concurrent Set calls for the same key
	// from independent processes.
	Set(ctx context.Context, key string, value V) error

	// Close tears down the save-event subscription. The store and cache are
	// owned by the caller and are not closed here.
	Close(ctx context.Context) error
}

// Options tune the backend. Registry, Store and Codec are required.
type Options[V any] struct {
	// Required
	Registry Registry     // enumerates every known configuration key
	Store    store.Store  // durable authority
	Codec    c.Codec[V]   // value (de)serialization

	// Cache is the cross-process shared cache. Nil is a valid, fully
	// supported configuration (every read goes to the store). A configured
	// cache must report Shared() == true or New fails with ErrLocalCache.
	Cache cache.Cache

	Prefix      string        // cache/store key prefix; "" => "constance:"
	AutofillTTL time.Duration // warm-up window; 0 disables autofill

	Logger   Logger      // nil => NopLogger
	Hooks    Hooks       // nil => NopHooks
	Notifier Notifier[V] // nil => notifications disabled
}

// New validates opts, performs one eager warm-up and, when the store can
// announce its saves (store.Watcher), registers the invalidation handler for
// the lifetime of the backend.
func New[V any](ctx context.Context, opts Options[V]) (Backend[V], error) {
	return newBackend[V](ctx, opts)
}
