package confcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/confcache/cache"
	c "github.com/unkn0wn-root/confcache/codec"
	"github.com/unkn0wn-root/confcache/store"
)

const (
	defaultPrefix = "constance:"
	// sentinelSuffix names the cache entry whose presence means "the cache
	// was warmed within the current window".
	sentinelSuffix = "autofilled"
)

type backend[V any] struct {
	registry Registry
	store    store.Store
	cache    cache.Cache // nil => cache-less operation
	codec    c.Codec[V]
	log      Logger
	hooks    Hooks
	notifier Notifier[V] // nil => notifications disabled

	prefix      string
	autofillTTL time.Duration

	// collapses concurrent in-process warm-ups; cross-process duplicates are
	// accepted (redundant work, not a correctness hazard)
	warm singleflight.Group

	sub store.Subscription
}

func newBackend[V any](ctx context.Context, opts Options[V]) (*backend[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("confcache: store is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("confcache: codec is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("confcache: registry is required")
	}
	if opts.Cache != nil && !opts.Cache.Shared() {
		return nil, ErrLocalCache
	}

	b := &backend[V]{
		registry:    opts.Registry,
		store:       opts.Store,
		cache:       opts.Cache,
		codec:       opts.Codec,
		notifier:    opts.Notifier,
		autofillTTL: opts.AutofillTTL,
	}

	// defaults
	b.log = coalesce[Logger](opts.Logger, NopLogger{})
	b.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	b.prefix = coalesce(opts.Prefix, defaultPrefix)

	b.autofill(ctx)
	if w, ok := opts.Store.(store.Watcher); ok {
		b.sub = w.Watch(b.invalidate)
	}
	return b, nil
}

func (b *backend[V]) Close(context.Context) error {
	if b.sub != nil {
		b.sub.Close()
	}
	return nil
}

func (b *backend[V]) prefixed(key string) string { return b.prefix + key }

// autofill warms the shared cache from the durable store at most once per
// expiry window. The sentinel entry marks the window; if it is present the
// scan is suppressed. One batch write carries every registry pair plus the
// sentinel, so a cold cache costs a single full scan instead of one store
// round-trip per missing key.
func (b *backend[V]) autofill(ctx context.Context) {
	if b.cache == nil || b.autofillTTL <= 0 {
		return
	}
	sentinel := b.prefixed(sentinelSuffix)
	if _, ok, err := b.cache.Get(ctx, sentinel); err == nil && ok {
		b.hooks.AutofillSkipped()
		return
	}

	b.warm.Do(sentinel, func() (any, error) {
		keys := b.registry.Keys()
		prefixed := make([]string, len(keys))
		for i, k := range keys {
			prefixed[i] = b.prefixed(k)
		}

		batch := make(map[string][]byte, len(prefixed)+1)
		batch[sentinel] = []byte("1")

		recs, err := b.store.Filter(ctx, prefixed)
		if err != nil {
			// Degrade to an empty scan. The sentinel is still written so the
			// window semantics hold; reads fall through per key instead of
			// re-scanning on every call.
			b.hooks.StoreUnavailable("autofill")
			b.log.Warn("autofill: store scan failed", Fields{"err": err})
		}
		for _, r := range recs {
			batch[r.Key] = r.Value
		}

		if err := b.cache.SetMany(ctx, batch, b.autofillTTL); err != nil {
			b.log.Warn("autofill: cache write failed", Fields{"err": err})
			return nil, nil
		}
		b.hooks.AutofillRun(len(batch) - 1)
		b.log.Debug("autofill", Fields{"keys": len(batch) - 1})
		return nil, nil
	})
}

func (b *backend[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k := b.prefixed(key)

	if b.cache != nil {
		raw, ok := b.cacheGet(ctx, k)
		if !ok {
			b.autofill(ctx)
			raw, ok = b.cacheGet(ctx, k)
		}
		if ok {
			v, err := b.codec.Decode(raw)
			if err == nil {
				return v, true, nil
			}
			// self-heal the corrupt entry and fall through to the store
			b.hooks.DecodeError(key, err)
			_ = b.cache.DelMany(ctx, k)
		}
	}

	rec, err := b.store.Get(ctx, k)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return zero, false, nil
	case errors.Is(err, store.ErrUnavailable):
		b.hooks.StoreUnavailable("get")
		return zero, false, nil
	default:
		b.log.Warn("get: store read failed", Fields{"key": key, "err": err})
		return zero, false, nil
	}

	if b.cache != nil {
		// add-if-absent: never clobber a value a concurrent writer set
		// between our miss and now
		if _, aerr := b.cache.Add(ctx, k, rec.Value, 0); aerr != nil {
			b.log.Warn("get: cache repopulate failed", Fields{"key": key, "err": aerr})
		}
	}

	v, derr := b.codec.Decode(rec.Value)
	if derr != nil {
		b.hooks.DecodeError(key, derr)
		return zero, false, fmt.Errorf("confcache: decode %q: %w", key, derr)
	}
	return v, true, nil
}

func (b *backend[V]) GetMany(ctx context.Context, keys []string, fallback bool) (map[string]V, error) {
	out := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	// prefixed -> caller key; doubles as the pending set
	pending := make(map[string]string, len(keys))
	for _, k := range keys {
		pending[b.prefixed(k)] = k
	}

	if b.cache != nil && fallback {
		prefixed := make([]string, 0, len(pending))
		for pk := range pending {
			prefixed = append(prefixed, pk)
		}

		hits, err := b.cache.GetMany(ctx, prefixed)
		if err != nil {
			b.log.Warn("mget: cache read failed", Fields{"err": err})
			b.hooks.CacheFallback(len(prefixed), 0, "cache_error")
			hits = nil
		}
		if len(hits) < len(prefixed) {
			if err == nil {
				b.hooks.CacheFallback(len(prefixed), len(hits), "partial_miss")
			}
			// warm once, then retry the batch exactly once
			b.autofill(ctx)
			if hits, err = b.cache.GetMany(ctx, prefixed); err != nil {
				b.log.Warn("mget: cache retry failed", Fields{"err": err})
				hits = nil
			}
		}
		for pk, raw := range hits {
			key, want := pending[pk]
			if !want {
				continue
			}
			v, derr := b.codec.Decode(raw)
			if derr != nil {
				// leave the key pending so the store pass can still resolve it
				b.hooks.DecodeError(key, derr)
				continue
			}
			out[key] = v
			delete(pending, pk)
		}
		if len(pending) == 0 {
			return out, nil
		}
	}

	rest := make([]string, 0, len(pending))
	for pk := range pending {
		rest = append(rest, pk)
	}
	recs, err := b.store.Filter(ctx, rest)
	if err != nil {
		// unresolved keys stay omitted; availability beats completeness here
		b.hooks.StoreUnavailable("mget")
		b.log.Warn("mget: store read failed", Fields{"err": err})
		return out, nil
	}
	for _, r := range recs {
		key, want := pending[r.Key]
		if !want {
			continue
		}
		v, derr := b.codec.Decode(r.Value)
		if derr != nil {
			b.hooks.DecodeError(key, derr)
			continue
		}
		out[key] = v
	}
	return out, nil
}

func (b *backend[V]) Set(ctx context.Context, key string, value V) error {
	enc, err := b.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("confcache: encode %q: %w", key, err)
	}
	k := b.prefixed(key)

	var old []byte
	oldPresent := false

	rec, err := b.store.GetForWrite(ctx, k)
	switch {
	case err == nil:
		old = rec.Value
		oldPresent = true
	case errors.Is(err, store.ErrUnavailable):
		// store not provisioned yet; deployment-time condition, not an error
		b.hooks.StoreUnavailable("set")
		return nil
	case errors.Is(err, store.ErrNotFound):
		if _, cerr := b.store.Create(ctx, k, enc); cerr != nil {
			switch {
			case errors.Is(cerr, store.ErrDuplicateKey):
				// another process created the key first; its record becomes
				// the prior value and this write continues as an update
				b.hooks.CreateRaceRecovered(key)
				prior, gerr := b.store.GetForWrite(ctx, k)
				if gerr != nil {
					b.hooks.StoreUnavailable("set")
					b.log.Warn("set: refetch after create race failed", Fields{"key": key, "err": gerr})
					return nil
				}
				old = prior.Value
				oldPresent = true
			case errors.Is(cerr, store.ErrUnavailable):
				b.hooks.StoreUnavailable("set")
				return nil
			default:
				b.log.Warn("set: create failed", Fields{"key": key, "err": cerr})
				return nil
			}
		}
	default:
		b.log.Warn("set: store read failed", Fields{"key": key, "err": err})
		return nil
	}

	if oldPresent {
		if uerr := b.store.Update(ctx, k, enc); uerr != nil {
			b.hooks.StoreUnavailable("set")
			b.log.Warn("set: update failed", Fields{"key": key, "err": uerr})
			return nil
		}
	}

	if b.cache != nil {
		// write-through overwrite: a completed write always wins over a
		// stale cached read
		if cerr := b.cache.Set(ctx, k, enc, 0); cerr != nil {
			b.log.Warn("set: cache write failed", Fields{"key": key, "err": cerr})
		}
	}

	if b.notifier != nil {
		ch := Change[V]{Key: key, New: value}
		if oldPresent {
			if ov, derr := b.codec.Decode(old); derr == nil {
				ch.Old, ch.OldPresent = ov, true
			} else {
				b.hooks.DecodeError(key, derr)
			}
		}
		b.notifier.Notify(ctx, ch)
	}
	return nil
}

// invalidate is the standing save-event handler: an out-of-band edit of an
// existing record purges every cached registry entry plus the sentinel, then
// re-warms. Fresh creations carry nothing stale in cache and are ignored.
func (b *backend[V]) invalidate(ev store.SaveEvent) {
	if b.cache == nil || ev.Created {
		return
	}
	ctx := context.Background()

	keys := b.registry.Keys()
	purge := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		purge = append(purge, b.prefixed(k))
	}
	purge = append(purge, b.prefixed(sentinelSuffix))

	if err := b.cache.DelMany(ctx, purge...); err != nil {
		b.log.Warn("invalidate: purge failed", Fields{"key": ev.Key, "err": err})
	}
	b.hooks.Invalidated(len(purge) - 1)
	b.autofill(ctx)
}

// cacheGet is a miss-on-error cache read.
func (b *backend[V]) cacheGet(ctx context.Context, k string) ([]byte, bool) {
	raw, ok, err := b.cache.Get(ctx, k)
	if err != nil {
		b.log.Warn("cache read failed", Fields{"key": k, "err": err})
		return nil, false
	}
	return raw, ok
}
