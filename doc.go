// Package confcache implements a read-through, write-through cache in front of
// a durable store of configuration entries. Reads are served from a shared
// cross-process cache; a sentinel-guarded autofill warms the whole (small)
// configuration set at most once per expiry window, so cold starts do not
// stampede the durable store.
//
// Components:
//   - store.Store: authoritative record-per-key storage (SQLite implementation
//     included; any keyed store with create/update/filter works).
//   - cache.Cache: byte store with batch operations and TTL (Redis for
//     cross-process use; BigCache/Ristretto exist for standalone use but are
//     rejected here because they are process-local).
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - Notifier[V]: fire-and-forget sink for post-write (key, old, new) events.
//
// Protocol:
//
//	Get      cache -> autofill once -> cache -> store (repopulate if-absent)
//	GetMany  batched cache read -> autofill once on partial miss -> retry ->
//	         one batched store read for whatever is still pending
//	Set      durable create-or-update (concurrent creates converge to an
//	         update) -> unconditional cache overwrite -> change notification
//
// The backend never fails a read or write because data is unavailable: a
// missing key is an absent result, and a store that is not yet provisioned
// degrades reads to absent and writes to no-ops.
package confcache
