package confcache

import "errors"

// ErrLocalCache is returned by New when the configured cache is visible only
// to the current process. Every process would then warm and invalidate a
// private copy, silently serving divergent configuration; run with a
// cross-process cache or with none at all.
var ErrLocalCache = errors.New("confcache: cache backend is process-local; use a cross-process cache or none")
