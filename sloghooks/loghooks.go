// Package sloghooks implements confcache.Hooks on log/slog with sampling for
// the chatty events (AutofillSkipped fires on every warm read).
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/confcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SkippedEvery  uint64 // AutofillSkipped
	FallbackEvery uint64 // CacheFallback
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	skippedCtr  atomic.Uint64
	fallbackCtr atomic.Uint64
}

var _ confcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) AutofillRun(keys int) {
	if h.l == nil {
		return
	}
	h.l.Info("confcache.autofill_run", "keys", keys)
}

func (h *Hooks) AutofillSkipped() {
	if h.l == nil || !sample(h.opts.SkippedEvery, &h.skippedCtr) {
		return
	}
	h.l.Debug("confcache.autofill_skipped")
}

func (h *Hooks) CacheFallback(requested, hits int, reason string) {
	if h.l == nil || !sample(h.opts.FallbackEvery, &h.fallbackCtr) {
		return
	}
	h.l.Info("confcache.cache_fallback",
		"requested", requested,
		"hits", hits,
		"reason", reason)
}

func (h *Hooks) CreateRaceRecovered(key string) {
	if h.l == nil {
		return
	}
	h.l.Info("confcache.create_race_recovered", "key", key)
}

func (h *Hooks) StoreUnavailable(op string) {
	if h.l == nil {
		return
	}
	h.l.Warn("confcache.store_unavailable", "op", op)
}

func (h *Hooks) Invalidated(n int) {
	if h.l == nil {
		return
	}
	h.l.Info("confcache.invalidated", "keys", n)
}

func (h *Hooks) DecodeError(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("confcache.decode_error", "key", key, "err", err)
}
