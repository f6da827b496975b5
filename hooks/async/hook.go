// Package asynchook decouples hook sinks from the backend's hot paths: events
// are queued and delivered by a small worker pool, and dropped when the queue
// is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{FallbackEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	backend, _ := confcache.New[string](ctx, confcache.Options[string]{
//	    ...
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/confcache"
)

type Hooks struct {
	inner confcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ confcache.Hooks = (*Hooks)(nil)

func New(inner confcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) AutofillRun(keys int) { h.try(func() { h.inner.AutofillRun(keys) }) }
func (h *Hooks) AutofillSkipped()     { h.try(func() { h.inner.AutofillSkipped() }) }
func (h *Hooks) CacheFallback(requested, hits int, reason string) {
	h.try(func() { h.inner.CacheFallback(requested, hits, reason) })
}
func (h *Hooks) CreateRaceRecovered(key string) { h.try(func() { h.inner.CreateRaceRecovered(key) }) }
func (h *Hooks) StoreUnavailable(op string)     { h.try(func() { h.inner.StoreUnavailable(op) }) }
func (h *Hooks) Invalidated(n int)              { h.try(func() { h.inner.Invalidated(n) }) }
func (h *Hooks) DecodeError(key string, err error) {
	h.try(func() { h.inner.DecodeError(key, err) })
}
