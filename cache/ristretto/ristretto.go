// Package ristretto adapts dgraph-io/ristretto to the cache.Cache contract.
//
// Ristretto is process-local: confcache rejects it at construction. It remains
// useful standalone. Writes are buffered and applied asynchronously, so a Get
// immediately after Set may miss; that is within the cache contract.
package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/confcache/cache"
)

type Ristretto struct {
	c *rc.Cache

	addMu sync.Mutex
}

var _ cache.Cache = (*Ristretto)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (p *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Ristretto) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if b, ok, _ := p.Get(ctx, k); ok {
			out[k] = b
		}
	}
	return out, nil
}

func (p *Ristretto) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		p.c.Set(key, value, 1)
		return nil
	}
	p.c.SetWithTTL(key, value, 1, ttl)
	return nil
}

func (p *Ristretto) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	for k, v := range items {
		if err := p.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (p *Ristretto) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.addMu.Lock()
	defer p.addMu.Unlock()
	if _, ok, _ := p.Get(ctx, key); ok {
		return false, nil
	}
	return true, p.Set(ctx, key, value, ttl)
}

func (p *Ristretto) DelMany(_ context.Context, keys ...string) error {
	for _, k := range keys {
		p.c.Del(k)
	}
	return nil
}

func (p *Ristretto) Shared() bool { return false }

// Wait blocks until buffered writes have been applied. Handy in tests.
func (p *Ristretto) Wait() { p.c.Wait() }

func (p *Ristretto) Close(_ context.Context) error {
	p.c.Close()
	return nil
}
