package ristretto

import (
	"bytes"
	"context"
	"testing"
)

func newTestCache(t *testing.T) *Ristretto {
	t.Helper()
	c, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.Wait()
	b, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(b, []byte("v")) {
		t.Fatalf("Get: b=%q ok=%v err=%v", b, ok, err)
	}

	if err := c.DelMany(ctx, "k"); err != nil {
		t.Fatalf("DelMany: %v", err)
	}
	c.Wait()
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("k still present after delete")
	}
}

func TestAddIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if ok, err := c.Add(ctx, "k", []byte("first"), 0); err != nil || !ok {
		t.Fatalf("first Add: ok=%v err=%v", ok, err)
	}
	c.Wait()
	if ok, err := c.Add(ctx, "k", []byte("second"), 0); err != nil || ok {
		t.Fatalf("second Add must not win: ok=%v err=%v", ok, err)
	}
}

// Ristretto is process-local and must say so; confcache refuses it.
func TestNotShared(t *testing.T) {
	if newTestCache(t).Shared() {
		t.Fatalf("ristretto must report Shared() == false")
	}
}
