package bigcache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *BigCache {
	t.Helper()
	c, err := New(Config{LifeWindow: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if err := c.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 0); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	got, err := c.GetMany(ctx, []string{"a", "b", "ghost"})
	if err != nil || len(got) != 2 || !bytes.Equal(got["a"], []byte("1")) {
		t.Fatalf("GetMany: got=%v err=%v", got, err)
	}

	if err := c.DelMany(ctx, "a", "ghost"); err != nil {
		t.Fatalf("DelMany: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("a still present after delete")
	}
}

func TestAddIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if ok, err := c.Add(ctx, "k", []byte("first"), 0); err != nil || !ok {
		t.Fatalf("first Add: ok=%v err=%v", ok, err)
	}
	if ok, err := c.Add(ctx, "k", []byte("second"), 0); err != nil || ok {
		t.Fatalf("second Add must not win: ok=%v err=%v", ok, err)
	}
	b, _, _ := c.Get(ctx, "k")
	if !bytes.Equal(b, []byte("first")) {
		t.Fatalf("value clobbered: %q", b)
	}
}

// BigCache is process-local and must say so; confcache refuses it.
func TestNotShared(t *testing.T) {
	if newTestCache(t).Shared() {
		t.Fatalf("bigcache must report Shared() == false")
	}
}
