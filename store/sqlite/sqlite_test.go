package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/confcache/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}

	if _, err := s.Create(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec, err := s.Get(ctx, "k")
	if err != nil || string(rec.Value) != "v1" {
		t.Fatalf("Get: rec=%+v err=%v", rec, err)
	}

	if err := s.Update(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, _ = s.GetForWrite(ctx, "k")
	if string(rec.Value) != "v2" {
		t.Fatalf("after update: %q", rec.Value)
	}

	if err := s.Update(ctx, "ghost", []byte("x")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update missing: %v", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Create(ctx, "k", []byte("first")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "k", []byte("second")); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("duplicate create: %v", err)
	}
	rec, _ := s.Get(ctx, "k")
	if string(rec.Value) != "first" {
		t.Fatalf("original record clobbered: %q", rec.Value)
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, k := range []string{"a", "b", "c"} {
		if _, err := s.Create(ctx, k, []byte(k+"-val")); err != nil {
			t.Fatalf("Create %s: %v", k, err)
		}
	}

	recs, err := s.Filter(ctx, []string{"a", "c", "ghost"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	byKey := map[string]string{}
	for _, r := range recs {
		byKey[r.Key] = string(r.Value)
	}
	if byKey["a"] != "a-val" || byKey["c"] != "c-val" {
		t.Fatalf("filter result: %v", byKey)
	}

	if recs, err := s.Filter(ctx, nil); err != nil || recs != nil {
		t.Fatalf("empty filter: recs=%v err=%v", recs, err)
	}
}

// TestUnavailableBeforeMigrate: every operation against a store without a
// provisioned schema must map to ErrUnavailable, which the backend degrades
// to absent/no-op.
func TestUnavailableBeforeMigrate(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(ctx)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Get: %v", err)
	}
	if _, err := s.Filter(ctx, []string{"k"}); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Filter: %v", err)
	}
	if _, err := s.Create(ctx, "k", []byte("v")); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "k", []byte("v")); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("Update: %v", err)
	}
}

func TestWatchAnnouncesSaves(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var events []store.SaveEvent
	sub := s.Watch(func(ev store.SaveEvent) { events = append(events, ev) })

	if _, err := s.Create(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Save(ctx, "k", []byte("v3")); err != nil { // upsert over existing
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "fresh", []byte("v")); err != nil { // upsert create
		t.Fatalf("Save fresh: %v", err)
	}

	want := []store.SaveEvent{
		{Key: "k", Created: true},
		{Key: "k", Created: false},
		{Key: "k", Created: false},
		{Key: "fresh", Created: true},
	}
	if len(events) != len(want) {
		t.Fatalf("events: %+v", events)
	}
	for i, ev := range want {
		if events[i] != ev {
			t.Fatalf("event %d: got %+v want %+v", i, events[i], ev)
		}
	}

	sub.Close()
	if err := s.Update(ctx, "k", []byte("v4")); err != nil {
		t.Fatalf("Update after unsubscribe: %v", err)
	}
	if len(events) != len(want) {
		t.Fatalf("closed subscription still receiving events")
	}
}
