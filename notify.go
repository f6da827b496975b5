package confcache

import "context"

// Change describes a completed write: the caller's key, the value it replaced
// and the value now durable. OldPresent is false when the write created the
// record, in which case Old is the zero value.
type Change[V any] struct {
	Key        string
	Old        V
	OldPresent bool
	New        V
}

// Notifier receives post-write change events, after the durable and cache
// writes have completed. Fire-and-forget: implementations must not block the
// write path, and delivery failures are theirs to log.
type Notifier[V any] interface {
	Notify(ctx context.Context, ch Change[V])
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc[V any] func(ctx context.Context, ch Change[V])

func (f NotifierFunc[V]) Notify(ctx context.Context, ch Change[V]) { f(ctx, ch) }
