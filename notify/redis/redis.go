// Package redis publishes configuration changes on a Redis channel, so
// sibling processes (and anything else listening) observe post-write values.
// Delivery is fire-and-forget per the Notifier contract; failures are logged,
// never surfaced to the write path.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/confcache"
)

var ErrNilClient = errors.New("redis notifier: nil client")

type Notifier[V any] struct {
	rdb     goredis.UniversalClient
	channel string
	log     confcache.Logger
}

var _ confcache.Notifier[struct{}] = (*Notifier[struct{}])(nil)

// payload is the wire shape: old is omitted entirely for fresh creations.
type payload[V any] struct {
	Key string `json:"key"`
	Old *V     `json:"old,omitempty"`
	New V      `json:"new"`
}

func New[V any](client goredis.UniversalClient, channel string, log confcache.Logger) (*Notifier[V], error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if log == nil {
		log = confcache.NopLogger{}
	}
	return &Notifier[V]{rdb: client, channel: channel, log: log}, nil
}

func (n *Notifier[V]) Notify(ctx context.Context, ch confcache.Change[V]) {
	p := payload[V]{Key: ch.Key, New: ch.New}
	if ch.OldPresent {
		old := ch.Old
		p.Old = &old
	}
	b, err := json.Marshal(p)
	if err != nil {
		n.log.Warn("notify: marshal change failed", confcache.Fields{"key": ch.Key, "err": err})
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, b).Err(); err != nil {
		n.log.Warn("notify: publish failed", confcache.Fields{"key": ch.Key, "err": err})
	}
}
