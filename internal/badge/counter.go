package badge

import (
	"context"
	"sync"

	"github.com/despondency/notification-sync/internal/eventbus"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

//go:generate mockgen -source=counter.go -destination=badgemocks/backend.go -package=badgemocks

type Backend interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Counter caches the server side unread total shown on the header badge.
// It is refreshed independently of the feed.
type Counter struct {
	backend Backend
	closed  *atomic.Bool

	mu    sync.RWMutex
	count int
	known bool
}

func NewCounter(backend Backend) *Counter {
	return &Counter{
		backend: backend,
		closed:  atomic.NewBool(false),
	}
}

// Refresh fetches the unread total. On failure the cached value is kept.
func (c *Counter) Refresh(ctx context.Context) error {
	if c.closed.Load() {
		return nil
	}
	n, err := c.backend.UnreadCount(ctx)
	if err != nil {
		metrics.BadgeRefreshes.WithLabelValues("error").Inc()
		log.Err(err).Msg("error while refreshing unread badge")
		return err
	}
	if c.closed.Load() {
		return nil
	}
	c.mu.Lock()
	c.count = n
	c.known = true
	c.mu.Unlock()
	metrics.BadgeRefreshes.WithLabelValues("ok").Inc()
	return nil
}

// Count returns the cached value and whether any refresh has succeeded yet.
func (c *Counter) Count() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count, c.known
}

// Mount refreshes once now and again on every BadgePoke until the returned
// func is called.
func (c *Counter) Mount(ctx context.Context, bus *eventbus.Bus) func() {
	sub := bus.Subscribe(eventbus.BadgePoke, func(interface{}) {
		go func() {
			_ = c.Refresh(ctx)
		}()
	})
	go func() {
		_ = c.Refresh(ctx)
	}()
	return sub.Unsubscribe
}

func (c *Counter) Close() {
	c.closed.Store(true)
}
