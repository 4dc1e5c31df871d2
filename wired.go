package ashcache

import (
	"context"
	"fmt"
	"github.com/Borislavv/go-ash-registry/internal/refresh"
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"golang.org/x/sync/singleflight"
)

// wiredCache layers loading, entry events, refresh-ahead and exception
// propagation over the engine.
type wiredCache[K comparable, V any] struct {
	*base[K, V]
	loader    Loader[K, V]
	propagate ExceptionPropagator[K]
	listeners []EntryListener[K, V]
	refresher refresh.Refresher[K]
	flight    singleflight.Group
}

func newWiredCache[K comparable, V any](m *Manager, cfg *Configuration[K, V], engine storage.Engine[K, V]) *wiredCache[K, V] {
	c := &wiredCache[K, V]{
		base:      newBase(m, cfg, engine, true),
		loader:    cfg.loader,
		propagate: cfg.propagator,
		listeners: cfg.entryListeners,
		refresher: refresh.NoOp[K]{},
	}
	if c.propagate == nil {
		c.propagate = propagateAsLoadError[K]
	}
	if cfg.refreshAhead {
		c.refresher = refresh.New[K](context.Background(), refresh.Config{
			Rate:  cfg.refreshRate,
			Clock: cfg.clock,
		}, c.logger, c.refresh)
	}
	return c
}

func (c *wiredCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if !c.active() {
		return zero, ErrClosed
	}
	if v, ok := c.engine.Get(key); ok {
		c.counters.hits.Add(1)
		return v, nil
	}
	c.counters.misses.Add(1)

	if c.loader == nil {
		return zero, ErrNotFound
	}
	return c.load(ctx, key)
}

// load calls the loader once per key no matter how many callers miss
// concurrently. The shared load ignores the cancellation of whichever caller
// started it; every caller stops waiting when its own ctx is done.
func (c *wiredCache[K, V]) load(ctx context.Context, key K) (V, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(flightKey(key), func() (any, error) {
		c.counters.loads.Add(1)
		val, err := c.loader.Load(loadCtx, key)
		if err != nil {
			c.counters.loadFailures.Add(1)
			return nil, err
		}
		if c.active() {
			c.store(key, val)
		}
		return val, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, c.propagate(key, res.Err)
		}
		val, _ := res.Val.(V)
		return val, nil
	}
}

func (c *wiredCache[K, V]) Peek(key K) (V, bool) {
	if !c.active() {
		var zero V
		return zero, false
	}
	return c.engine.Get(key)
}

func (c *wiredCache[K, V]) Put(_ context.Context, key K, value V) error {
	if !c.active() {
		return ErrClosed
	}
	c.store(key, value)
	return nil
}

func (c *wiredCache[K, V]) store(key K, value V) {
	ttl := c.cfg.ttl()
	old, replaced := c.engine.Put(key, value, ttl)

	if c.cfg.refreshAhead {
		c.refresher.Schedule(key, c.cfg.clock.Now().Add(ttl*3/4))
	}

	for _, l := range c.listeners {
		if replaced {
			l.OnEntryUpdated(c, key, old, value)
		} else {
			l.OnEntryCreated(c, key, value)
		}
	}
}

func (c *wiredCache[K, V]) Remove(_ context.Context, key K) error {
	if !c.active() {
		return ErrClosed
	}
	c.refresher.Cancel(key)

	old, ok := c.engine.Remove(key)
	if !ok {
		return nil
	}
	for _, l := range c.listeners {
		l.OnEntryRemoved(c, key, old)
	}
	return nil
}

// Clear drops every entry. Entry listeners aren't notified per entry.
func (c *wiredCache[K, V]) Clear(context.Context) error {
	if !c.active() {
		return ErrClosed
	}
	c.engine.Clear()
	return nil
}

func (c *wiredCache[K, V]) Len() int64 {
	return c.engine.Len()
}

// refresh reloads a key still present in the engine and reschedules it.
func (c *wiredCache[K, V]) refresh(ctx context.Context, key K) error {
	if !c.active() {
		return nil
	}
	if _, ok := c.engine.Get(key); !ok {
		return nil
	}

	val, err := c.loader.Load(ctx, key)
	if err != nil {
		c.counters.refreshFailures.Add(1)
		err = c.propagate(key, err)
		c.logger.Warn("refresh failed", "key", fmt.Sprint(key), "err", err)
		return err
	}
	c.counters.refreshes.Add(1)

	if c.active() {
		c.store(key, val)
	}
	return nil
}

// release closes the decorator chain outermost first.
func (c *wiredCache[K, V]) release() error {
	_ = c.refresher.Close()
	return c.engine.Close()
}

func (c *wiredCache[K, V]) Close() error {
	return c.shutdown(c, c.release)
}

func (c *wiredCache[K, V]) discard() error {
	return c.base.discard(c.release)
}

func flightKey[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return "s:" + s
	}
	return fmt.Sprintf("%T:%#v", key, key)
}
