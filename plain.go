package ashcache

import (
	"context"
	"github.com/Borislavv/go-ash-registry/internal/storage"
)

// plainCache talks to the engine directly. It is chosen when no loader,
// entry listener, refresh-ahead or exception propagation is configured.
type plainCache[K comparable, V any] struct {
	*base[K, V]
}

func newPlainCache[K comparable, V any](m *Manager, cfg *Configuration[K, V], engine storage.Engine[K, V]) *plainCache[K, V] {
	return &plainCache[K, V]{base: newBase(m, cfg, engine, false)}
}

func (c *plainCache[K, V]) Get(_ context.Context, key K) (V, error) {
	var zero V
	if !c.active() {
		return zero, ErrClosed
	}
	if v, ok := c.engine.Get(key); ok {
		c.counters.hits.Add(1)
		return v, nil
	}
	c.counters.misses.Add(1)
	return zero, ErrNotFound
}

func (c *plainCache[K, V]) Peek(key K) (V, bool) {
	if !c.active() {
		var zero V
		return zero, false
	}
	return c.engine.Get(key)
}

func (c *plainCache[K, V]) Put(_ context.Context, key K, value V) error {
	if !c.active() {
		return ErrClosed
	}
	c.engine.Put(key, value, c.cfg.ttl())
	return nil
}

func (c *plainCache[K, V]) Remove(_ context.Context, key K) error {
	if !c.active() {
		return ErrClosed
	}
	c.engine.Remove(key)
	return nil
}

func (c *plainCache[K, V]) Clear(context.Context) error {
	if !c.active() {
		return ErrClosed
	}
	c.engine.Clear()
	return nil
}

func (c *plainCache[K, V]) Len() int64 {
	return c.engine.Len()
}

func (c *plainCache[K, V]) Close() error {
	return c.shutdown(c, c.engine.Close)
}

func (c *plainCache[K, V]) discard() error {
	return c.base.discard(c.engine.Close)
}
