package ashcache

import (
	"fmt"
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"log/slog"
	"sync/atomic"
)

// base is the state shared by both cache variants: identity, engine, counters
// and the lifecycle state machine.
type base[K comparable, V any] struct {
	cfg      *Configuration[K, V]
	manager  *Manager
	engine   storage.Engine[K, V]
	logger   *slog.Logger
	counters *cacheCounters
	state    atomic.Int32
	wired    bool
}

func newBase[K comparable, V any](m *Manager, cfg *Configuration[K, V], engine storage.Engine[K, V], wired bool) *base[K, V] {
	b := &base[K, V]{
		cfg:      cfg,
		manager:  m,
		engine:   engine,
		logger:   cfg.logger.With("cache", cfg.name, "manager", m.Name()),
		counters: newCacheCounters(),
		wired:    wired,
	}
	b.state.Store(int32(StateBuilding))
	return b
}

func (b *base[K, V]) Name() string { return b.cfg.name }

func (b *base[K, V]) Manager() *Manager { return b.manager }

func (b *base[K, V]) Configuration() *Configuration[K, V] { return b.cfg }

func (b *base[K, V]) State() State { return State(b.state.Load()) }

// IsClosed is true from the moment Close starts.
func (b *base[K, V]) IsClosed() bool { return b.State() >= StateClosing }

func (b *base[K, V]) Info() Info {
	hits, misses, loads, loadFailures, refreshes, refreshFailures, listenerFailures := b.counters.snapshot()
	return Info{
		Name:             b.cfg.name,
		Manager:          b.manager.Name(),
		State:            b.State(),
		Wired:            b.wired,
		Engine:           b.cfg.Engine(),
		KeyType:          b.cfg.keyType,
		ValueType:        b.cfg.valueType,
		Capacity:         b.engine.Capacity(),
		Size:             b.engine.Len(),
		Hits:             hits,
		Misses:           misses,
		Loads:            loads,
		LoadFailures:     loadFailures,
		Refreshes:        refreshes,
		RefreshFailures:  refreshFailures,
		ListenerFailures: listenerFailures,
	}
}

func (b *base[K, V]) active() bool { return b.State() == StateActive }

func (b *base[K, V]) activate() {
	b.state.CompareAndSwap(int32(StateBuilding), int32(StateActive))
}

// discard tears down an instance that never became visible: no listeners,
// no registry bookkeeping.
func (b *base[K, V]) discard(release func() error) error {
	b.state.Store(int32(StateClosed))
	return release()
}

// shutdown runs the close protocol once: stop lookups, release resources,
// leave the manager, notify close listeners, mark closed. The release error
// is returned after the sequence completes.
func (b *base[K, V]) shutdown(self Cache[K, V], release func() error) error {
	if !b.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) {
		return nil
	}

	err := release()
	if err != nil {
		b.logger.Error("failed to release cache resources", "err", err)
	}

	b.manager.remove(b.cfg.name, self)

	for i, listener := range b.cfg.closeListeners {
		b.notifyClose(self, i, listener)
	}

	b.state.Store(int32(StateClosed))
	b.logger.Info("cache is closed")
	return err
}

func (b *base[K, V]) notifyClose(self Cache[K, V], idx int, listener CloseListener[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			b.listenerFailed(idx, fmt.Errorf("%w: panic: %v", ErrListenerFailure, r))
		}
	}()
	if err := listener(self); err != nil {
		b.listenerFailed(idx, fmt.Errorf("%w: %w", ErrListenerFailure, err))
	}
}

func (b *base[K, V]) listenerFailed(idx int, err error) {
	b.counters.listenerFailures.Add(1)
	b.logger.Warn("close listener failed", "listener", idx, "err", err)
}
