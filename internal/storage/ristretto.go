package storage

import (
	"fmt"
	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/ristretto/v2"
	"sync"
	"sync/atomic"
	"time"
)

const (
	ristrettoBufferItems = 64
	maxCounters          = 1 << 24
)

var _ Engine[string, any] = (*Ristretto[string, any])(nil)

type ristrettoEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt int64 // unix nanos, 0 = never
}

func (e ristrettoEntry[K, V]) expired(now int64) bool {
	return e.expiresAt != 0 && now >= e.expiresAt
}

// Ristretto stores entries in a ristretto cache keyed by the 64-bit key hash.
// Every entry costs 1, so MaxCost is the entry bound. Len is approximate:
// ristretto admits and evicts asynchronously.
//
// Expiry is logical: the deadline is kept in the entry and checked against
// Options.Clock on access, ristretto's own wall-clock TTL is not used.
type Ristretto[K comparable, V any] struct {
	clock    clock.Clock
	cache    *ristretto.Cache[uint64, ristrettoEntry[K, V]]
	capacity int64
	len      atomic.Int64
	once     sync.Once
}

func NewRistretto[K comparable, V any](opts Options) (*Ristretto[K, V], error) {
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("ristretto engine requires capacity >= 1, got %d", opts.Capacity)
	}

	opts = opts.withDefaults()

	r := &Ristretto[K, V]{clock: opts.Clock, capacity: opts.Capacity}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, ristrettoEntry[K, V]]{
		NumCounters:        countersFor(opts.Capacity),
		MaxCost:            opts.Capacity,
		BufferItems:        ristrettoBufferItems,
		IgnoreInternalCost: true,
		OnEvict: func(*ristretto.Item[ristrettoEntry[K, V]]) {
			r.len.Add(-1)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	r.cache = c
	return r, nil
}

// countersFor follows ristretto's advice of 10x counters per item, bounded to keep memory sane.
func countersFor(capacity int64) int64 {
	if capacity > maxCounters/10 {
		return maxCounters
	}
	return capacity * 10
}

func (r *Ristretto[K, V]) Get(key K) (value V, ok bool) {
	h := hashKey(key)
	e, found := r.cache.Get(h)
	if !found || e.key != key {
		// miss or hash collision
		return value, false
	}
	if e.expired(r.clock.Now().UnixNano()) {
		r.cache.Del(h)
		r.len.Add(-1)
		return value, false
	}
	return e.value, true
}

func (r *Ristretto[K, V]) Put(key K, value V, ttl time.Duration) (old V, replaced bool) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = r.clock.Now().Add(ttl).UnixNano()
	}
	h := hashKey(key)
	old, replaced = r.Get(key)

	r.cache.Set(h, ristrettoEntry[K, V]{key: key, value: value, expiresAt: expiresAt}, 1)
	r.cache.Wait()

	if !replaced {
		if _, stored := r.cache.Get(h); stored {
			r.len.Add(1)
		}
	}
	return old, replaced
}

func (r *Ristretto[K, V]) Remove(key K) (old V, ok bool) {
	if old, ok = r.Get(key); ok {
		r.cache.Del(hashKey(key))
		r.len.Add(-1)
	}
	return
}

func (r *Ristretto[K, V]) Clear() {
	r.cache.Clear()
	r.len.Store(0)
}

func (r *Ristretto[K, V]) Len() int64 {
	if n := r.len.Load(); n > 0 {
		return n
	}
	return 0
}

func (r *Ristretto[K, V]) Capacity() int64 { return r.capacity }

// Close stops ristretto's background goroutines.
func (r *Ristretto[K, V]) Close() error {
	r.once.Do(r.cache.Close)
	return nil
}
