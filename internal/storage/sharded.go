package storage

import (
	"github.com/benbjohnson/clock"
	"sync/atomic"
	"time"
)

// Tunables.
const (
	maxShards   = 64
	minPerShard = 32
)

var _ Engine[string, any] = (*Sharded[string, any])(nil)

// Sharded is a sharded map with an LRU list per shard. The total capacity is
// split across shards so that the sum of shard bounds equals the requested bound exactly.
type Sharded[K comparable, V any] struct {
	clock    clock.Clock
	capacity int64
	len      atomic.Int64
	mask     uint64
	shards   []*shard[K, V]
}

func NewSharded[K comparable, V any](opts Options) *Sharded[K, V] {
	opts = opts.withDefaults()

	n := shardsFor(opts.Capacity)
	s := &Sharded[K, V]{
		clock:    opts.Clock,
		capacity: opts.Capacity,
		mask:     uint64(n - 1),
		shards:   make([]*shard[K, V], n),
	}

	base, rem := opts.Capacity/int64(n), opts.Capacity%int64(n)
	for id := 0; id < n; id++ {
		limit := base
		if int64(id) < rem {
			limit++
		}
		s.shards[id] = newShard[K, V](limit)
	}
	return s
}

// shardsFor picks a power of two number of shards, keeping at least minPerShard entries per shard.
func shardsFor(capacity int64) int {
	n := maxShards
	for n > 1 && capacity/int64(n) < minPerShard {
		n >>= 1
	}
	return n
}

func (s *Sharded[K, V]) Get(key K) (value V, ok bool) {
	value, ok, expired := s.shard(key).get(key, s.clock.Now().UnixNano())
	if expired {
		s.len.Add(-1)
	}
	return value, ok
}

func (s *Sharded[K, V]) Put(key K, value V, ttl time.Duration) (old V, replaced bool) {
	now := s.clock.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}
	old, replaced, lenDelta := s.shard(key).put(key, value, expiresAt, now.UnixNano())
	if lenDelta != 0 {
		s.len.Add(lenDelta)
	}
	return old, replaced
}

func (s *Sharded[K, V]) Remove(key K) (old V, ok bool) {
	old, ok, dropped := s.shard(key).remove(key, s.clock.Now().UnixNano())
	if dropped {
		s.len.Add(-1)
	}
	return old, ok
}

// Clear wipes all shards and fixes the global counter.
func (s *Sharded[K, V]) Clear() {
	for _, sh := range s.shards {
		if items := sh.clear(); items != 0 {
			s.len.Add(-items)
		}
	}
}

func (s *Sharded[K, V]) Len() int64      { return s.len.Load() }
func (s *Sharded[K, V]) Capacity() int64 { return s.capacity }

// Close drops all entries. The engine holds no goroutines.
func (s *Sharded[K, V]) Close() error {
	s.Clear()
	return nil
}

func (s *Sharded[K, V]) shard(key K) *shard[K, V] {
	return s.shards[hashKey(key)&s.mask]
}
