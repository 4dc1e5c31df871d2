package storage

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt int64 // unix nanos, 0 = never
}

func (e *entry[K, V]) expired(now int64) bool {
	return e.expiresAt != 0 && now >= e.expiresAt
}

// shard is an independent segment of the sharded map. The LRU list keeps
// the most recently used entry at the front.
type shard[K comparable, V any] struct {
	sync.Mutex
	limit int64
	items map[K]*list.Element
	lru   *list.List
}

func newShard[K comparable, V any](limit int64) *shard[K, V] {
	return &shard[K, V]{
		limit: limit,
		items: make(map[K]*list.Element),
		lru:   list.New(),
	}
}

// get reads a value and moves it to the front. Expired entries are dropped on access.
func (sh *shard[K, V]) get(key K, now int64) (value V, hit bool, expired bool) {
	sh.Lock()
	defer sh.Unlock()

	el, ok := sh.items[key]
	if !ok {
		return value, false, false
	}
	e := el.Value.(*entry[K, V])
	if e.expired(now) {
		sh.removeUnlocked(el)
		return value, false, true
	}
	sh.lru.MoveToFront(el)
	return e.value, true, false
}

// put inserts or updates a key and returns the length delta for global aggregation.
// An expired entry counts as absent, so replaced is false for it.
func (sh *shard[K, V]) put(key K, value V, expiresAt, now int64) (old V, replaced bool, lenDelta int64) {
	sh.Lock()
	defer sh.Unlock()

	if el, ok := sh.items[key]; ok {
		e := el.Value.(*entry[K, V])
		if !e.expired(now) {
			old, replaced = e.value, true
			e.value, e.expiresAt = value, expiresAt
			sh.lru.MoveToFront(el)
			return old, replaced, 0
		}
		sh.removeUnlocked(el)
		lenDelta--
	}

	if sh.limit <= 0 {
		return old, false, lenDelta
	}
	for int64(sh.lru.Len()) >= sh.limit {
		sh.removeUnlocked(sh.lru.Back())
		lenDelta--
	}

	sh.items[key] = sh.lru.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	return old, false, lenDelta + 1
}

// remove deletes a key. An expired entry is dropped but reported as a miss.
func (sh *shard[K, V]) remove(key K, now int64) (old V, hit bool, dropped bool) {
	sh.Lock()
	defer sh.Unlock()

	el, ok := sh.items[key]
	if !ok {
		return old, false, false
	}
	e := sh.removeUnlocked(el)
	if e.expired(now) {
		return old, false, true
	}
	return e.value, true, true
}

// clear removes all entries and returns the number of removed items.
func (sh *shard[K, V]) clear() (items int64) {
	sh.Lock()
	items = int64(len(sh.items))
	clear(sh.items)
	sh.lru.Init()
	sh.Unlock()
	return
}

// removeUnlocked is unsafe without shard.Lock due to it mutates the list.
func (sh *shard[K, V]) removeUnlocked(el *list.Element) *entry[K, V] {
	e := sh.lru.Remove(el).(*entry[K, V])
	delete(sh.items, e.key)
	return e
}
