package ashcache

import "sync/atomic"

type cacheCounters struct {
	hits             atomic.Int64 // Get served from the engine
	misses           atomic.Int64 // Get not served from the engine
	loads            atomic.Int64 // loader invocations (deduplicated)
	loadFailures     atomic.Int64 // loader invocations returning an error
	refreshes        atomic.Int64 // successful refresh-ahead reloads
	refreshFailures  atomic.Int64 // failed refresh-ahead reloads
	listenerFailures atomic.Int64 // close listeners returning an error or panicking
}

func newCacheCounters() *cacheCounters {
	return &cacheCounters{}
}

func (c *cacheCounters) snapshot() (hits, misses, loads, loadFailures, refreshes, refreshFailures, listenerFailures int64) {
	return c.hits.Load(), c.misses.Load(), c.loads.Load(), c.loadFailures.Load(),
		c.refreshes.Load(), c.refreshFailures.Load(), c.listenerFailures.Load()
}
