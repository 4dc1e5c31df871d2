package telemetry

// Sample is the cumulative state of one cache at the time it was taken.
type Sample struct {
	Name     string
	Size     int64
	Capacity int64

	Hits             int64
	Misses           int64
	Loads            int64
	LoadFailures     int64
	Refreshes        int64
	RefreshFailures  int64
	ListenerFailures int64
}

// Source yields samples of every active cache it owns.
type Source interface {
	Samples() []Sample
}

// counters holds the monotonic part of a Sample.
type counters struct {
	hits             uint64
	misses           uint64
	loads            uint64
	loadFailures     uint64
	refreshes        uint64
	refreshFailures  uint64
	listenerFailures uint64
}

func countersOf(s Sample) counters {
	return counters{
		hits:             uint64(max(s.Hits, 0)),
		misses:           uint64(max(s.Misses, 0)),
		loads:            uint64(max(s.Loads, 0)),
		loadFailures:     uint64(max(s.LoadFailures, 0)),
		refreshes:        uint64(max(s.Refreshes, 0)),
		refreshFailures:  uint64(max(s.RefreshFailures, 0)),
		listenerFailures: uint64(max(s.ListenerFailures, 0)),
	}
}

// deltaCounters converts cumulative counters to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaCounters(prev, cur counters) counters {
	return counters{
		hits:             delta(prev.hits, cur.hits),
		misses:           delta(prev.misses, cur.misses),
		loads:            delta(prev.loads, cur.loads),
		loadFailures:     delta(prev.loadFailures, cur.loadFailures),
		refreshes:        delta(prev.refreshes, cur.refreshes),
		refreshFailures:  delta(prev.refreshFailures, cur.refreshFailures),
		listenerFailures: delta(prev.listenerFailures, cur.listenerFailures),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}

func (c counters) hitRatio() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
