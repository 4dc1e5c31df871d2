package refresh

import "sync/atomic"

type refresherCounters struct {
	scheduled atomic.Int64 // accepted Schedule calls
	refreshed atomic.Int64 // successful refresh invocations
	errors    atomic.Int64 // failed refresh invocations
	cancelled atomic.Int64 // pending tasks dropped by Cancel
}

func newRefresherCounters() *refresherCounters {
	return &refresherCounters{}
}

func (c *refresherCounters) snapshot() (scheduled, refreshed, errors, cancelled int64) {
	scheduled = c.scheduled.Load()
	refreshed = c.refreshed.Load()
	errors = c.errors.Load()
	cancelled = c.cancelled.Load()
	return
}
