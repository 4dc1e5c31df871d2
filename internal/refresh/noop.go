package refresh

import "time"

// NoOp is a Refresher that never schedules anything.
type NoOp[K comparable] struct{}

func (NoOp[K]) Schedule(K, time.Time) {}

func (NoOp[K]) Cancel(K) {}

// Metrics always returns zero values.
func (NoOp[K]) Metrics() (scheduled, refreshed, errors int64) {
	return 0, 0, 0
}

// Pending is always zero.
func (NoOp[K]) Pending() int { return 0 }

// Close does nothing and returns nil.
func (NoOp[K]) Close() error {
	return nil
}
