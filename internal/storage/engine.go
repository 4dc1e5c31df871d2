// Package storage holds the entry storage and eviction engines a cache instance
// is assembled around. Engines are pure in-memory data structures: they never
// call back into the cache layer and never block on anything but their own locks.
package storage

import (
	"errors"
	"fmt"
	"github.com/benbjohnson/clock"
	"time"
)

//go:generate mockgen -destination=mocks/engine.go -package=mocks . Engine

// Kind names an engine implementation.
type Kind string

const (
	// KindSharded is a sharded map with per-shard LRU lists and an exact entry bound.
	KindSharded Kind = "sharded"

	// KindRistretto is backed by dgraph-io/ristretto (TinyLFU admission, sampled LFU eviction).
	KindRistretto Kind = "ristretto"
)

var ErrUnknownKind = errors.New("unknown storage engine kind")

// Engine stores entries for exactly one cache instance.
//
// A ttl <= 0 passed to Put means the entry never expires.
type Engine[K comparable, V any] interface {
	Get(key K) (value V, ok bool)
	Put(key K, value V, ttl time.Duration) (old V, replaced bool)
	Remove(key K) (old V, ok bool)
	Clear()
	Len() int64
	Capacity() int64
	Close() error
}

type Options struct {
	// Capacity is the maximum number of entries. Zero means nothing is retained.
	Capacity int64

	// Clock drives lazy expiry. Defaults to the wall clock.
	Clock clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// Valid reports whether kind names a known engine. The empty kind selects the default.
func Valid(kind Kind) bool {
	switch kind {
	case "", KindSharded, KindRistretto:
		return true
	default:
		return false
	}
}

// New creates an engine of the given kind.
func New[K comparable, V any](kind Kind, opts Options) (Engine[K, V], error) {
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("engine capacity must be >= 0, got %d", opts.Capacity)
	}
	opts = opts.withDefaults()

	switch kind {
	case "", KindSharded:
		return NewSharded[K, V](opts), nil
	case KindRistretto:
		return NewRistretto[K, V](opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
