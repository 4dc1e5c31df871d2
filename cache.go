package ashcache

import (
	"context"
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"reflect"
)

// State is the lifecycle position of a cache instance.
type State int32

const (
	StateBuilding State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EngineKind selects the storage engine behind a cache.
type EngineKind = storage.Kind

const (
	EngineSharded   = storage.KindSharded
	EngineRistretto = storage.KindRistretto
)

// Handle is the type-erased view of a cache a Manager keeps.
type Handle interface {
	Name() string
	Manager() *Manager
	State() State
	IsClosed() bool
	Info() Info
	// Close is idempotent. Close listener failures are not returned.
	Close() error
}

type Cache[K comparable, V any] interface {
	Handle
	Configuration() *Configuration[K, V]
	// Get returns the cached value, loading it when a loader is configured.
	// Without a loader a miss returns ErrNotFound. Concurrent misses share one
	// load; a caller whose ctx is done gets ctx.Err() while the load goes on
	// for the others.
	Get(ctx context.Context, key K) (V, error)
	// Peek never loads.
	Peek(key K) (V, bool)
	Put(ctx context.Context, key K, value V) error
	Remove(ctx context.Context, key K) error
	Clear(ctx context.Context) error
	Len() int64
}

type Loader[K comparable, V any] interface {
	Load(ctx context.Context, key K) (V, error)
}

type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) { return f(ctx, key) }

// ExceptionPropagator turns a loader failure into the error returned to the caller.
type ExceptionPropagator[K comparable] func(key K, err error) error

type CloseListener[K comparable, V any] func(c Cache[K, V]) error

type EntryListener[K comparable, V any] interface {
	OnEntryCreated(c Cache[K, V], key K, value V)
	OnEntryUpdated(c Cache[K, V], key K, old, value V)
	OnEntryRemoved(c Cache[K, V], key K, value V)
}

// EntryListenerFuncs adapts plain functions to EntryListener, nil fields are skipped.
type EntryListenerFuncs[K comparable, V any] struct {
	Created func(c Cache[K, V], key K, value V)
	Updated func(c Cache[K, V], key K, old, value V)
	Removed func(c Cache[K, V], key K, value V)
}

func (f EntryListenerFuncs[K, V]) OnEntryCreated(c Cache[K, V], key K, value V) {
	if f.Created != nil {
		f.Created(c, key, value)
	}
}

func (f EntryListenerFuncs[K, V]) OnEntryUpdated(c Cache[K, V], key K, old, value V) {
	if f.Updated != nil {
		f.Updated(c, key, old, value)
	}
}

func (f EntryListenerFuncs[K, V]) OnEntryRemoved(c Cache[K, V], key K, value V) {
	if f.Removed != nil {
		f.Removed(c, key, value)
	}
}

// Info is a point-in-time description of a cache.
type Info struct {
	Name      string
	Manager   string
	State     State
	Wired     bool
	Engine    EngineKind
	KeyType   reflect.Type
	ValueType reflect.Type
	Capacity  int64
	Size      int64

	Hits             int64
	Misses           int64
	Loads            int64
	LoadFailures     int64
	Refreshes        int64
	RefreshFailures  int64
	ListenerFailures int64
}
