package ashcache

import (
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"github.com/benbjohnson/clock"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"time"
)

const (
	// DefaultEntryCapacity applies when EntryCapacity is never set.
	DefaultEntryCapacity int64 = 2000
	// Unbounded is the largest capacity a cache accepts.
	Unbounded int64 = math.MaxInt64
	// DefaultManagerName is the name of Registry.Default().
	DefaultManagerName = "default"
)

type engineFactory[K comparable, V any] func(kind EngineKind, opts storage.Options) (storage.Engine[K, V], error)

// Configuration is the immutable snapshot a cache is built from.
type Configuration[K comparable, V any] struct {
	name             string
	site             Site
	managerName      string
	keyType          reflect.Type
	valueType        reflect.Type
	entryCapacity    int64
	eternal          bool
	expireAfterWrite time.Duration
	refreshAhead     bool
	refreshRate      int
	storeByReference bool
	engine           EngineKind
	loader           Loader[K, V]
	propagator       ExceptionPropagator[K]
	closeListeners   []CloseListener[K, V]
	entryListeners   []EntryListener[K, V]
	logger           *slog.Logger
	clock            clock.Clock

	newEngine  engineFactory[K, V]
	forceWired bool
}

// Name is the resolved cache name. On a dry-run snapshot without an explicit
// name it is empty, since auto names are only allocated by Build.
func (c *Configuration[K, V]) Name() string { return c.name }

// Site is the construction context used for auto naming.
func (c *Configuration[K, V]) Site() Site { return c.site }

// ManagerName is empty when the default manager applies.
func (c *Configuration[K, V]) ManagerName() string { return c.managerName }

// KeyType is nil when the key type is unknown.
func (c *Configuration[K, V]) KeyType() reflect.Type { return c.keyType }

// ValueType is nil when the value type is unknown.
func (c *Configuration[K, V]) ValueType() reflect.Type { return c.valueType }

func (c *Configuration[K, V]) EntryCapacity() int64 { return c.entryCapacity }

func (c *Configuration[K, V]) Eternal() bool { return c.eternal }

// ExpireAfterWrite is zero when entries don't expire.
func (c *Configuration[K, V]) ExpireAfterWrite() time.Duration { return c.expireAfterWrite }

func (c *Configuration[K, V]) RefreshAhead() bool { return c.refreshAhead }

func (c *Configuration[K, V]) RefreshRate() int { return c.refreshRate }

func (c *Configuration[K, V]) StoreByReference() bool { return c.storeByReference }

func (c *Configuration[K, V]) Engine() EngineKind {
	if c.engine == "" {
		return EngineSharded
	}
	return c.engine
}

func (c *Configuration[K, V]) Loader() Loader[K, V] { return c.loader }

func (c *Configuration[K, V]) ExceptionPropagator() ExceptionPropagator[K] { return c.propagator }

func (c *Configuration[K, V]) CloseListeners() []CloseListener[K, V] {
	return slices.Clone(c.closeListeners)
}

func (c *Configuration[K, V]) EntryListeners() []EntryListener[K, V] {
	return slices.Clone(c.entryListeners)
}

// ttl is the per-entry lifetime handed to the engine, 0 for eternal entries.
func (c *Configuration[K, V]) ttl() time.Duration {
	if c.eternal || c.expireAfterWrite <= 0 {
		return 0
	}
	return c.expireAfterWrite
}

// validate checks the cross-option invariants that single setters can't see.
func (c *Configuration[K, V]) validate() error {
	if err := checkTypeDescriptor("key", c.keyType); err != nil {
		return err
	}
	if err := checkTypeDescriptor("value", c.valueType); err != nil {
		return err
	}
	if c.eternal && c.expireAfterWrite > 0 {
		return invalidConfigf("eternal caches can't have a finite expiry (%s)", c.expireAfterWrite)
	}
	if c.refreshAhead {
		if c.loader == nil {
			return invalidConfigf("refresh ahead requires a loader")
		}
		if c.ttl() == 0 {
			return invalidConfigf("refresh ahead requires a finite expiry")
		}
	}
	if !storage.Valid(c.engine) {
		return invalidConfigf("unknown engine %q", c.engine)
	}
	return nil
}

func checkTypeDescriptor(role string, t reflect.Type) error {
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		return invalidConfigf("%s type %s: array and slice types are not supported", role, t)
	}
	return nil
}

func (c *Configuration[K, V]) clone() *Configuration[K, V] {
	cp := *c
	cp.closeListeners = slices.Clone(c.closeListeners)
	cp.entryListeners = slices.Clone(c.entryListeners)
	return &cp
}
