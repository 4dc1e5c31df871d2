package ashcache

import (
	"context"
	"github.com/Borislavv/go-ash-registry/config"
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"github.com/benbjohnson/clock"
	"github.com/jmgilman/go/errors"
	"log/slog"
	"reflect"
	"time"
)

// Builder accumulates cache options. The first failing setter is remembered,
// later setters are ignored and Err, Configuration and Build report it.
//
// A Builder is not safe for concurrent use.
type Builder[K comparable, V any] struct {
	registry *Registry
	manager  *Manager
	touched  bool
	name     string
	site     *Site
	cfg      Configuration[K, V]
	err      error
}

// NewBuilder starts a builder on the default registry with key and value
// types taken from the type parameters. Interface types count as unknown.
func NewBuilder[K comparable, V any]() *Builder[K, V] {
	return ForRegistry[K, V](DefaultRegistry())
}

// ForRegistry starts a builder whose default manager comes from r.
func ForRegistry[K comparable, V any](r *Registry) *Builder[K, V] {
	b := &Builder[K, V]{
		registry: r,
		cfg: Configuration[K, V]{
			keyType:       typeOf[K](),
			valueType:     typeOf[V](),
			entryCapacity: DefaultEntryCapacity,
		},
	}
	if r == nil {
		b.err = nullReferencef("registry is required")
	}
	return b
}

// ForUnknownTypes starts an untyped builder; descriptors come from KeyType and ValueType.
func ForUnknownTypes() *Builder[any, any] {
	return NewBuilder[any, any]()
}

func typeOf[T any]() reflect.Type {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Interface {
		return nil
	}
	return t
}

func (b *Builder[K, V]) set(fn func() error) *Builder[K, V] {
	b.touched = true
	if b.err == nil {
		b.err = fn()
	}
	return b
}

// Err returns the first setter failure, if any.
func (b *Builder[K, V]) Err() error { return b.err }

// Manager selects the manager. It must be the first option and can be set once.
func (b *Builder[K, V]) Manager(m *Manager) *Builder[K, V] {
	if b.err != nil {
		return b
	}
	switch {
	case m == nil:
		b.err = nullReferencef("manager is required")
	case b.manager != nil:
		b.err = invalidStatef("manager is already set to %q", b.manager.Name())
	case b.touched:
		b.err = invalidStatef("manager must be set before any other option")
	default:
		b.manager = m
		b.registry = m.registry
	}
	return b
}

func (b *Builder[K, V]) Name(name string) *Builder[K, V] {
	return b.set(func() error {
		if err := ValidateName(name); err != nil {
			return err
		}
		b.name = name
		return nil
	})
}

// NameFor names the cache after a member of owner, see QualifiedName.
func (b *Builder[K, V]) NameFor(owner reflect.Type, member string) *Builder[K, V] {
	return b.NameWithBase("", owner, member)
}

func (b *Builder[K, V]) NameWithBase(base string, owner reflect.Type, member string) *Builder[K, V] {
	return b.set(func() error {
		name, err := QualifiedName(base, owner, member)
		if err != nil {
			return err
		}
		if err = ValidateName(name); err != nil {
			return err
		}
		b.name = name
		return nil
	})
}

// Site sets the construction context used for an automatic name.
func (b *Builder[K, V]) Site(site Site) *Builder[K, V] {
	return b.set(func() error {
		if site.Type == "" || site.Member == "" {
			return nullReferencef("site needs a type and a member")
		}
		b.site = &site
		return nil
	})
}

func (b *Builder[K, V]) KeyType(t reflect.Type) *Builder[K, V] {
	return b.set(func() error {
		if err := checkDescriptor[K]("key", t); err != nil {
			return err
		}
		b.cfg.keyType = t
		return nil
	})
}

func (b *Builder[K, V]) ValueType(t reflect.Type) *Builder[K, V] {
	return b.set(func() error {
		if err := checkDescriptor[V]("value", t); err != nil {
			return err
		}
		b.cfg.valueType = t
		return nil
	})
}

func checkDescriptor[T any](role string, t reflect.Type) error {
	if t == nil {
		return nullReferencef("%s type is required", role)
	}
	if err := checkTypeDescriptor(role, t); err != nil {
		return err
	}
	if want := reflect.TypeFor[T](); !t.AssignableTo(want) {
		return invalidConfigf("%s type %s doesn't match %s", role, t, want)
	}
	return nil
}

// EntryCapacity bounds the number of entries. Use Unbounded for no practical limit.
func (b *Builder[K, V]) EntryCapacity(n int64) *Builder[K, V] {
	return b.set(func() error {
		if n < 0 {
			return invalidConfigf("entry capacity must be >= 0, got %d", n)
		}
		b.cfg.entryCapacity = n
		return nil
	})
}

func (b *Builder[K, V]) Eternal(eternal bool) *Builder[K, V] {
	return b.set(func() error {
		b.cfg.eternal = eternal
		return nil
	})
}

// ExpireAfterWrite sets the entry lifetime. Zero disables expiry.
func (b *Builder[K, V]) ExpireAfterWrite(d time.Duration) *Builder[K, V] {
	return b.set(func() error {
		if d < 0 {
			return invalidConfigf("expire after write must be >= 0, got %s", d)
		}
		b.cfg.expireAfterWrite = d
		return nil
	})
}

// RefreshAhead reloads entries before they expire. Build checks that a loader
// and a finite expiry are configured.
func (b *Builder[K, V]) RefreshAhead(enabled bool) *Builder[K, V] {
	return b.set(func() error {
		b.cfg.refreshAhead = enabled
		return nil
	})
}

// RefreshRate bounds refresh loads per second, 0 means unbounded.
func (b *Builder[K, V]) RefreshRate(perSecond int) *Builder[K, V] {
	return b.set(func() error {
		if perSecond < 0 {
			return invalidConfigf("refresh rate must be >= 0, got %d", perSecond)
		}
		b.cfg.refreshRate = perSecond
		return nil
	})
}

func (b *Builder[K, V]) Loader(l Loader[K, V]) *Builder[K, V] {
	return b.set(func() error {
		if l == nil {
			return nullReferencef("loader is required")
		}
		b.cfg.loader = l
		return nil
	})
}

func (b *Builder[K, V]) LoaderFunc(fn func(ctx context.Context, key K) (V, error)) *Builder[K, V] {
	if fn == nil {
		return b.set(func() error { return nullReferencef("loader is required") })
	}
	return b.Loader(LoaderFunc[K, V](fn))
}

func (b *Builder[K, V]) ExceptionPropagator(p ExceptionPropagator[K]) *Builder[K, V] {
	return b.set(func() error {
		if p == nil {
			return nullReferencef("exception propagator is required")
		}
		b.cfg.propagator = p
		return nil
	})
}

func (b *Builder[K, V]) StoreByReference(byRef bool) *Builder[K, V] {
	return b.set(func() error {
		b.cfg.storeByReference = byRef
		return nil
	})
}

func (b *Builder[K, V]) AddCloseListener(l CloseListener[K, V]) *Builder[K, V] {
	return b.set(func() error {
		if l == nil {
			return nullReferencef("close listener is required")
		}
		b.cfg.closeListeners = append(b.cfg.closeListeners, l)
		return nil
	})
}

func (b *Builder[K, V]) AddEntryListener(l EntryListener[K, V]) *Builder[K, V] {
	return b.set(func() error {
		if l == nil {
			return nullReferencef("entry listener is required")
		}
		b.cfg.entryListeners = append(b.cfg.entryListeners, l)
		return nil
	})
}

func (b *Builder[K, V]) Engine(kind EngineKind) *Builder[K, V] {
	return b.set(func() error {
		if !storage.Valid(kind) {
			return invalidConfigf("unknown engine %q", kind)
		}
		b.cfg.engine = kind
		return nil
	})
}

func (b *Builder[K, V]) Logger(logger *slog.Logger) *Builder[K, V] {
	return b.set(func() error {
		if logger == nil {
			return nullReferencef("logger is required")
		}
		b.cfg.logger = logger
		return nil
	})
}

// Clock drives expiry and refresh timing.
func (b *Builder[K, V]) Clock(clk clock.Clock) *Builder[K, V] {
	return b.set(func() error {
		if clk == nil {
			return nullReferencef("clock is required")
		}
		b.cfg.clock = clk
		return nil
	})
}

// Apply copies the options set in a YAML cache definition. Zero fields leave
// the builder untouched.
func (b *Builder[K, V]) Apply(c *config.Cache) *Builder[K, V] {
	if c == nil {
		return b.set(func() error { return nullReferencef("cache definition is required") })
	}
	if c.Name != "" {
		b.Name(c.Name)
	}
	if capacity, ok := c.Capacity(); ok {
		b.EntryCapacity(capacity)
	}
	if c.Engine != "" {
		b.Engine(EngineKind(c.Engine))
	}
	if c.Eternal {
		b.Eternal(true)
	}
	if c.ExpireAfterWrite != 0 {
		b.ExpireAfterWrite(c.ExpireAfterWrite)
	}
	if c.RefreshAhead {
		b.RefreshAhead(true)
	}
	if c.RefreshRate != 0 {
		b.RefreshRate(c.RefreshRate)
	}
	if c.StoreByReference {
		b.StoreByReference(true)
	}
	return b
}

// snapshot copies the draft and fills in defaults.
func (b *Builder[K, V]) snapshot() *Configuration[K, V] {
	cfg := b.cfg.clone()
	cfg.name = b.name
	if b.site != nil {
		cfg.site = *b.site
	}
	if b.manager != nil {
		cfg.managerName = b.manager.Name()
	}
	if cfg.logger == nil {
		cfg.logger = b.registry.logger
	}
	if cfg.clock == nil {
		cfg.clock = clock.New()
	}
	return cfg
}

// Configuration validates the options and returns the snapshot Build would use,
// without touching any manager. An automatic name is not allocated.
func (b *Builder[K, V]) Configuration() (*Configuration[K, V], error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.snapshot()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Build validates the options, claims the name in the manager and returns an
// active cache. Without a Name or Site the caller's location is used for an
// automatic name.
func (b *Builder[K, V]) Build() (Cache[K, V], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" && b.site == nil {
		site, ok := CallerSite(1)
		if !ok {
			site = Site{Type: "unknown", Member: MemberInit}
		}
		b.site = &site
		defer func() { b.site = nil }()
	}
	return b.build()
}

func (b *Builder[K, V]) build() (Cache[K, V], error) {
	cfg := b.snapshot()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := b.manager
	if m == nil {
		m = b.registry.Default()
	}

	name, res, err := b.claimName(m, cfg.site)
	if err != nil {
		return nil, err
	}
	defer res.release()
	cfg.name = name
	cfg.managerName = m.Name()

	c, err := assemble(m, cfg)
	if err != nil {
		return nil, err
	}

	c.activate()
	if err = res.commit(c); err != nil {
		_ = c.discard()
		return nil, err
	}

	cfg.logger.Info("cache is built",
		"cache", name,
		"manager", m.Name(),
		"wired", !featuresOf(cfg).empty() || cfg.forceWired,
		"engine", string(cfg.Engine()),
		"capacity", cfg.entryCapacity,
	)
	return c, nil
}

// claimName reserves the explicit name, or the first automatic name for site
// that no user-chosen name already holds.
func (b *Builder[K, V]) claimName(m *Manager, site Site) (string, *reservation, error) {
	for {
		name, err := resolveName(b.name, site, &m.registry.autoNames)
		if err != nil {
			return "", nil, err
		}
		res, err := m.reserve(name)
		if err != nil && b.name == "" && errors.Is(err, ErrDuplicateName) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return name, res, nil
	}
}
