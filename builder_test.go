package ashcache

import (
	"context"
	"fmt"
	"github.com/Borislavv/go-ash-registry/config"
	"github.com/Borislavv/go-ash-registry/internal/storage"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

const testPackage = "github.com.Borislavv.go-ash-registry"

// built from a package-level initializer on the default registry
var initCache, initErr = NewBuilder[string, int]().Build()

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// TestBuild_DefaultManager verifies that caches land in the manager named "default".
func TestBuild_DefaultManager(t *testing.T) {
	r := newTestRegistry(t)

	c, err := ForRegistry[string, int](r).Name("users").Build()
	require.NoError(t, err)
	require.Equal(t, DefaultManagerName, c.Manager().Name())
	require.Same(t, r.Default(), c.Manager())
	require.Equal(t, "users", c.Name())
	require.Equal(t, StateActive, c.State())
	require.False(t, c.IsClosed())
	require.Equal(t, DefaultManagerName, c.Configuration().ManagerName())
}

// TestBuild_AutoName verifies that unnamed caches are named after the calling site.
func TestBuild_AutoName(t *testing.T) {
	r := newTestRegistry(t)

	first, err := ForRegistry[string, int](r).Build()
	require.NoError(t, err)
	second, err := ForRegistry[string, int](r).Build()
	require.NoError(t, err)

	prefix := "_" + testPackage + ".TestBuild_AutoName-"
	require.True(t, strings.HasPrefix(first.Name(), prefix), first.Name())
	require.True(t, strings.HasPrefix(second.Name(), prefix), second.Name())
	require.NotEqual(t, first.Name(), second.Name())
	require.NoError(t, ValidateName(first.Name()))
}

// TestBuild_AutoNameFromInitializer verifies the INIT member for package-level initializers.
func TestBuild_AutoNameFromInitializer(t *testing.T) {
	require.NoError(t, initErr)
	defer initCache.Close()

	require.True(t, strings.HasPrefix(initCache.Name(), "_"+testPackage+".INIT-"), initCache.Name())
	require.Equal(t, MemberInit, initCache.Configuration().Site().Member)
}

// TestBuild_AutoNameFromSite verifies that an explicit site replaces the caller.
func TestBuild_AutoNameFromSite(t *testing.T) {
	r := newTestRegistry(t)

	c, err := ForRegistry[string, int](r).Site(Site{Type: "svc/Users", Member: "cache", Line: 7}).Build()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(c.Name(), "_svc.Users.cache-7-"), c.Name())

	err = ForRegistry[string, int](r).Site(Site{}).Err()
	require.True(t, errors.Is(err, ErrNullReference))
}

// TestBuild_AutoNameSkipsUserNames verifies that automatic names never collide with names a user took first.
func TestBuild_AutoNameSkipsUserNames(t *testing.T) {
	r := newTestRegistry(t)
	site := Site{Type: "pkg", Member: "Fn", Line: 1}

	for seq := uint64(1); seq <= 2; seq++ {
		_, err := ForRegistry[string, int](r).Name(AutoName(site, seq)).Build()
		require.NoError(t, err)
	}

	c, err := ForRegistry[string, int](r).Site(site).Build()
	require.NoError(t, err)
	require.Equal(t, AutoName(site, 3), c.Name())
	require.Equal(t, 3, r.Default().Len())

	// explicit names still fail on collision
	_, err = ForRegistry[string, int](r).Name(AutoName(site, 1)).Build()
	require.True(t, errors.Is(err, ErrDuplicateName))
}

// TestBuild_DuplicateName verifies that a taken name is rejected.
func TestBuild_DuplicateName(t *testing.T) {
	r := newTestRegistry(t)

	_, err := ForRegistry[string, int](r).Name("dup").Build()
	require.NoError(t, err)

	_, err = ForRegistry[string, string](r).Name("dup").Build()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDuplicateName))
	require.True(t, errors.Is(err, ErrInvalidState))
	require.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))

	// same name in another manager is fine
	_, err = ForRegistry[string, int](r).Manager(r.Manager("other")).Name("dup").Build()
	require.NoError(t, err)
}

// TestBuilder_ManagerMustComeFirst verifies the ordering and set-once rules of Manager.
func TestBuilder_ManagerMustComeFirst(t *testing.T) {
	r := newTestRegistry(t)
	m := r.Manager("m")

	b := ForRegistry[string, int](r).EntryCapacity(10).Manager(m)
	require.True(t, errors.Is(b.Err(), ErrInvalidState))
	_, err := b.Build()
	require.True(t, errors.Is(err, ErrInvalidState))

	err = ForRegistry[string, int](r).Manager(m).Manager(m).Err()
	require.True(t, errors.Is(err, ErrInvalidState))

	err = ForRegistry[string, int](r).Manager(nil).Err()
	require.True(t, errors.Is(err, ErrNullReference))

	c, err := ForRegistry[string, int](r).Manager(m).Name("x").Build()
	require.NoError(t, err)
	require.Same(t, m, c.Manager())
}

// TestBuilder_StickyError verifies that the first setter error wins.
func TestBuilder_StickyError(t *testing.T) {
	r := newTestRegistry(t)

	b := ForRegistry[string, int](r).EntryCapacity(-1).Name("bad/name").LoaderFunc(nil)
	require.True(t, errors.Is(b.Err(), ErrInvalidConfiguration))
	require.Contains(t, b.Err().Error(), "entry capacity")

	_, err := b.Configuration()
	require.Equal(t, b.Err(), err)
	_, err = b.Build()
	require.Equal(t, b.Err(), err)
}

// TestBuild_EntryCapacity verifies explicit, default and maximum capacities.
func TestBuild_EntryCapacity(t *testing.T) {
	r := newTestRegistry(t)

	for _, tc := range []struct {
		name     string
		set      bool
		capacity int64
		want     int64
	}{
		{name: "explicit", set: true, capacity: 10, want: 10},
		{name: "default", want: DefaultEntryCapacity},
		{name: "unbounded", set: true, capacity: math.MaxInt64, want: math.MaxInt64},
	} {
		b := ForRegistry[string, int](r).Name(tc.name)
		if tc.set {
			b.EntryCapacity(tc.capacity)
		}
		c, err := b.Build()
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, c.Configuration().EntryCapacity(), tc.name)
		require.Equal(t, tc.want, c.Info().Capacity, tc.name)
	}
	require.Equal(t, int64(2000), DefaultEntryCapacity)
}

// TestBuilder_IllegalNames verifies that names with illegal characters are rejected at the setter.
func TestBuilder_IllegalNames(t *testing.T) {
	r := newTestRegistry(t)

	illegal := []string{"{", "}", "|", "\\", "^", "&", "=", "\"", "'", ";", ":", "<", ">", "*", "?", "/",
		"\x1b", "\x7f", "\u0080", "ä", "ß", "à", "\ufefe"}
	for _, s := range illegal {
		err := ForRegistry[string, int](r).Name("a" + s + "b").Err()
		require.True(t, errors.Is(err, ErrInvalidConfiguration), "%q", s)
	}
	require.True(t, errors.Is(ForRegistry[string, int](r).Name("").Err(), ErrInvalidConfiguration))
	require.Zero(t, r.Default().Len())
}

// TestBuild_LegalName verifies the full legal punctuation set.
func TestBuild_LegalName(t *testing.T) {
	r := newTestRegistry(t)

	c, err := ForRegistry[string, int](r).Name(".~,@ ()$-_abcABC0123").Build()
	require.NoError(t, err)
	require.Equal(t, ".~,@ ()$-_abcABC0123", c.Name())
}

// TestBuild_QualifiedNames verifies owner based naming with and without a base.
func TestBuild_QualifiedNames(t *testing.T) {
	r := newTestRegistry(t)
	owner := reflect.TypeFor[nameOwner]()

	c, err := ForRegistry[string, int](r).NameWithBase("svc", owner, "byID").Build()
	require.NoError(t, err)
	require.Equal(t, "svc~"+testPackage+".nameOwner.byID", c.Name())

	c, err = ForRegistry[string, int](r).NameFor(owner, "byName").Build()
	require.NoError(t, err)
	require.Equal(t, testPackage+".nameOwner.byName", c.Name())

	err = ForRegistry[string, int](r).NameFor(nil, "x").Err()
	require.True(t, errors.Is(err, ErrNullReference))
	err = ForRegistry[string, int](r).NameFor(owner, "").Err()
	require.True(t, errors.Is(err, ErrNullReference))
}

// TestBuild_ArrayTypesRejected verifies that array and slice descriptors can't build.
func TestBuild_ArrayTypesRejected(t *testing.T) {
	r := newTestRegistry(t)

	_, err := ForRegistry[[2]int, string](r).Name("arrayKey").Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = ForRegistry[string, []int](r).Name("sliceValue").Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	err = ForRegistry[any, any](r).KeyType(reflect.TypeFor[[]string]()).Err()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	require.Zero(t, r.Default().Len(), "failed builds must not leave names behind")
	_, err = ForRegistry[string, int](r).Name("arrayKey").Build()
	require.NoError(t, err)
}

// TestBuilder_TypeDescriptors verifies typed and untyped descriptors.
func TestBuilder_TypeDescriptors(t *testing.T) {
	cfg, err := NewBuilder[string, int]().Configuration()
	require.NoError(t, err)
	require.Equal(t, reflect.TypeFor[string](), cfg.KeyType())
	require.Equal(t, reflect.TypeFor[int](), cfg.ValueType())

	untyped, err := ForUnknownTypes().Configuration()
	require.NoError(t, err)
	require.Nil(t, untyped.KeyType())
	require.Nil(t, untyped.ValueType())

	untyped, err = ForUnknownTypes().KeyType(reflect.TypeFor[string]()).ValueType(reflect.TypeFor[time.Time]()).Configuration()
	require.NoError(t, err)
	require.Equal(t, reflect.TypeFor[string](), untyped.KeyType())
	require.Equal(t, reflect.TypeFor[time.Time](), untyped.ValueType())

	err = NewBuilder[string, int]().KeyType(nil).Err()
	require.True(t, errors.Is(err, ErrNullReference))

	err = NewBuilder[string, int]().KeyType(reflect.TypeFor[int]()).Err()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))
}

// TestBuilder_ConfigurationIsDryRun verifies that Configuration never registers anything.
func TestBuilder_ConfigurationIsDryRun(t *testing.T) {
	r := newTestRegistry(t)

	propagator := func(key string, err error) error { return fmt.Errorf("wrapped %s: %w", key, err) }
	cfg, err := ForRegistry[string, int](r).
		Name("dry").
		ExceptionPropagator(propagator).
		StoreByReference(true).
		ExpireAfterWrite(time.Minute).
		Configuration()
	require.NoError(t, err)
	require.Equal(t, "dry", cfg.Name())
	require.NotNil(t, cfg.ExceptionPropagator())
	require.EqualError(t, cfg.ExceptionPropagator()("k", io.EOF), "wrapped k: EOF")
	require.True(t, cfg.StoreByReference())
	require.Equal(t, time.Minute, cfg.ExpireAfterWrite())
	require.Equal(t, EngineSharded, cfg.Engine())

	require.Zero(t, r.Default().Len())
	_, err = ForRegistry[string, int](r).Name("dry").Build()
	require.NoError(t, err)
}

// TestBuild_RefreshAheadRequirements verifies the loader and expiry coupling.
func TestBuild_RefreshAheadRequirements(t *testing.T) {
	r := newTestRegistry(t)
	loader := func(context.Context, string) (int, error) { return 1, nil }

	_, err := ForRegistry[string, int](r).Name("a").ExpireAfterWrite(time.Minute).RefreshAhead(true).Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = ForRegistry[string, int](r).Name("b").LoaderFunc(loader).RefreshAhead(true).Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = ForRegistry[string, int](r).Name("c").LoaderFunc(loader).Eternal(true).RefreshAhead(true).Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	c, err := ForRegistry[string, int](r).Name("d").LoaderFunc(loader).ExpireAfterWrite(time.Minute).RefreshAhead(true).Build()
	require.NoError(t, err)
	require.True(t, c.Info().Wired)
}

// TestBuild_EternalWithExpiry verifies that contradicting lifetimes are rejected.
func TestBuild_EternalWithExpiry(t *testing.T) {
	r := newTestRegistry(t)

	_, err := ForRegistry[string, int](r).Name("x").Eternal(true).ExpireAfterWrite(time.Second).Build()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))

	c, err := ForRegistry[string, int](r).Name("x").Eternal(true).Build()
	require.NoError(t, err)
	require.True(t, c.Configuration().Eternal())
}

// TestBuilder_NullArguments verifies nil checks of every reference setter.
func TestBuilder_NullArguments(t *testing.T) {
	r := newTestRegistry(t)
	nb := func() *Builder[string, int] { return ForRegistry[string, int](r) }

	for name, err := range map[string]error{
		"loader":       nb().Loader(nil).Err(),
		"loaderFunc":   nb().LoaderFunc(nil).Err(),
		"propagator":   nb().ExceptionPropagator(nil).Err(),
		"close":        nb().AddCloseListener(nil).Err(),
		"entry":        nb().AddEntryListener(nil).Err(),
		"logger":       nb().Logger(nil).Err(),
		"clock":        nb().Clock(nil).Err(),
		"apply":        nb().Apply(nil).Err(),
		"registry":     ForRegistry[string, int](nil).Err(),
	} {
		require.True(t, errors.Is(err, ErrNullReference), name)
	}

	require.True(t, errors.Is(nb().ExpireAfterWrite(-time.Second).Err(), ErrInvalidConfiguration))
	require.True(t, errors.Is(nb().RefreshRate(-1).Err(), ErrInvalidConfiguration))
	require.True(t, errors.Is(nb().Engine("bogus").Err(), ErrInvalidConfiguration))
}

// TestBuilder_Apply verifies that YAML cache definitions feed the builder.
func TestBuilder_Apply(t *testing.T) {
	r := newTestRegistry(t)

	doc, err := config.Parse([]byte(`
managers:
  - name: api
    caches:
      - name: users
        entry_capacity: 9223372036854775807
        expire_after_write: 1m
        store_by_reference: true
        engine: ristretto
`))
	require.NoError(t, err)

	def := doc.Managers[0]
	c, err := ForRegistry[string, int](r).Manager(r.Manager(def.Name)).Apply(&def.Caches[0]).Build()
	require.NoError(t, err)

	cfg := c.Configuration()
	require.Equal(t, "users", c.Name())
	require.Equal(t, "api", c.Manager().Name())
	require.Equal(t, int64(math.MaxInt64), cfg.EntryCapacity())
	require.Equal(t, time.Minute, cfg.ExpireAfterWrite())
	require.True(t, cfg.StoreByReference())
	require.Equal(t, EngineRistretto, cfg.Engine())
	require.Equal(t, int64(math.MaxInt64), c.Info().Capacity)

	err = ForRegistry[string, int](r).Apply(&config.Cache{Engine: "bogus"}).Err()
	require.True(t, errors.Is(err, ErrInvalidConfiguration))
}

// TestBuild_ConcurrentSameName verifies that exactly one of many racing builds wins.
func TestBuild_ConcurrentSameName(t *testing.T) {
	r := newTestRegistry(t)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Go(func() {
			_, err := ForRegistry[string, int](r).Name("race").Build()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrDuplicateName):
				dups++
			}
		})
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, n-1, dups)
	require.Equal(t, 1, r.Default().Len())
}

// TestBuild_AssemblyFailureReleasesName verifies that a failed engine frees the reservation.
func TestBuild_AssemblyFailureReleasesName(t *testing.T) {
	r := newTestRegistry(t)

	_, err := ForRegistry[string, int](r).Name("x").Engine(EngineRistretto).EntryCapacity(0).Build()
	require.Error(t, err)

	_, ok := r.Default().Lookup("x")
	require.False(t, ok)

	c, err := ForRegistry[string, int](r).Name("x").Build()
	require.NoError(t, err)
	require.Equal(t, "x", c.Name())
}

// TestBuild_AssemblyPanicReleasesName verifies that the reservation is freed on panic.
func TestBuild_AssemblyPanicReleasesName(t *testing.T) {
	r := newTestRegistry(t)

	b := ForRegistry[string, int](r).Name("boom")
	b.cfg.newEngine = func(EngineKind, storage.Options) (storage.Engine[string, int], error) {
		panic("engine exploded")
	}
	require.Panics(t, func() { _, _ = b.Build() })

	_, err := ForRegistry[string, int](r).Name("boom").Build()
	require.NoError(t, err)
}

// TestBuild_CommitAfterManagerClose verifies that a build racing a manager close fails cleanly.
func TestBuild_CommitAfterManagerClose(t *testing.T) {
	r := newTestRegistry(t)
	m := r.Manager("closing")

	var engine storage.Engine[string, int]
	b := ForRegistry[string, int](r).Manager(m).Name("late")
	b.cfg.newEngine = func(kind EngineKind, opts storage.Options) (storage.Engine[string, int], error) {
		require.NoError(t, m.Close())
		e, err := storage.New[string, int](kind, opts)
		engine = e
		return e, err
	}

	_, err := b.Build()
	require.True(t, errors.Is(err, ErrInvalidState))
	require.NotNil(t, engine)
	require.Zero(t, m.Len())
	require.NotSame(t, m, r.Manager("closing"))
}
