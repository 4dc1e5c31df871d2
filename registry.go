package ashcache

import (
	stderrors "errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Registry owns named managers. Most programs use DefaultRegistry.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*Manager

	logger            *slog.Logger
	telemetryInterval time.Duration

	// autoNames disambiguates generated cache names across the whole registry.
	autoNames atomic.Uint64
}

type RegistryOption func(*Registry)

// WithLogger sets the logger inherited by managers and caches.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTelemetryInterval makes every manager log per-cache statistics at the given interval.
func WithTelemetryInterval(interval time.Duration) RegistryOption {
	return func(r *Registry) { r.telemetryInterval = interval }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		managers: make(map[string]*Manager),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry() })

// DefaultRegistry is the process-wide registry used by NewBuilder.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Manager returns the manager with the given name, creating it on first use.
// An empty name selects the default manager. A closed manager is replaced.
func (r *Registry) Manager(name string) *Manager {
	if name == "" {
		name = DefaultManagerName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[name]; ok && !m.IsClosed() {
		return m
	}
	m := newManager(r, name)
	r.managers[name] = m
	return m
}

// Default returns the manager named DefaultManagerName.
func (r *Registry) Default() *Manager {
	return r.Manager(DefaultManagerName)
}

// Managers returns the open managers ordered by name.
func (r *Registry) Managers() []*Manager {
	r.mu.Lock()
	out := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		if !m.IsClosed() {
			out = append(out, m)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Close closes every manager. The registry stays usable afterwards.
func (r *Registry) Close() error {
	var errs []error
	for _, m := range r.Managers() {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (r *Registry) detach(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.managers[m.name]; ok && cur == m {
		delete(r.managers, m.name)
	}
}
