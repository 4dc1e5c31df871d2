package ashcache

import (
	"context"
	stderrors "errors"
	"fmt"
	"github.com/Borislavv/go-ash-registry/internal/telemetry"
	"iter"
	"log/slog"
	"sort"
	"sync"
)

// Manager is a named scope holding uniquely named caches.
type Manager struct {
	name     string
	registry *Registry
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	seq    uint64
	table  map[string]*slot

	telemetry telemetry.Logger
}

// slot is a taken name. handle stays nil until the reservation is committed.
type slot struct {
	seq    uint64
	handle Handle
}

func newManager(r *Registry, name string) *Manager {
	m := &Manager{
		name:     name,
		registry: r,
		logger:   r.logger.With("manager", name),
		table:    make(map[string]*slot),
	}
	m.telemetry = telemetry.New(context.Background(), m.logger, m, r.telemetryInterval, nil)
	return m
}

func (m *Manager) Name() string { return m.name }

// Registry is the registry the manager belongs to.
func (m *Manager) Registry() *Registry { return m.registry }

func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// reservation holds a name between validation and commit. Its fields are
// guarded by the manager lock.
type reservation struct {
	m    *Manager
	name string
	slot *slot
	done bool
}

func (m *Manager) reserve(name string) (*reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, invalidStatef("manager %q is closed, can't create cache %q", m.name, name)
	}
	if _, taken := m.table[name]; taken {
		return nil, duplicateNamef("cache %q already exists in manager %q", name, m.name)
	}

	m.seq++
	s := &slot{seq: m.seq}
	m.table[name] = s
	return &reservation{m: m, name: name, slot: s}, nil
}

// commit publishes h under the reserved name.
func (r *reservation) commit(h Handle) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.done {
		return invalidStatef("reservation of %q already finished", r.name)
	}
	r.done = true

	if m.closed {
		m.dropUnlocked(r.name, r.slot)
		return invalidStatef("manager %q closed while cache %q was being built", m.name, r.name)
	}
	r.slot.handle = h
	return nil
}

// release frees the name unless the reservation was committed.
func (r *reservation) release() {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	m.dropUnlocked(r.name, r.slot)
}

func (m *Manager) dropUnlocked(name string, s *slot) {
	if cur, ok := m.table[name]; ok && cur == s {
		delete(m.table, name)
	}
}

// remove frees name only while it still refers to h.
func (m *Manager) remove(name string, h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.table[name]; ok && s.handle == h {
		delete(m.table, name)
	}
}

// committed returns every committed handle ordered by creation.
func (m *Manager) committed() []Handle {
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.table))
	for _, s := range m.table {
		if s.handle != nil {
			slots = append(slots, s)
		}
	}
	m.mu.RUnlock()

	sort.Slice(slots, func(i, j int) bool { return slots[i].seq < slots[j].seq })

	out := make([]Handle, len(slots))
	for i, s := range slots {
		out[i] = s.handle
	}
	return out
}

// ActiveCaches yields the caches that were active when it was called, in
// creation order. The sequence can be ranged over more than once.
func (m *Manager) ActiveCaches() iter.Seq[Handle] {
	var active []Handle
	for _, h := range m.committed() {
		if h.State() == StateActive {
			active = append(active, h)
		}
	}
	return func(yield func(Handle) bool) {
		for _, h := range active {
			if !yield(h) {
				return
			}
		}
	}
}

// Lookup finds an active cache by name.
func (m *Manager) Lookup(name string) (Handle, bool) {
	m.mu.RLock()
	s, ok := m.table[name]
	m.mu.RUnlock()

	if !ok || s.handle == nil || s.handle.State() != StateActive {
		return nil, false
	}
	return s.handle, true
}

// Len is the number of active caches.
func (m *Manager) Len() int {
	n := 0
	for range m.ActiveCaches() {
		n++
	}
	return n
}

// Close closes every cache of the manager and detaches it from its registry.
// Later builds against this manager fail with ErrInvalidState.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	handles := m.committed()

	var errs []error
	for _, h := range handles {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache %q: %w", h.Name(), err))
		}
	}
	_ = m.telemetry.Close()
	m.registry.detach(m)

	m.logger.Info("manager is closed", "caches", len(handles))
	return stderrors.Join(errs...)
}

// Samples feeds the telemetry loop.
func (m *Manager) Samples() []telemetry.Sample {
	var out []telemetry.Sample
	for h := range m.ActiveCaches() {
		info := h.Info()
		out = append(out, telemetry.Sample{
			Name:             info.Name,
			Size:             info.Size,
			Capacity:         info.Capacity,
			Hits:             info.Hits,
			Misses:           info.Misses,
			Loads:            info.Loads,
			LoadFailures:     info.LoadFailures,
			Refreshes:        info.Refreshes,
			RefreshFailures:  info.RefreshFailures,
			ListenerFailures: info.ListenerFailures,
		})
	}
	return out
}

func (m *Manager) String() string {
	return fmt.Sprintf("Manager(%s)", m.name)
}
