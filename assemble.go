package ashcache

import (
	"fmt"
	"github.com/Borislavv/go-ash-registry/internal/storage"
)

// instance is a cache as seen by Build before it is published.
type instance[K comparable, V any] interface {
	Cache[K, V]
	activate()
	discard() error
}

// featureSet lists the capabilities that need the wired variant.
type featureSet struct {
	listeners            bool
	loader               bool
	refreshAhead         bool
	exceptionPropagation bool
}

func featuresOf[K comparable, V any](cfg *Configuration[K, V]) featureSet {
	return featureSet{
		listeners:            len(cfg.entryListeners) > 0,
		loader:               cfg.loader != nil,
		refreshAhead:         cfg.refreshAhead,
		exceptionPropagation: cfg.propagator != nil,
	}
}

func (f featureSet) empty() bool {
	return !f.listeners && !f.loader && !f.refreshAhead && !f.exceptionPropagation
}

// assemble creates the engine and picks the cache variant once.
func assemble[K comparable, V any](m *Manager, cfg *Configuration[K, V]) (instance[K, V], error) {
	newEngine := cfg.newEngine
	if newEngine == nil {
		newEngine = storage.New[K, V]
	}

	engine, err := newEngine(cfg.Engine(), storage.Options{
		Capacity: cfg.entryCapacity,
		Clock:    cfg.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s engine for cache %q: %w", cfg.Engine(), cfg.name, err)
	}

	if featuresOf(cfg).empty() && !cfg.forceWired {
		return newPlainCache(m, cfg, engine), nil
	}
	return newWiredCache(m, cfg, engine), nil
}
