package config

import "time"

// Cache describes a single cache inside a manager.
//
// Every field is optional; a zero value leaves the builder default in place.
type Cache struct {
	// Name is the cache name inside its manager. Empty means an automatic name.
	Name string `yaml:"name"`

	// EntryCapacity bounds the number of entries. A nil pointer keeps the default (2000),
	// 9223372036854775807 means effectively unbounded.
	EntryCapacity *int64 `yaml:"entry_capacity,omitempty"`

	// Eternal disables expiry. Can't be combined with ExpireAfterWrite.
	Eternal bool `yaml:"eternal,omitempty"`

	// ExpireAfterWrite is the entry lifetime, e.g. "5m".
	ExpireAfterWrite time.Duration `yaml:"expire_after_write,omitempty"`

	// RefreshAhead reloads entries before they expire. Needs a loader and ExpireAfterWrite.
	RefreshAhead bool `yaml:"refresh_ahead,omitempty"`

	// RefreshRate bounds refresh loads per second, 0 means unbounded.
	RefreshRate int `yaml:"refresh_rate,omitempty"`

	StoreByReference bool `yaml:"store_by_reference,omitempty"`

	// Engine selects the storage engine: "sharded" (default) or "ristretto".
	Engine string `yaml:"engine,omitempty"`
}

// Capacity returns the configured capacity and whether it was set.
func (c *Cache) Capacity() (int64, bool) {
	if c == nil || c.EntryCapacity == nil {
		return 0, false
	}
	return *c.EntryCapacity, true
}
