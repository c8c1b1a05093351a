package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vnykmshr/golazy/pkg/common/errors"
	"github.com/vnykmshr/golazy/pkg/metrics"
)

// Factory constructs the instance for a registry entry. It runs at most
// once per live entry, regardless of how many goroutines ask for the same
// name concurrently.
type Factory func() (interface{}, error)

// Registry manages named single instances. Creation is serialized per name:
// concurrent GetOrCreate calls for one name run the factory once, while
// distinct names never contend on each other's factories.
//
// Entries can be overridden with Set, which is the injection seam for tests
// and for callers who prefer wiring dependencies explicitly over hardcoded
// global accessors.
type Registry struct {
	name string

	mu      sync.RWMutex
	entries map[string]*entry

	metricsRegistry *metrics.Registry
	metricsEnabled  bool
}

// entry is one named holder. The once serializes creation; ready is set
// after the value is published so lock-free readers can check completion.
type entry struct {
	once  sync.Once
	ready atomic.Bool
	val   interface{}
	err   error
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		name:    "default",
		entries: make(map[string]*entry),
	}
}

// NewNamed creates an empty registry with a name used in metric labels.
func NewNamed(name string) *Registry {
	r := New()
	if name != "" {
		r.name = name
	}
	return r
}

// NewWithMetrics creates a named registry with metrics enabled.
func NewWithMetrics(name string, metricsConfig metrics.Config) *Registry {
	r := NewNamed(name)

	if !metricsConfig.Enabled {
		return r
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	r.metricsRegistry = registry
	r.metricsEnabled = true
	return r
}

// GetOrCreate returns the instance stored under name, creating it with the
// factory on first request. A failed factory removes the entry so a later
// call may retry.
func (r *Registry) GetOrCreate(name string, factory Factory) (interface{}, error) {
	if factory == nil {
		return nil, errors.NewValidationError("registry", "factory", nil, "cannot be nil").
			WithHint("provide a factory that constructs the instance")
	}

	r.mu.Lock()
	e, existed := r.entries[name]
	if !existed {
		e = &entry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	r.countLookup(existed)

	e.once.Do(func() {
		e.val, e.err = runFactory(factory)
		if e.err != nil {
			// Drop the failed entry so the name stays creatable.
			r.mu.Lock()
			if r.entries[name] == e {
				delete(r.entries, name)
			}
			r.mu.Unlock()
		} else {
			e.ready.Store(true)
		}
		r.updateEntriesGauge()
	})

	return e.val, e.err
}

// Get returns the instance stored under name. It returns ErrNotInitialized
// if no instance exists, without triggering creation.
func (r *Registry) Get(name string) (interface{}, error) {
	v, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NewOperationError("registry", "Get", errors.ErrNotInitialized).
			WithContext("name " + name)
	}
	return v, nil
}

// Lookup returns the instance stored under name and whether it exists.
// It never triggers creation.
func (r *Registry) Lookup(name string) (interface{}, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	found := ok && e.ready.Load()
	r.countLookup(found)

	if !found {
		return nil, false
	}
	return e.val, true
}

// Set stores the instance under name, replacing any existing entry. This is
// the injection point for tests and explicit wiring.
func (r *Registry) Set(name string, value interface{}) {
	e := &entry{val: value}
	e.once.Do(func() {}) // mark created so a factory can never run
	e.ready.Store(true)

	r.mu.Lock()
	r.entries[name] = e
	r.mu.Unlock()

	r.updateEntriesGauge()
}

// Delete removes the entry stored under name, if any.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()

	r.updateEntriesGauge()
}

// Names returns the names of all ready entries in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.ready.Load() {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of entries, including those still being created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset removes all entries. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	r.updateEntriesGauge()
}

// GetOrCreateAs returns the instance stored under name with type T,
// creating it with the factory on first request.
func GetOrCreateAs[T any](r *Registry, name string, factory func() (T, error)) (T, error) {
	var zero T

	v, err := r.GetOrCreate(name, func() (interface{}, error) {
		return factory()
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errors.NewOperationError("registry", "GetOrCreateAs",
			fmt.Errorf("entry %q holds %T, not %T", name, v, zero))
	}
	return typed, nil
}

// LookupAs returns the instance stored under name with type T. The boolean
// reports whether a ready entry of that type exists.
func LookupAs[T any](r *Registry, name string) (T, bool) {
	var zero T

	v, ok := r.Lookup(name)
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, created on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// EnableMetrics enables metrics collection.
func (r *Registry) EnableMetrics(config metrics.Config) error {
	r.metricsEnabled = config.Enabled

	if config.Registry != nil {
		r.metricsRegistry = metrics.NewRegistry(config.Registry)
	} else if r.metricsRegistry == nil {
		r.metricsRegistry = metrics.DefaultRegistry
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (r *Registry) DisableMetrics() {
	r.metricsEnabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (r *Registry) MetricsEnabled() bool {
	return r.metricsEnabled
}

func (r *Registry) countLookup(hit bool) {
	if !r.metricsEnabled {
		return
	}
	if hit {
		r.metricsRegistry.RegistryHits.WithLabelValues(r.name).Inc()
	} else {
		r.metricsRegistry.RegistryMisses.WithLabelValues(r.name).Inc()
	}
}

func (r *Registry) updateEntriesGauge() {
	if !r.metricsEnabled {
		return
	}
	r.metricsRegistry.RegistryEntries.WithLabelValues(r.name).Set(float64(r.Len()))
}

// runFactory executes the factory, converting panics into errors so a
// panicking constructor cannot wedge the entry's once.
func runFactory(factory Factory) (val interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewOperationError("registry", "factory", fmt.Errorf("panic: %v", r))
		}
	}()
	return factory()
}
