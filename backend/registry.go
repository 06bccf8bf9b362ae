package backend

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/interop"
)

// Factory creates a new, uninitialized platform.
type Factory func() Platform

// Registry maps backend names to factories. The zero value is empty and
// ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory

	// Priority lists the names Default tries first. Names not listed
	// follow in sorted order.
	Priority []string
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[name] = factory
}

// Unregister removes name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Available returns the registered names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// IsRegistered reports whether name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Get returns a new platform by name, or nil if name is not registered.
func (r *Registry) Get(name string) Platform {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// order returns the factories to try, priority names first.
func (r *Registry) order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for _, name := range r.Priority {
		if _, ok := r.factories[name]; ok {
			names = append(names, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(r.factories)) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// Default returns a new platform from the highest-priority factory that
// produces one, or nil.
func (r *Registry) Default() Platform {
	for _, name := range r.order() {
		if p := r.Get(name); p != nil {
			return p
		}
	}
	return nil
}

// InitDefault initializes platforms in priority order and returns the
// first that succeeds. A platform whose Init fails is closed and the next
// one is tried; the joined errors are returned if none succeeds.
func (r *Registry) InitDefault() (Platform, error) {
	var errs []error
	for _, name := range r.order() {
		p := r.Get(name)
		if p == nil {
			continue
		}
		if err := p.Init(); err != nil {
			interop.Logger().Warn("backend: platform unavailable", "name", name, "err", err)
			p.Close()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return p, nil
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// defaultRegistry is used by the package-level functions. Backends add
// themselves from init().
var defaultRegistry = &Registry{Priority: []string{BackendNative, BackendSoftware}}

// Register registers a backend factory with the given name in the
// default registry. If a backend with the same name is already
// registered, it is replaced.
func Register(name string, factory Factory) { defaultRegistry.Register(name, factory) }

// Unregister removes a backend from the default registry.
func Unregister(name string) { defaultRegistry.Unregister(name) }

// Available returns the names registered in the default registry.
func Available() []string { return defaultRegistry.Available() }

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool { return defaultRegistry.IsRegistered(name) }

// Get returns a platform instance by name, nil if not registered.
func Get(name string) Platform { return defaultRegistry.Get(name) }

// Default returns the best available platform based on priority.
func Default() Platform { return defaultRegistry.Default() }

// InitDefault returns the best platform that initializes.
func InitDefault() (Platform, error) { return defaultRegistry.InitDefault() }

// MustDefault returns the default platform or panics.
func MustDefault() Platform {
	p := Default()
	if p == nil {
		panic("backend: no backend available")
	}
	return p
}
