package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrBackendExists   = errors.New("backend already registered")
	ErrBackendNotFound = errors.New("backend not found")
)

type Factory func() Backend

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("backend name is required")
	}
	if factory == nil {
		return errors.New("backend factory is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrBackendExists, name)
	}
	registry.m[name] = factory
	return nil
}

func Resolve(name string) (Backend, error) {
	registry.mu.RLock()
	factory, ok := registry.m[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}
	return factory(), nil
}

func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRegistryForTests() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m = make(map[string]Factory)
}
