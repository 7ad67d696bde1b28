package marts

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Mart)
	mu       sync.RWMutex
)

// Register adds a mart to the registry.
func Register(m Mart) {
	mu.Lock()
	defer mu.Unlock()
	registry[m.Name()] = m
}

// Get retrieves a mart by name.
func Get(name string) (Mart, error) {
	mu.RLock()
	defer mu.RUnlock()

	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown mart: %s", name)
	}
	return m, nil
}

// List returns all registered mart names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered marts, ordered by name so runs are
// deterministic.
func All() []Mart {
	mu.RLock()
	defer mu.RUnlock()

	marts := make([]Mart, 0, len(registry))
	for _, name := range sortedNames() {
		marts = append(marts, registry[name])
	}
	return marts
}

// sortedNames must be called with mu held.
func sortedNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
