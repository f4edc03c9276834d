package declare

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps method names to their Declare. It is safe for concurrent
// use: registration typically happens once at startup from plugin
// loading, but lookups happen on every request across many connections.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Declare
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Declare)}
}

// Register adds d to the registry. It fails if a Declare with the same
// name is already registered.
func (r *Registry) Register(d *Declare) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("declare: %q already registered", d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

// MustRegister panics if Register fails; intended for plugin init code
// that considers a duplicate name a fatal misconfiguration.
func (r *Registry) MustRegister(d *Declare) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Resolve looks up name, falling back to a FunctionNotImplemented dummy
// Declare when nothing is registered under that name rather than
// returning an error — the caller always gets something invokable.
func (r *Registry) Resolve(name string) *Declare {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return NewDummy(name)
	}
	return d
}

// Names returns every registered method name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
