package gesture

import (
	"fmt"
	"sort"
)

// Factory builds a Pattern for a given screen.
type Factory func(geometry ScreenGeometry) Pattern

// Registry holds the known gesture patterns by ID.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with all built-in patterns.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}

	r.Register(RectanglePatternID, func(g ScreenGeometry) Pattern {
		return NewRectanglePattern(g)
	})

	return r
}

// NewRegistryWithFactories creates a registry with custom patterns (for testing).
func NewRegistryWithFactories(factories map[string]Factory) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}
	for id, f := range factories {
		r.Register(id, f)
	}
	return r
}

// Register adds or replaces a pattern factory.
func (r *Registry) Register(id string, f Factory) {
	r.factories[id] = f
}

// New builds the pattern registered under id.
func (r *Registry) New(id string, geometry ScreenGeometry) (Pattern, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("unknown gesture pattern: %q", id)
	}
	return f(geometry), nil
}

// List returns all registered IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
