package gates

import "strings"

// Registry selects a Domain from a classifier category.
type Registry struct {
	routes   map[string]Domain
	fallback Domain
}

// NewRegistry maps category prefixes to domains. A nil fallback means generic.
func NewRegistry(fallback Domain, routes map[string]Domain) *Registry {
	if fallback == nil {
		fallback = NewGeneric()
	}
	copied := make(map[string]Domain, len(routes))
	for k, v := range routes {
		copied[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Registry{routes: copied, fallback: fallback}
}

// DefaultRegistry wires the built-in product families.
func DefaultRegistry() *Registry {
	meat := NewMeat()
	return NewRegistry(NewGeneric(), map[string]Domain{
		"seafood.shrimp": NewShrimp(),
		"seafood.fish":   NewFishFillet(),
		"meat":           meat,
		"poultry":        meat,
		"dairy":          NewDairy(),
	})
}

// For resolves the exact category first, then each dotted parent, then the fallback.
func (r *Registry) For(category string) Domain {
	key := strings.ToLower(strings.TrimSpace(category))
	for key != "" {
		if d, ok := r.routes[key]; ok {
			return d
		}
		i := strings.LastIndex(key, ".")
		if i < 0 {
			break
		}
		key = key[:i]
	}
	return r.fallback
}
