package screen

import (
	"context"
	"fmt"
)

// Resolver constructs instances of non-primitive parameter types from their
// type identifiers. It is the dispatch core's view of the host's dependency
// container.
type Resolver interface {
	Resolve(typeID string) (any, error)
}

// RouteBindable is an optional capability of resolved instances: resolving
// a concrete entity from an external raw key (typically a database lookup
// by identifier or slug). ok=false with a nil error means no entity matched.
type RouteBindable interface {
	ResolveByKey(ctx context.Context, key string) (entity any, ok bool, err error)
}

// Registry is a Resolver backed by registered constructor functions.
type Registry struct {
	factories map[string]func() any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() any)}
}

// Register binds a type identifier to a constructor. Later registrations
// replace earlier ones.
func (g *Registry) Register(typeID string, f func() any) {
	g.factories[typeID] = f
}

// Resolve implements Resolver.
func (g *Registry) Resolve(typeID string) (any, error) {
	f, ok := g.factories[typeID]
	if !ok {
		return nil, fmt.Errorf("no constructor registered for type %q", typeID)
	}
	return f(), nil
}
