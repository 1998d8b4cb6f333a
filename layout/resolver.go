package layout

import (
	"fmt"
	"html/template"
)

// ErrUnknownReference is returned when a deferred reference names a layout
// the registry has never seen.
type ErrUnknownReference struct {
	Name string
}

func (e *ErrUnknownReference) Error() string {
	return fmt.Sprintf("layout: unknown reference %q", e.Name)
}

// Registry maps reference names to layout constructors. Screens may declare
// nodes as Deferred("name") and leave construction to the host; the
// dispatcher materializes them once per request before rendering.
type Registry struct {
	factories map[string]func() Layout
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Layout)}
}

// Register binds a reference name to a constructor. Later registrations
// replace earlier ones.
func (g *Registry) Register(name string, f func() Layout) {
	g.factories[name] = f
}

// Resolve constructs the layout behind a reference name.
func (g *Registry) Resolve(name string) (Layout, error) {
	f, ok := g.factories[name]
	if !ok {
		return nil, &ErrUnknownReference{Name: name}
	}
	return f(), nil
}

// Ref is a deferred layout reference: a tagged-union node that starts as a
// name and becomes a materialized instance on first resolution. Resolution
// memoizes; the resolved tree is treated as immutable afterwards.
type Ref struct {
	name string
	inst Layout
}

// Deferred creates an unresolved reference node.
func Deferred(name string) *Ref {
	return &Ref{name: name}
}

// Name returns the reference name.
func (r *Ref) Name() string { return r.name }

// Resolved reports whether the reference has been materialized.
func (r *Ref) Resolved() bool { return r.inst != nil }

func (r *Ref) materialize(g *Registry) (Layout, error) {
	if r.inst != nil {
		return r.inst, nil
	}
	inst, err := g.Resolve(r.name)
	if err != nil {
		return nil, err
	}
	r.inst = inst
	return inst, nil
}

// Slug implements Layout. An unresolved reference has no slug.
func (r *Ref) Slug() string {
	if r.inst == nil {
		return ""
	}
	return r.inst.Slug()
}

// Build implements Layout. Building an unresolved reference is a
// programming error: materialize the tree first.
func (r *Ref) Build(repo *Repository) (template.HTML, error) {
	if r.inst == nil {
		return "", &ErrUnknownReference{Name: r.name}
	}
	return r.inst.Build(repo)
}

// Find implements Layout.
func (r *Ref) Find(slug string) (Layout, bool) {
	if r.inst == nil {
		return nil, false
	}
	return r.inst.Find(slug)
}

// Materialize resolves every deferred reference in the node list against
// the registry, returning a slice of concrete layouts. Already-materialized
// nodes pass through unchanged.
func Materialize(nodes []Layout, g *Registry) ([]Layout, error) {
	out := make([]Layout, len(nodes))
	for i, n := range nodes {
		ref, ok := n.(*Ref)
		if !ok {
			out[i] = n
			continue
		}
		inst, err := ref.materialize(g)
		if err != nil {
			return nil, err
		}
		out[i] = inst
	}
	return out, nil
}
