// Package layout models the declarative view tree a screen exposes. Nodes
// are either materialized layouts or deferred references resolved through a
// Registry; every node can locate a named fragment by slug so the async
// code path can re-render a single fragment without touching its siblings.
package layout

import "html/template"

// Repository wraps a handler's result set for read access during rendering.
type Repository struct {
	data map[string]any
}

// NewRepository creates a Repository over a result set. A nil map is
// treated as empty.
func NewRepository(data map[string]any) *Repository {
	if data == nil {
		data = map[string]any{}
	}
	return &Repository{data: data}
}

// Get returns the value under key, or nil.
func (r *Repository) Get(key string) any {
	return r.data[key]
}

// GetString returns the value under key as a string, or "".
func (r *Repository) GetString(key string) string {
	s, _ := r.data[key].(string)
	return s
}

// Has reports whether key is present.
func (r *Repository) Has(key string) bool {
	_, ok := r.data[key]
	return ok
}

// Merge returns a new Repository layering extra over the current data.
func (r *Repository) Merge(extra map[string]any) *Repository {
	out := make(map[string]any, len(r.data)+len(extra))
	for k, v := range r.data {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return &Repository{data: out}
}

// Layout is one node of the view tree.
type Layout interface {
	// Slug identifies the node for fragment lookup. Container nodes without
	// an identity return "".
	Slug() string

	// Build renders the node (and its children) against the result set.
	Build(r *Repository) (template.HTML, error)

	// Find returns the descendant (or the node itself) whose slug matches.
	Find(slug string) (Layout, bool)
}

// Async is the capability of rendering a node's current asynchronous
// representation on its own, for partial page updates.
type Async interface {
	BuildAsync(r *Repository) (template.HTML, error)
}

// FindBySlug walks a node list depth-first and returns the first layout
// whose slug matches.
func FindBySlug(nodes []Layout, slug string) (Layout, bool) {
	for _, n := range nodes {
		if found, ok := n.Find(slug); ok {
			return found, true
		}
	}
	return nil, false
}

// BuildAll renders every top-level node in order and concatenates the
// output.
func BuildAll(nodes []Layout, r *Repository) (template.HTML, error) {
	var out template.HTML
	for _, n := range nodes {
		html, err := n.Build(r)
		if err != nil {
			return "", err
		}
		out += html
	}
	return out, nil
}

// Action is one command-bar entry rendered in the page header.
type Action struct {
	Name   string
	Icon   string
	Method string // handler method to dispatch on click; empty for plain links
	Href   string
}
