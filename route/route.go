// Package route exposes the slice of routing information the dispatch core
// needs from the host router: how many variables the matched route declares,
// the resolved path parameters, the request query, and the HTTP method.
package route

import (
	"net/url"
	"strings"
)

// Params are the resolved path parameters of the current request. The
// binder writes resolved entities back under the parameter name so later
// steps can reuse them.
type Params map[string]any

// Get returns the parameter value, or nil.
func (p Params) Get(name string) any {
	return p[name]
}

// GetString returns the parameter as a string, or "".
func (p Params) GetString(name string) string {
	s, _ := p[name].(string)
	return s
}

// Set records a parameter value.
func (p Params) Set(name string, value any) {
	p[name] = value
}

// Context is the request-scoped routing state handed to the dispatcher.
type Context struct {
	// Method is the HTTP method of the request.
	Method string

	// MountPath is the path prefix the screen is mounted under, without a
	// trailing slash.
	MountPath string

	// VarCount is the number of variables the matched route template
	// declares, including the trailing optional method-selector slot.
	VarCount int

	// Args are the supplied positional path arguments, in path order.
	Args []string

	// ArgNames are the route-template variable names matching Args.
	ArgNames []string

	// Params are the resolved path parameters by name.
	Params Params

	// Query is the request's query mapping. For non-GET requests it also
	// carries parsed form values.
	Query url.Values

	// Referer is the referring page, used for the default redirect-back.
	Referer string
}

// CanonicalURL builds the canonical dispatch URL for the given positional
// arguments under the mount path.
func (c *Context) CanonicalURL(args []string) string {
	path := strings.TrimSuffix(c.MountPath, "/")
	if path == "" {
		path = "/"
	}
	for _, a := range args {
		path = strings.TrimSuffix(path, "/") + "/" + url.PathEscape(a)
	}
	return path
}
