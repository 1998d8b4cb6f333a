// Package screen is the request-dispatch core of the admin panel. A screen
// declares its permission set, its exposed state, its handler methods with
// explicit parameter descriptors, and a layout tree; the dispatcher
// authorizes the caller, resolves the target method, binds arguments, and
// renders either the full page or a single async fragment.
package screen

import (
	"context"

	"github.com/thewebartisan7/platform/layout"
	"github.com/thewebartisan7/platform/state"
)

// QueryMethod is the conventional name of the handler that produces the
// result set for the full-page render.
const QueryMethod = "query"

// StateTokenField is the request field carrying the state-snapshot key.
// The full-page render embeds it as a hidden field; the client echoes it on
// the next state-changing request.
const StateTokenField = "_screen"

// Screen is a stateful request-handling unit. Instances are constructed per
// request and discarded afterwards; the only cross-request identity is the
// persisted state snapshot.
type Screen interface {
	// Name returns the screen's display name.
	Name() string

	// Description returns the sub-header display text.
	Description() string

	// Permission returns the declared permission set. Empty means public.
	Permission() []string

	// CommandBar returns the header action buttons.
	CommandBar() []layout.Action

	// Layout returns the layout descriptor tree. Nodes may be deferred
	// references; the dispatcher materializes them before rendering.
	Layout() []layout.Layout

	// State returns the screen's exposed-state bag.
	State() *state.Bag

	// Methods returns the handler methods, including the query handler.
	Methods() []Method
}

// Param describes one declared method parameter.
type Param struct {
	// Name is the parameter name, matched against merged argument keys and
	// used for route-parameter write-back of resolved entities.
	Name string

	// Type is the resolver identifier of a non-primitive parameter type.
	// Empty means the parameter is a scalar and binds raw values as-is.
	Type string

	// HasDefault marks an optional parameter. For route-bindable types a
	// failed key lookup falls back to the fresh instance instead of a
	// not-found failure.
	HasDefault bool

	// Default is the value bound when a scalar parameter has no supplied
	// argument. Only consulted when HasDefault is set.
	Default any
}

// Method is one handler with its parameter descriptor list. The descriptor
// list replaces call-time reflection: it is declared once per method and
// consulted by the binder.
type Method struct {
	Name   string
	Params []Param
	Func   func(ctx context.Context, args []any) (any, error)
}

// Base provides the optional accessors' defaults so concrete screens only
// declare what they use.
type Base struct{}

// Description returns "".
func (Base) Description() string { return "" }

// Permission returns nil: access is granted unconditionally.
func (Base) Permission() []string { return nil }

// CommandBar returns no actions.
func (Base) CommandBar() []layout.Action { return nil }

func lookupMethod(s Screen, name string) (Method, bool) {
	if name == "" {
		return Method{}, false
	}
	for _, m := range s.Methods() {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}
