package screen

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/thewebartisan7/platform/access"
	"github.com/thewebartisan7/platform/layout"
	"github.com/thewebartisan7/platform/route"
	"github.com/thewebartisan7/platform/state"
)

// Page is the full-render response. The host embeds StateKey as the hidden
// "_screen" field so the next state-changing request can restore the
// snapshot.
type Page struct {
	Name        string
	Description string
	CommandBar  []layout.Action
	Body        template.HTML
	StateKey    string
}

// Redirect is the response value directing the client elsewhere. Back
// redirects to the referring page.
type Redirect struct {
	URL  string
	Back bool
}

// Dispatcher orchestrates a screen request: guard check, method resolution,
// argument binding, invocation, and response selection. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	resolver Resolver
	states   *state.Store
	layouts  *layout.Registry
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithResolver sets the dependency resolver used by the argument binder.
func WithResolver(r Resolver) DispatcherOption {
	return func(d *Dispatcher) { d.resolver = r }
}

// WithLayoutRegistry sets the registry used to materialize deferred layout
// references.
func WithLayoutRegistry(g *layout.Registry) DispatcherOption {
	return func(d *Dispatcher) { d.layouts = g }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher over the given state store.
func NewDispatcher(states *state.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		states:  states,
		layouts: layout.NewRegistry(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Handle dispatches one request against a screen. GET requests render the
// full view or redirect to the canonical URL when the route matched more
// positional segments than the handler expects; other methods restore the
// state snapshot, bind the target handler's arguments, and invoke it. A
// handler returning nil yields a redirect back to the referring page.
func (d *Dispatcher) Handle(ctx context.Context, s Screen, rc *route.Context) (any, error) {
	principal := access.FromContext(ctx)
	if !access.Check(s.Permission(), principal) {
		return nil, &ForbiddenError{Screen: s.Name(), Permissions: s.Permission()}
	}

	if rc.Method == http.MethodGet || rc.Method == "" {
		expected := rc.VarCount - 1
		if len(rc.Args) <= expected || rc.VarCount == 0 {
			return d.View(ctx, s, rc)
		}
		// The trailing argument is over-supplied for this handler; redirect
		// to the normalized URL instead of misrouting.
		trimmed := rc.Args[:len(rc.Args)-1]
		url := rc.CanonicalURL(trimmed)
		d.logger.Debug("screen redirect to canonical url",
			"screen", s.Name(), "url", url, "dropped", rc.Args[len(rc.Args)-1])
		return &Redirect{URL: url}, nil
	}

	methodName := rc.Params.GetString("method")
	if methodName == "" && len(rc.Args) > 0 {
		methodName = rc.Args[len(rc.Args)-1]
	}
	m, ok := lookupMethod(s, methodName)
	if !ok {
		return nil, &MethodNotFoundError{Screen: s.Name(), Method: methodName}
	}

	snapshot, err := d.states.Restore(ctx, rc.Query.Get(StateTokenField))
	if err != nil {
		return nil, err
	}
	s.State().Apply(snapshot)

	args := MergeArgs(rc.Query, dropMethodToken(positionalArgs(rc), methodName))
	bound, err := Bind(ctx, m, args, d.resolver, rc.Params)
	if err != nil {
		return nil, err
	}

	result, err := m.Func(ctx, bound)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &Redirect{URL: rc.Referer, Back: true}, nil
	}
	return result, nil
}

// View renders the full page: the query handler produces the result set,
// the exposed state is filled from it and persisted, and the materialized
// layout tree is built against the merged result.
func (d *Dispatcher) View(ctx context.Context, s Screen, rc *route.Context) (*Page, error) {
	principal := access.FromContext(ctx)
	if !access.Check(s.Permission(), principal) {
		return nil, &ForbiddenError{Screen: s.Name(), Permissions: s.Permission()}
	}

	m, ok := lookupMethod(s, QueryMethod)
	if !ok {
		return nil, &MethodNotFoundError{Screen: s.Name(), Method: QueryMethod}
	}

	args := MergeArgs(rc.Query, positionalArgs(rc))
	bound, err := Bind(ctx, m, args, d.resolver, rc.Params)
	if err != nil {
		return nil, err
	}
	raw, err := m.Func(ctx, bound)
	if err != nil {
		return nil, err
	}
	result, err := resultSet(s, QueryMethod, raw)
	if err != nil {
		return nil, err
	}

	s.State().Fill(result)
	key, err := d.states.Persist(ctx, access.PrincipalID(principal), s.State().Snapshot())
	if err != nil {
		return nil, err
	}

	nodes, err := layout.Materialize(s.Layout(), d.layouts)
	if err != nil {
		return nil, err
	}
	repo := layout.NewRepository(s.State().Snapshot()).Merge(result)
	body, err := layout.BuildAll(nodes, repo)
	if err != nil {
		return nil, err
	}

	return &Page{
		Name:        s.Name(),
		Description: s.Description(),
		CommandBar:  s.CommandBar(),
		Body:        body,
		StateKey:    key,
	}, nil
}

// Async renders a single layout fragment against the named handler's result
// set, leaving sibling fragments untouched.
func (d *Dispatcher) Async(ctx context.Context, s Screen, rc *route.Context, methodName, slug string) (template.HTML, error) {
	principal := access.FromContext(ctx)
	if !access.Check(s.Permission(), principal) {
		return "", &ForbiddenError{Screen: s.Name(), Permissions: s.Permission()}
	}

	m, ok := lookupMethod(s, methodName)
	if !ok {
		return "", &MethodNotFoundError{Screen: s.Name(), Method: methodName}
	}

	bound, err := Bind(ctx, m, MergeArgs(rc.Query, nil), d.resolver, rc.Params)
	if err != nil {
		return "", err
	}
	raw, err := m.Func(ctx, bound)
	if err != nil {
		return "", err
	}
	result, err := resultSet(s, methodName, raw)
	if err != nil {
		return "", err
	}

	nodes, err := layout.Materialize(s.Layout(), d.layouts)
	if err != nil {
		return "", err
	}
	fragment, ok := layout.FindBySlug(nodes, slug)
	if !ok {
		return "", &FragmentNotFoundError{Screen: s.Name(), Slug: slug}
	}

	repo := layout.NewRepository(result)
	if async, ok := fragment.(layout.Async); ok {
		return async.BuildAsync(repo)
	}
	return fragment.Build(repo)
}

// positionalArgs pairs the supplied path arguments with their route
// variable names.
func positionalArgs(rc *route.Context) []Arg {
	out := make([]Arg, 0, len(rc.Args))
	for i, v := range rc.Args {
		var name string
		if i < len(rc.ArgNames) {
			name = rc.ArgNames[i]
		}
		out = append(out, Arg{Key: name, Value: v})
	}
	return out
}

// dropMethodToken removes the method-selector argument so it is not bound
// as a handler parameter. The last matching value wins since the selector
// defaults to the trailing argument.
func dropMethodToken(args []Arg, methodName string) []Arg {
	for i := len(args) - 1; i >= 0; i-- {
		if s, ok := args[i].Value.(string); ok && s == methodName {
			return append(args[:i:i], args[i+1:]...)
		}
	}
	return args
}

func resultSet(s Screen, method string, raw any) (map[string]any, error) {
	switch r := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return r, nil
	default:
		return nil, fmt.Errorf("screen %q: handler %q returned %T, want map[string]any",
			s.Name(), method, raw)
	}
}
