package platform

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thewebartisan7/platform/route"
	"github.com/thewebartisan7/platform/screen"
)

// MountOption configures a mounted screen.
type MountOption func(*mount)

// WithMountLogger sets the logger used for dispatch failures on this mount.
func WithMountLogger(l *slog.Logger) MountOption {
	return func(m *mount) { m.logger = l }
}

type mount struct {
	path    string
	vars    []string
	factory func() screen.Screen
	d       *screen.Dispatcher
	logger  *slog.Logger
}

// Mount registers a screen under path. vars are the route-template variable
// names in order; the trailing one is the optional method-selector slot, so
// a screen with one entity parameter mounts with vars ("user", "method").
//
// Registered routes, for vars (a, b):
//
//	GET  path, path/{a}, path/{a}/{b}   — full render or canonical redirect
//	POST path, path/{a}, path/{a}/{b}   — method dispatch
//	GET  path/async/{method}/{slug}     — partial fragment refresh
//
// A fresh screen instance is constructed per request via factory.
func Mount(r chi.Router, path string, vars []string, factory func() screen.Screen, d *screen.Dispatcher, opts ...MountOption) {
	m := &mount{
		path:    path,
		vars:    vars,
		factory: factory,
		d:       d,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}

	r.Route(path, func(r chi.Router) {
		r.Get("/async/{method}/{slug}", m.handleAsync)

		r.Get("/", m.handle)
		r.Post("/", m.handle)
		pattern := ""
		for _, v := range vars {
			pattern += "/{" + v + "}"
			r.Get(pattern, m.handle)
			r.Post(pattern, m.handle)
		}
	})
}

func (m *mount) context(r *http.Request) *route.Context {
	rc := route.FromRequest(r, m.path)
	// The screen's route template declares all variable slots, whichever
	// depth actually matched.
	rc.VarCount = len(m.vars)
	return rc
}

func (m *mount) handle(w http.ResponseWriter, r *http.Request) {
	rc := m.context(r)
	result, err := m.d.Handle(r.Context(), m.factory(), rc)
	respond(w, r, result, err, m.logger)
}

func (m *mount) handleAsync(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")
	slug := chi.URLParam(r, "slug")

	rc := route.FromRequest(r, m.path)
	rc.VarCount = len(m.vars)
	rc.Args = nil
	rc.ArgNames = nil
	rc.Params = route.Params{}

	html, err := m.d.Async(r.Context(), m.factory(), rc, method, slug)
	respond(w, r, html, err, m.logger)
}
