package screen_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/thewebartisan7/platform/access"
	"github.com/thewebartisan7/platform/cache"
	"github.com/thewebartisan7/platform/layout"
	"github.com/thewebartisan7/platform/route"
	"github.com/thewebartisan7/platform/screen"
	"github.com/thewebartisan7/platform/state"
)

type principal struct {
	id    string
	perms map[string]bool
}

func (p *principal) ID() string                  { return p.id }
func (p *principal) HasPermission(s string) bool { return p.perms[s] }

// usersScreen lists users and saves edits; its table fragment sits under
// the second top-level layout node.
type usersScreen struct {
	screen.Base
	bag   *state.Bag
	perms []string

	savedName string
	sawState  string // state observed by the save handler
}

func newUsersScreen(perms ...string) *usersScreen {
	return &usersScreen{
		bag: state.NewBag(
			state.Field{Name: "filter", Default: ""},
			state.Field{Name: "total", Default: 0},
		),
		perms: perms,
	}
}

func (s *usersScreen) Name() string         { return "Users" }
func (s *usersScreen) Description() string  { return "All registered users" }
func (s *usersScreen) Permission() []string { return s.perms }
func (s *usersScreen) State() *state.Bag    { return s.bag }

func (s *usersScreen) Layout() []layout.Layout {
	return []layout.Layout{
		layout.NewRows("summary", layout.Column{Name: "total", Title: "Total"}),
		layout.NewTabs("main-tabs", layout.Tab{
			Title: "Users",
			Content: []layout.Layout{
				layout.NewTable("users-table", "users",
					layout.Column{Name: "name", Title: "Name"},
				),
			},
		}),
	}
}

func (s *usersScreen) Methods() []screen.Method {
	return []screen.Method{
		{
			Name: "query",
			Func: func(ctx context.Context, args []any) (any, error) {
				return map[string]any{
					"total": 2,
					"users": []map[string]any{
						{"name": "Ada"}, {"name": "Grace"},
					},
				}, nil
			},
		},
		{
			Name: "index",
			Func: func(ctx context.Context, args []any) (any, error) {
				return map[string]any{
					"users": []map[string]any{{"name": "Ada"}},
				}, nil
			},
		},
		{
			Name:   "save",
			Params: []screen.Param{{Name: "name"}},
			Func: func(ctx context.Context, args []any) (any, error) {
				s.savedName, _ = args[0].(string)
				s.sawState = s.bag.GetString("filter")
				return nil, nil
			},
		},
	}
}

func newDispatcher() *screen.Dispatcher {
	return screen.NewDispatcher(state.NewStore(cache.NewMemory()))
}

func getCtx(args ...string) *route.Context {
	return &route.Context{
		Method:    http.MethodGet,
		MountPath: "/admin/users",
		VarCount:  2, // {user}/{method?}
		Args:      args,
		Params:    route.Params{},
		Query:     url.Values{},
	}
}

func TestHandleForbidden(t *testing.T) {
	s := newUsersScreen("platform.index")
	d := newDispatcher()

	caller := &principal{id: "u1", perms: map[string]bool{}}
	ctx := access.WithPrincipal(context.Background(), caller)

	_, err := d.Handle(ctx, s, getCtx())
	var forbidden *screen.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("got %v, want ForbiddenError", err)
	}
	if !screen.IsForbidden(err) {
		t.Fatal("IsForbidden should classify the error")
	}
}

func TestHandleGetRendersWithinArity(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	// VarCount=2 → expected args = 1; one supplied arg renders.
	res, err := d.Handle(context.Background(), s, getCtx("42"))
	if err != nil {
		t.Fatal(err)
	}
	page, ok := res.(*screen.Page)
	if !ok {
		t.Fatalf("got %T, want *Page", res)
	}
	if page.Name != "Users" || page.Description == "" {
		t.Fatalf("page header incomplete: %+v", page)
	}
	if !strings.HasPrefix(page.StateKey, "screen-") {
		t.Fatalf("page must carry a snapshot key, got %q", page.StateKey)
	}
	if !strings.Contains(string(page.Body), "<td>Ada</td>") {
		t.Fatalf("body missing table rows: %s", page.Body)
	}
	if !strings.Contains(string(page.Body), "<dd>2</dd>") {
		t.Fatalf("body missing summary from query result: %s", page.Body)
	}
}

func TestHandleGetOverArityRedirects(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	res, err := d.Handle(context.Background(), s, getCtx("42", "extra"))
	if err != nil {
		t.Fatal(err)
	}
	redirect, ok := res.(*screen.Redirect)
	if !ok {
		t.Fatalf("got %T, want *Redirect", res)
	}
	if redirect.URL != "/admin/users/42" {
		t.Fatalf("got %q, want last argument dropped", redirect.URL)
	}
}

func TestHandleGetNoRouteVariables(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	rc := getCtx()
	rc.VarCount = 0
	res, err := d.Handle(context.Background(), s, rc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.(*screen.Page); !ok {
		t.Fatalf("got %T, want *Page", res)
	}
}

func TestHandlePostInvokesAndRedirectsBack(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	rc := &route.Context{
		Method:    http.MethodPost,
		MountPath: "/admin/users",
		VarCount:  2,
		Args:      []string{"save"},
		ArgNames:  []string{"method"},
		Params:    route.Params{"method": "save"},
		Query:     url.Values{"name": {"Ada"}},
		Referer:   "/admin/users?page=2",
	}

	res, err := d.Handle(context.Background(), s, rc)
	if err != nil {
		t.Fatal(err)
	}
	redirect, ok := res.(*screen.Redirect)
	if !ok || !redirect.Back {
		t.Fatalf("got %#v, want redirect-back", res)
	}
	if redirect.URL != "/admin/users?page=2" {
		t.Fatalf("got %q, want the referrer", redirect.URL)
	}
	if s.savedName != "Ada" {
		t.Fatalf("handler saw name %q, want Ada", s.savedName)
	}
}

func TestHandlePostMethodFromTrailingArg(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	rc := &route.Context{
		Method:   http.MethodPost,
		VarCount: 2,
		Args:     []string{"save"},
		ArgNames: []string{"a"},
		Params:   route.Params{}, // no "method" param resolved
		Query:    url.Values{"name": {"Grace"}},
	}

	if _, err := d.Handle(context.Background(), s, rc); err != nil {
		t.Fatal(err)
	}
	if s.savedName != "Grace" {
		t.Fatalf("handler saw %q, want Grace", s.savedName)
	}
}

func TestHandlePostUnknownMethod(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	rc := &route.Context{
		Method: http.MethodPost,
		Args:   []string{"vanish"},
		Params: route.Params{},
		Query:  url.Values{},
	}

	_, err := d.Handle(context.Background(), s, rc)
	var notFound *screen.MethodNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want MethodNotFoundError", err)
	}
	if notFound.Method != "vanish" {
		t.Fatalf("got %q", notFound.Method)
	}
}

func TestStateRoundTripThroughDispatch(t *testing.T) {
	d := newDispatcher()
	caller := &principal{id: "u1"}
	ctx := access.WithPrincipal(context.Background(), caller)

	// Initial render persists the snapshot, including the filled "total".
	first := newUsersScreen()
	res, err := d.Handle(ctx, first, getCtx())
	if err != nil {
		t.Fatal(err)
	}
	page := res.(*screen.Page)
	if !strings.Contains(page.StateKey, "-u1-") {
		t.Fatalf("key %q should be scoped to the principal", page.StateKey)
	}

	// Seed a recognizable state value before capture to follow it across
	// the round trip.
	second := newUsersScreen()
	second.bag.Set("filter", "active")
	res, err = d.Handle(ctx, second, getCtx())
	if err != nil {
		t.Fatal(err)
	}
	key := res.(*screen.Page).StateKey

	// Follow-up POST presents the token; the handler sees restored state.
	third := newUsersScreen()
	rc := &route.Context{
		Method: http.MethodPost,
		Args:   []string{"save"},
		Params: route.Params{"method": "save"},
		Query:  url.Values{"name": {"Ada"}, screen.StateTokenField: {key}},
	}
	if _, err := d.Handle(ctx, third, rc); err != nil {
		t.Fatal(err)
	}
	if third.sawState != "active" {
		t.Fatalf("handler saw state %q, want active", third.sawState)
	}

	// The token is single-use: a replay restores nothing.
	fourth := newUsersScreen()
	fourth.bag.Set("filter", "untouched")
	rc.Query = url.Values{"name": {"Ada"}, screen.StateTokenField: {key}}
	if _, err := d.Handle(ctx, fourth, rc); err != nil {
		t.Fatal(err)
	}
	if fourth.sawState != "untouched" {
		t.Fatalf("replayed token must restore nothing, handler saw %q", fourth.sawState)
	}
}

func TestAsyncUnknownMethod(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	_, err := d.Async(context.Background(), s, getCtx(), "missingMethod", "users-table")
	if !screen.IsNotFound(err) {
		t.Fatalf("got %v, want a not-found condition", err)
	}
}

func TestAsyncUnknownSlug(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	_, err := d.Async(context.Background(), s, getCtx(), "index", "nope")
	var notFound *screen.FragmentNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want FragmentNotFoundError", err)
	}
}

func TestAsyncRendersOnlyTheFragment(t *testing.T) {
	s := newUsersScreen()
	d := newDispatcher()

	html, err := d.Async(context.Background(), s, getCtx(), "index", "users-table")
	if err != nil {
		t.Fatal(err)
	}
	out := string(html)
	if !strings.Contains(out, `data-fragment="users-table"`) {
		t.Fatalf("missing fragment marker: %s", out)
	}
	if !strings.Contains(out, "<td>Ada</td>") {
		t.Fatalf("missing handler result rows: %s", out)
	}
	// Siblings stay out of the partial update.
	if strings.Contains(out, "summary") || strings.Contains(out, "layout-tabs") {
		t.Fatalf("sibling fragments leaked into async render: %s", out)
	}
}

func TestViewMissingQueryMethod(t *testing.T) {
	d := newDispatcher()
	s := &queryless{usersScreen: newUsersScreen()}

	_, err := d.View(context.Background(), s, getCtx())
	var notFound *screen.MethodNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want MethodNotFoundError", err)
	}
}

type queryless struct{ *usersScreen }

func (q *queryless) Methods() []screen.Method { return nil }

type deferredScreen struct{ *usersScreen }

func (d *deferredScreen) Layout() []layout.Layout {
	return []layout.Layout{layout.Deferred("users-block")}
}

func TestViewMaterializesDeferredLayouts(t *testing.T) {
	reg := layout.NewRegistry()
	reg.Register("users-block", func() layout.Layout {
		return layout.NewTable("users-table", "users",
			layout.Column{Name: "name", Title: "Name"})
	})
	d := screen.NewDispatcher(
		state.NewStore(cache.NewMemory()),
		screen.WithLayoutRegistry(reg),
	)
	s := &deferredScreen{newUsersScreen()}

	page, err := d.View(context.Background(), s, getCtx())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page.Body), `data-fragment="users-table"`) {
		t.Fatalf("deferred layout did not render: %s", page.Body)
	}
}

func TestViewUnknownDeferredReference(t *testing.T) {
	d := newDispatcher()
	s := &deferredScreen{newUsersScreen()}

	_, err := d.View(context.Background(), s, getCtx())
	var unknown *layout.ErrUnknownReference
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want ErrUnknownReference", err)
	}
}
