package main

import (
	"context"
	"strings"

	"github.com/thewebartisan7/platform/layout"
	"github.com/thewebartisan7/platform/screen"
	"github.com/thewebartisan7/platform/state"
)

// userListScreen lists panel users with a persisted name/email filter. The
// table is an async fragment so the client can refresh it in place.
type userListScreen struct {
	screen.Base
	store *userStore
	bag   *state.Bag
}

func newUserListScreen(store *userStore) func() screen.Screen {
	return func() screen.Screen {
		return &userListScreen{
			store: store,
			bag:   state.NewBag(state.Field{Name: "filter", Default: ""}),
		}
	}
}

func (s *userListScreen) Name() string        { return "Users" }
func (s *userListScreen) Description() string { return "All registered users of the panel" }

func (s *userListScreen) Permission() []string { return []string{permUsers} }

func (s *userListScreen) CommandBar() []layout.Action {
	return []layout.Action{
		{Name: "New user", Icon: "plus", Method: "GET", Href: "/admin/users/edit"},
	}
}

func (s *userListScreen) State() *state.Bag { return s.bag }

func (s *userListScreen) Layout() []layout.Layout {
	return []layout.Layout{
		layout.NewTable("users-table", "users",
			layout.Column{Name: "name", Title: "Name"},
			layout.Column{Name: "email", Title: "Email"},
			layout.Column{Name: "permissions", Title: "Permissions"},
			layout.Column{Name: "created_at", Title: "Created"},
		),
	}
}

func (s *userListScreen) Methods() []screen.Method {
	query := func(ctx context.Context, args []any) (any, error) {
		filter, _ := args[0].(string)
		if filter == "" {
			filter = s.bag.GetString("filter")
		}
		users, err := s.store.list(ctx, filter)
		if err != nil {
			return nil, err
		}
		return map[string]any{"users": users, "filter": filter}, nil
	}
	filterParam := []screen.Param{{Name: "filter", HasDefault: true, Default: ""}}

	return []screen.Method{
		{Name: screen.QueryMethod, Params: filterParam, Func: query},
		// Same result set, addressed by the table fragment for async refresh.
		{Name: "table", Params: filterParam, Func: query},
	}
}

// userEditScreen creates or edits one user. The "user" parameter resolves
// the entity from the URL key and stays blank on the create path.
type userEditScreen struct {
	screen.Base
	store *userStore
	bag   *state.Bag
}

func newUserEditScreen(store *userStore) func() screen.Screen {
	return func() screen.Screen {
		return &userEditScreen{
			store: store,
			bag: state.NewBag(
				state.Field{Name: "id", Default: ""},
				state.Field{Name: "name", Default: ""},
				state.Field{Name: "email", Default: ""},
				state.Field{Name: "permissions", Default: ""},
			),
		}
	}
}

func (s *userEditScreen) Name() string {
	if s.bag.GetString("id") != "" {
		return "Edit user"
	}
	return "Create user"
}

func (s *userEditScreen) Permission() []string { return []string{permUsers} }

func (s *userEditScreen) State() *state.Bag { return s.bag }

func (s *userEditScreen) Layout() []layout.Layout {
	return []layout.Layout{
		layout.NewRows("user-details",
			layout.Column{Name: "name", Title: "Name"},
			layout.Column{Name: "email", Title: "Email"},
			layout.Column{Name: "permissions", Title: "Permissions"},
		),
	}
}

func (s *userEditScreen) Methods() []screen.Method {
	userParam := screen.Param{Name: "user", Type: "user", HasDefault: true}

	return []screen.Method{
		{
			Name:   screen.QueryMethod,
			Params: []screen.Param{userParam},
			Func: func(ctx context.Context, args []any) (any, error) {
				u, _ := args[0].(*User)
				if u == nil {
					u = &User{}
				}
				return map[string]any{
					"id":          u.ID,
					"name":        u.Name,
					"email":       u.Email,
					"permissions": strings.Join(u.Permissions, ","),
				}, nil
			},
		},
		{
			Name: "save",
			Params: []screen.Param{
				userParam,
				{Name: "name"},
				{Name: "email"},
				{Name: "permissions", HasDefault: true, Default: ""},
			},
			Func: func(ctx context.Context, args []any) (any, error) {
				u, _ := args[0].(*User)
				if u == nil {
					u = &User{}
				}
				u.Name, _ = args[1].(string)
				u.Email, _ = args[2].(string)
				perms, _ := args[3].(string)
				u.Permissions = splitPerms(perms)
				if err := s.store.save(ctx, u); err != nil {
					return nil, err
				}
				return nil, nil
			},
		},
	}
}
