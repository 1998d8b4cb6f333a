package layout_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/thewebartisan7/platform/layout"
)

func TestRepository(t *testing.T) {
	r := layout.NewRepository(map[string]any{"name": "Ada", "n": 3})

	if got := r.GetString("name"); got != "Ada" {
		t.Fatalf("got %q, want Ada", got)
	}
	if !r.Has("n") {
		t.Fatal("expected key n")
	}
	if r.Has("missing") || r.Get("missing") != nil {
		t.Fatal("missing key should be absent and nil")
	}

	merged := r.Merge(map[string]any{"name": "Grace"})
	if got := merged.GetString("name"); got != "Grace" {
		t.Fatalf("merge should overlay, got %q", got)
	}
	if got := r.GetString("name"); got != "Ada" {
		t.Fatal("merge must not mutate the source")
	}
}

func TestTableBuild(t *testing.T) {
	table := layout.NewTable("users-table", "users",
		layout.Column{Name: "name", Title: "Name"},
		layout.Column{Name: "email", Title: "Email"},
	)
	repo := layout.NewRepository(map[string]any{
		"users": []map[string]any{
			{"name": "Ada", "email": "ada@example.com"},
			{"name": "Grace", "email": "grace@example.com"},
		},
	})

	html, err := table.Build(repo)
	if err != nil {
		t.Fatal(err)
	}
	s := string(html)
	if !strings.Contains(s, `data-fragment="users-table"`) {
		t.Fatalf("missing fragment marker in %s", s)
	}
	if !strings.Contains(s, "<td>Ada</td>") || !strings.Contains(s, "<td>Grace</td>") {
		t.Fatalf("missing rows in %s", s)
	}
	if !strings.Contains(s, "<th>Email</th>") {
		t.Fatalf("missing header in %s", s)
	}
}

func TestTableSanitizesCells(t *testing.T) {
	table := layout.NewTable("t", "rows", layout.Column{Name: "v", Title: "V"})
	repo := layout.NewRepository(map[string]any{
		"rows": []map[string]any{
			{"v": `<script>alert(1)</script><b>ok</b>`},
		},
	})

	html, err := table.Build(repo)
	if err != nil {
		t.Fatal(err)
	}
	s := string(html)
	if strings.Contains(s, "<script>") {
		t.Fatalf("script tag survived sanitation: %s", s)
	}
	if !strings.Contains(s, "<b>ok</b>") {
		t.Fatalf("benign markup should survive: %s", s)
	}
}

func TestTableEmptyTarget(t *testing.T) {
	table := layout.NewTable("t", "rows", layout.Column{Name: "v", Title: "V"})
	if _, err := table.Build(layout.NewRepository(nil)); err != nil {
		t.Fatalf("absent target should render empty, got %v", err)
	}
}

func TestTableBadTarget(t *testing.T) {
	table := layout.NewTable("t", "rows", layout.Column{Name: "v", Title: "V"})
	repo := layout.NewRepository(map[string]any{"rows": "not a slice"})
	if _, err := table.Build(repo); err == nil {
		t.Fatal("expected an error for a non-slice target")
	}
}

func TestRowsBuild(t *testing.T) {
	rows := layout.NewRows("user-info",
		layout.Column{Name: "name", Title: "Name"},
	)
	html, err := rows.Build(layout.NewRepository(map[string]any{"name": "Ada"}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "<dd>Ada</dd>") {
		t.Fatalf("missing value in %s", html)
	}
}

func TestFindBySlugDepthFirst(t *testing.T) {
	inner := layout.NewTable("users-table", "users")
	tree := []layout.Layout{
		layout.NewRows("summary", layout.Column{Name: "total", Title: "Total"}),
		layout.NewTabs("main-tabs",
			layout.Tab{Title: "Users", Content: []layout.Layout{layout.NewBlank(inner)}},
		),
	}

	found, ok := layout.FindBySlug(tree, "users-table")
	if !ok {
		t.Fatal("expected to find users-table")
	}
	if found != layout.Layout(inner) {
		t.Fatal("found the wrong node")
	}

	if _, ok := layout.FindBySlug(tree, "nope"); ok {
		t.Fatal("unknown slug should not match")
	}

	// Container slug matches the container itself.
	found, ok = layout.FindBySlug(tree, "main-tabs")
	if !ok || found.Slug() != "main-tabs" {
		t.Fatal("container slug should match the container")
	}
}

func TestDeferredMaterialize(t *testing.T) {
	reg := layout.NewRegistry()
	calls := 0
	reg.Register("users", func() layout.Layout {
		calls++
		return layout.NewTable("users-table", "users")
	})

	ref := layout.Deferred("users")
	nodes := []layout.Layout{ref, layout.NewBlank()}

	resolved, err := layout.Materialize(nodes, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := resolved[0].(*layout.Table); !ok {
		t.Fatalf("got %T, want *layout.Table", resolved[0])
	}
	if !ref.Resolved() {
		t.Fatal("reference should memoize its instance")
	}

	// Second materialize reuses the memoized instance.
	if _, err := layout.Materialize(nodes, reg); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("constructor ran %d times, want 1", calls)
	}
}

func TestMaterializeUnknownReference(t *testing.T) {
	_, err := layout.Materialize([]layout.Layout{layout.Deferred("ghost")}, layout.NewRegistry())
	var unknown *layout.ErrUnknownReference
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want ErrUnknownReference", err)
	}
	if unknown.Name != "ghost" {
		t.Fatalf("got %q, want ghost", unknown.Name)
	}
}

func TestUnresolvedRefBuildFails(t *testing.T) {
	ref := layout.Deferred("ghost")
	if _, err := ref.Build(layout.NewRepository(nil)); err == nil {
		t.Fatal("building an unresolved reference must fail")
	}
	if _, ok := ref.Find("anything"); ok {
		t.Fatal("unresolved reference should not match any slug")
	}
}
