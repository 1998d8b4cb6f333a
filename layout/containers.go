package layout

import (
	"bytes"
	"fmt"
	"html/template"
)

var rowsTmpl = template.Must(template.New("rows").Parse(`<dl class="layout-rows" data-fragment="{{.Slug}}">
{{- range .Fields}}
<dt>{{.Title}}</dt><dd>{{.Value}}</dd>
{{- end}}
</dl>
`))

// Rows renders scalar result-set entries as label/value pairs.
type Rows struct {
	slug   string
	fields []Column
}

// NewRows creates a label/value fragment. Each column names a result-set
// key and its label.
func NewRows(slug string, fields ...Column) *Rows {
	return &Rows{slug: slug, fields: fields}
}

// Slug implements Layout.
func (w *Rows) Slug() string { return w.slug }

// Find implements Layout.
func (w *Rows) Find(slug string) (Layout, bool) {
	if slug == w.slug {
		return w, true
	}
	return nil, false
}

// Build implements Layout.
func (w *Rows) Build(r *Repository) (template.HTML, error) {
	type pair struct {
		Title string
		Value template.HTML
	}
	fields := make([]pair, len(w.fields))
	for i, f := range w.fields {
		fields[i] = pair{Title: f.Title, Value: sanitizeCell(r.Get(f.Name))}
	}

	var buf bytes.Buffer
	err := rowsTmpl.Execute(&buf, struct {
		Slug   string
		Fields []pair
	}{w.slug, fields})
	if err != nil {
		return "", fmt.Errorf("layout: rows %q: %w", w.slug, err)
	}
	return template.HTML(buf.String()), nil
}

// BuildAsync implements Async.
func (w *Rows) BuildAsync(r *Repository) (template.HTML, error) {
	return w.Build(r)
}

// Tab is one named pane of a Tabs container.
type Tab struct {
	Title   string
	Content []Layout
}

// Tabs groups child layouts into named panes. The container itself can be
// slugged so a whole pane group is addressable.
type Tabs struct {
	slug string
	tabs []Tab
}

// NewTabs creates a tab container.
func NewTabs(slug string, tabs ...Tab) *Tabs {
	return &Tabs{slug: slug, tabs: tabs}
}

// Slug implements Layout.
func (t *Tabs) Slug() string { return t.slug }

// Find implements Layout. The container matches before its children.
func (t *Tabs) Find(slug string) (Layout, bool) {
	if slug == t.slug {
		return t, true
	}
	for _, tab := range t.tabs {
		if found, ok := FindBySlug(tab.Content, slug); ok {
			return found, true
		}
	}
	return nil, false
}

// Build implements Layout.
func (t *Tabs) Build(r *Repository) (template.HTML, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<div class=\"layout-tabs\" data-fragment=\"%s\">\n", template.HTMLEscapeString(t.slug))
	for _, tab := range t.tabs {
		fmt.Fprintf(&buf, "<section data-tab=\"%s\">\n", template.HTMLEscapeString(tab.Title))
		html, err := BuildAll(tab.Content, r)
		if err != nil {
			return "", err
		}
		buf.WriteString(string(html))
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</div>\n")
	return template.HTML(buf.String()), nil
}

// Blank is an anonymous passthrough container for grouping nodes.
type Blank struct {
	children []Layout
}

// NewBlank groups child layouts without any wrapper markup of its own.
func NewBlank(children ...Layout) *Blank {
	return &Blank{children: children}
}

// Slug implements Layout. A Blank has no identity.
func (b *Blank) Slug() string { return "" }

// Find implements Layout.
func (b *Blank) Find(slug string) (Layout, bool) {
	return FindBySlug(b.children, slug)
}

// Build implements Layout.
func (b *Blank) Build(r *Repository) (template.HTML, error) {
	return BuildAll(b.children, r)
}
