package layout

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// cellPolicy strips everything but basic user-generated markup from cell
// values before they are marked safe for the template.
var cellPolicy = bluemonday.UGCPolicy()

var tableTmpl = template.Must(template.New("table").Parse(`<div class="layout-table" data-fragment="{{.Slug}}">
<table>
<thead><tr>{{range .Columns}}<th>{{.Title}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</div>
`))

// Column declares one table column: the row key it reads and its header.
type Column struct {
	Name  string
	Title string
}

// Table renders a result-set entry as an HTML table. The entry under Target
// must be a []map[string]any. A Table is a leaf fragment: its slug
// addresses it for async refresh and BuildAsync re-renders just the table.
type Table struct {
	slug    string
	target  string
	columns []Column
}

// NewTable creates a table fragment reading rows from the result-set key
// target.
func NewTable(slug, target string, columns ...Column) *Table {
	return &Table{slug: slug, target: target, columns: columns}
}

// Slug implements Layout.
func (t *Table) Slug() string { return t.slug }

// Find implements Layout.
func (t *Table) Find(slug string) (Layout, bool) {
	if slug == t.slug {
		return t, true
	}
	return nil, false
}

// Build implements Layout.
func (t *Table) Build(r *Repository) (template.HTML, error) {
	rows, err := tableRows(r.Get(t.target))
	if err != nil {
		return "", fmt.Errorf("layout: table %q: %w", t.slug, err)
	}

	rendered := make([][]template.HTML, 0, len(rows))
	for _, row := range rows {
		cells := make([]template.HTML, len(t.columns))
		for i, col := range t.columns {
			cells[i] = sanitizeCell(row[col.Name])
		}
		rendered = append(rendered, cells)
	}

	var buf bytes.Buffer
	err = tableTmpl.Execute(&buf, struct {
		Slug    string
		Columns []Column
		Rows    [][]template.HTML
	}{t.slug, t.columns, rendered})
	if err != nil {
		return "", fmt.Errorf("layout: table %q: %w", t.slug, err)
	}
	return template.HTML(buf.String()), nil
}

// BuildAsync implements Async. A table's async representation is the table
// itself, rebuilt against the fresh result set.
func (t *Table) BuildAsync(r *Repository) (template.HTML, error) {
	return t.Build(r)
}

func tableRows(v any) ([]map[string]any, error) {
	switch rows := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return rows, nil
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("row has type %T, want map", r)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("target has type %T, want row slice", v)
	}
}

// sanitizeCell turns an arbitrary cell value into template-safe HTML.
// Strings pass through the bluemonday policy; everything else renders via
// Sprint and full escaping.
func sanitizeCell(v any) template.HTML {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return template.HTML(cellPolicy.Sanitize(s))
	case template.HTML:
		return template.HTML(cellPolicy.Sanitize(string(s)))
	default:
		return template.HTML(template.HTMLEscapeString(fmt.Sprint(s)))
	}
}
