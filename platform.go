// Package platform mounts screens on a chi router and maps the dispatch
// core's error taxonomy onto HTTP responses. It is the host-side glue: the
// screen, layout, state, and access packages stay transport-agnostic while
// this package owns status codes, redirects, and page chrome.
package platform

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/thewebartisan7/platform/layout"
	"github.com/thewebartisan7/platform/screen"
)

var chromeTmpl = template.Must(template.New("chrome").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
<header>
<h1>{{.Name}}</h1>
{{- if .Description}}
<p>{{.Description}}</p>
{{- end}}
{{- if .CommandBar}}
<nav class="command-bar">
{{- range .CommandBar}}
<a href="{{.Href}}" data-method="{{.Method}}">{{.Name}}</a>
{{- end}}
</nav>
{{- end}}
</header>
<main>
<form method="post">
<input type="hidden" name="{{.TokenField}}" value="{{.StateKey}}">
{{.Body}}
</form>
</main>
</body>
</html>
`))

type chromeData struct {
	Name        string
	Description string
	CommandBar  []layout.Action
	Body        template.HTML
	StateKey    string
	TokenField  string
}

// respond writes one dispatch result. The taxonomy maps to standard status
// codes; any other failure is a 500. Handler-returned values that are not
// pages, redirects, or markup are serialized as JSON.
func respond(w http.ResponseWriter, r *http.Request, result any, err error, logger *slog.Logger) {
	if err != nil {
		switch {
		case screen.IsForbidden(err):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case screen.IsNotFound(err):
			http.Error(w, "Not Found", http.StatusNotFound)
		default:
			logger.Error("screen dispatch failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	switch v := result.(type) {
	case *screen.Page:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := chromeTmpl.Execute(w, chromeData{
			Name:        v.Name,
			Description: v.Description,
			CommandBar:  v.CommandBar,
			Body:        v.Body,
			StateKey:    v.StateKey,
			TokenField:  screen.StateTokenField,
		})
		if err != nil {
			logger.Error("page chrome render failed", "error", err)
		}
	case *screen.Redirect:
		target := v.URL
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	case template.HTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(v))
	case string:
		_, _ = w.Write([]byte(v))
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("response encode failed", "error", err)
		}
	}
}
