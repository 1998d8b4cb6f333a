package route

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FromRequest builds a Context from a chi-routed request. The variable
// count comes from the matched route pattern; positional arguments and
// named parameters come from the chi route context in route order. For
// non-GET requests the parsed form is merged into the query mapping.
func FromRequest(r *http.Request, mountPath string) *Context {
	c := &Context{
		Method:    r.Method,
		MountPath: mountPath,
		Params:    Params{},
		Query:     r.URL.Query(),
		Referer:   r.Referer(),
	}

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		c.VarCount = strings.Count(rctx.RoutePattern(), "{")
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			val := rctx.URLParams.Values[i]
			if val == "" {
				continue
			}
			c.Args = append(c.Args, val)
			c.ArgNames = append(c.ArgNames, key)
			c.Params.Set(key, val)
		}
	}

	if r.Method != http.MethodGet {
		if err := r.ParseForm(); err == nil {
			c.Query = mergeValues(r.URL.Query(), r.PostForm)
		}
	}

	return c
}

func mergeValues(base, extra url.Values) url.Values {
	out := url.Values{}
	for k, vs := range base {
		out[k] = append([]string(nil), vs...)
	}
	for k, vs := range extra {
		out[k] = append(out[k], vs...)
	}
	return out
}
