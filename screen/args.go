package screen

import (
	"net/url"
	"sort"
)

// Arg is one raw request value with the key it arrived under. Values from
// the query string keep their query key; positional path values carry their
// route-variable name.
type Arg struct {
	Key   string
	Value any
}

// Args is the ordered raw-argument list handed to the binder.
type Args []Arg

// Lookup returns the value stored under key.
func (a Args) Lookup(key string) (any, bool) {
	for _, e := range a {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// At returns the value at position i.
func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a) {
		return nil, false
	}
	return a[i].Value, true
}

// MergeArgs layers query values first (sorted by key for a deterministic
// order) and positional values second; a positional value overwrites a
// same-keyed query value in place, so positional wins. Empty values and the
// state token are filtered out before merging.
func MergeArgs(query url.Values, positional []Arg) Args {
	keys := make([]string, 0, len(query))
	for k, vs := range query {
		if k == StateTokenField || len(vs) == 0 || vs[0] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Args, 0, len(keys)+len(positional))
	for _, k := range keys {
		out = append(out, Arg{Key: k, Value: query.Get(k)})
	}

	for _, p := range positional {
		if s, isStr := p.Value.(string); isStr && s == "" {
			continue
		}
		replaced := false
		for i := range out {
			if p.Key != "" && out[i].Key == p.Key {
				out[i].Value = p.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}
