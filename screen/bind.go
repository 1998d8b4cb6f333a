package screen

import (
	"context"
	"fmt"

	"github.com/thewebartisan7/platform/route"
)

// Bind maps raw request arguments onto a method's declared parameter list,
// returning one bound value per parameter in declaration order.
//
// Per parameter: a scalar type binds the raw value unchanged (nil when
// absent, the declared default when one exists); a raw value that is
// already a constructed object passes through regardless of declared type;
// otherwise a fresh instance comes from the resolver, and if that instance
// is route-bindable and a raw value was supplied, the value is resolved as
// a lookup key. A failed lookup on a parameter without a default is an
// EntityNotFoundError. Resolved entities are recorded back into params
// under the parameter name.
func Bind(ctx context.Context, m Method, args Args, res Resolver, params route.Params) ([]any, error) {
	bound := make([]any, len(m.Params))

	for i, p := range m.Params {
		raw, supplied := args.Lookup(p.Name)
		if !supplied {
			raw, supplied = args.At(i)
		}

		if p.Type == "" {
			if !supplied && p.HasDefault {
				bound[i] = p.Default
				continue
			}
			bound[i] = raw
			continue
		}

		// The caller already resolved this one.
		if supplied && !isScalar(raw) {
			bound[i] = raw
			continue
		}

		if res == nil {
			return nil, &BindError{Param: p.Name, Type: p.Type,
				Cause: fmt.Errorf("no resolver configured")}
		}
		inst, err := res.Resolve(p.Type)
		if err != nil {
			return nil, &BindError{Param: p.Name, Type: p.Type, Cause: err}
		}

		rb, bindable := inst.(RouteBindable)
		if !supplied || !bindable {
			bound[i] = inst
			continue
		}

		key := fmt.Sprint(raw)
		entity, found, err := rb.ResolveByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve %s by key %q: %w", p.Type, key, err)
		}
		if !found {
			if p.HasDefault {
				bound[i] = inst
				continue
			}
			return nil, &EntityNotFoundError{Type: p.Type, Key: key}
		}

		if params != nil {
			params.Set(p.Name, entity)
		}
		bound[i] = entity
	}

	return bound, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
