// Package access evaluates declared permission sets against the current
// request principal. It holds no storage: how permissions are granted and
// persisted is the host application's concern, the guard only answers the
// yes/no question at dispatch time.
package access

import "context"

// Principal is the authenticated caller of the current request.
type Principal interface {
	// ID returns a stable identifier for the principal, or "" if anonymous.
	ID() string
	// HasPermission reports whether the principal holds the permission.
	HasPermission(id string) bool
}

// Check evaluates a declared permission set against a principal.
//
// An empty set grants access unconditionally. A non-empty set grants access
// iff the principal holds at least one of the listed identifiers (OR, not
// AND). A nil principal holds no permissions, so a non-empty set denies it.
func Check(permissions []string, p Principal) bool {
	if len(permissions) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	for _, id := range permissions {
		if p.HasPermission(id) {
			return true
		}
	}
	return false
}

// PrincipalID returns p.ID(), or "" for a nil principal.
func PrincipalID(p Principal) string {
	if p == nil {
		return ""
	}
	return p.ID()
}

type principalKey struct{}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from the context, or nil if absent.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
