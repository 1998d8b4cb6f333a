package screen

import (
	"errors"
	"fmt"
	"strings"
)

// ForbiddenError is returned when the caller fails the screen's permission
// check. Maps to a 403 response; never retried.
type ForbiddenError struct {
	Screen      string
	Permissions []string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("screen %q: access denied (requires one of: %s)",
		e.Screen, strings.Join(e.Permissions, ", "))
}

// MethodNotFoundError is returned when the target handler method does not
// exist on the screen. Maps to a 404 response.
type MethodNotFoundError struct {
	Screen string
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("screen %q: no handler method %q", e.Screen, e.Method)
}

// FragmentNotFoundError is returned when no layout fragment matches the
// requested slug. Maps to a 404 response.
type FragmentNotFoundError struct {
	Screen string
	Slug   string
}

func (e *FragmentNotFoundError) Error() string {
	return fmt.Sprintf("screen %q: no layout fragment %q", e.Screen, e.Slug)
}

// EntityNotFoundError is returned when a route-bindable parameter's key
// lookup yields nothing and the parameter has no default. Maps to a 404
// response.
type EntityNotFoundError struct {
	Type string
	Key  string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("no %s found for key %q", e.Type, e.Key)
}

// BindError is returned when the dependency resolver cannot produce an
// instance for a declared parameter type. This is a programming error in
// the screen definition, not a request-time condition.
type BindError struct {
	Param string
	Type  string
	Cause error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind parameter %q (type %s): %v", e.Param, e.Type, e.Cause)
}

func (e *BindError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is any of the 404-equivalent conditions:
// missing method, missing fragment, or failed entity lookup.
func IsNotFound(err error) bool {
	var method *MethodNotFoundError
	var fragment *FragmentNotFoundError
	var entity *EntityNotFoundError
	return errors.As(err, &method) || errors.As(err, &fragment) || errors.As(err, &entity)
}

// IsForbidden reports whether err is the 403-equivalent condition.
func IsForbidden(err error) bool {
	var forbidden *ForbiddenError
	return errors.As(err, &forbidden)
}
