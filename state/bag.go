// Package state carries a screen's exposed state across the partial-update
// life cycle. A Bag holds the declared field set for one screen instance;
// Store persists Bag snapshots in a shared cache under single-use keys.
package state

import (
	"net/url"
)

// Field declares one exposed-state field with its default value.
type Field struct {
	Name    string
	Default any
}

// Bag is the exposed state of a screen instance. Only fields declared at
// construction are ever written; everything else is ignored. A Bag is
// request-local and needs no locking.
type Bag struct {
	order  []string
	values map[string]any
}

// NewBag creates a Bag from the declared field set, each field starting at
// its default value. Duplicate names keep the first declaration.
func NewBag(fields ...Field) *Bag {
	b := &Bag{values: make(map[string]any, len(fields))}
	for _, f := range fields {
		if _, ok := b.values[f.Name]; ok {
			continue
		}
		b.order = append(b.order, f.Name)
		b.values[f.Name] = f.Default
	}
	return b
}

// Names returns the declared field names in declaration order.
func (b *Bag) Names() []string {
	return append([]string(nil), b.order...)
}

// Has reports whether name is a declared field.
func (b *Bag) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Get returns the current value of a declared field, or nil.
func (b *Bag) Get(name string) any {
	return b.values[name]
}

// GetString returns the field value as a string, or "" when absent or not a
// string.
func (b *Bag) GetString(name string) string {
	s, _ := b.values[name].(string)
	return s
}

// Set writes a declared field. Undeclared names are ignored.
func (b *Bag) Set(name string, value any) {
	if _, ok := b.values[name]; ok {
		b.values[name] = value
	}
}

// Fill writes every declared field present in values, ignoring the rest.
// This is the initial capture step: only the declared set is eligible.
func (b *Bag) Fill(values map[string]any) {
	for name, v := range values {
		b.Set(name, v)
	}
}

// FillValues is Fill for query-string data. Single values are stored as
// strings, repeated keys as []string.
func (b *Bag) FillValues(values url.Values) {
	for name, vs := range values {
		if len(vs) == 0 {
			continue
		}
		if len(vs) == 1 {
			b.Set(name, vs[0])
			continue
		}
		b.Set(name, append([]string(nil), vs...))
	}
}

// Apply writes a restored snapshot onto the bag. Declared fields are set,
// unknown keys are dropped. The snapshot itself is trusted as-is: filtering
// by the declared set happens here, not in the store.
func (b *Bag) Apply(snapshot map[string]any) {
	for name, v := range snapshot {
		b.Set(name, v)
	}
}

// Snapshot returns a copy of the current field values keyed by name.
func (b *Bag) Snapshot() map[string]any {
	out := make(map[string]any, len(b.order))
	for _, name := range b.order {
		out[name] = b.values[name]
	}
	return out
}
