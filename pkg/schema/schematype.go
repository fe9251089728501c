package schema

import (
	"maps"
	"slices"
)

// SchemaType describes a persisted path: its type, default, constraints, raw
// options, and the setter chain applied on every write.
type SchemaType struct {
	path         string
	typ          Type
	defaultValue any
	required     bool
	enum         []any
	options      Options
	setters      []Setter
}

func newSchemaType(path string, field Field) *SchemaType {
	typ := field.Type
	if typ == "" {
		typ = Mixed
	}
	return &SchemaType{
		path:         path,
		typ:          typ,
		defaultValue: field.Default,
		required:     field.Required,
		enum:         slices.Clone(field.Enum),
		options:      maps.Clone(field.Options),
	}
}

func (st *SchemaType) Path() string { return st.path }
func (st *SchemaType) Type() Type   { return st.typ }

// Default returns the declared default value, nil when none was declared.
func (st *SchemaType) Default() any { return st.defaultValue }

func (st *SchemaType) Required() bool { return st.required }
func (st *SchemaType) Enum() []any    { return slices.Clone(st.enum) }

// Option returns a raw option value declared on the field.
func (st *SchemaType) Option(key string) (any, bool) {
	value, ok := st.options[key]
	return value, ok
}

// Options returns a copy of the raw field options.
func (st *SchemaType) Options() Options {
	return maps.Clone(st.options)
}

// Set appends a setter to the write chain.
func (st *SchemaType) Set(fn Setter) *SchemaType {
	if fn != nil {
		st.setters = append(st.setters, fn)
	}
	return st
}

// apply runs the setter chain and casts the result.
func (st *SchemaType) apply(doc *Document, value any) (any, error) {
	current := value
	for _, setter := range st.setters {
		next, err := setter(doc, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return st.cast(current)
}

func (st *SchemaType) cast(value any) (any, error) {
	out, err := st.typ.Cast(value)
	if err != nil {
		return nil, &CastError{Path: st.path, Type: st.typ, Value: value, Err: err}
	}
	return out, nil
}

// VirtualType is a computed, never persisted property.
type VirtualType struct {
	name    string
	typ     Type
	getter  Getter
	setters []VirtualSetter
}

func (v *VirtualType) Name() string { return v.name }

// Type returns the declared value type, Mixed when none was declared.
func (v *VirtualType) Type() Type {
	if v.typ == "" {
		return Mixed
	}
	return v.typ
}

// Typed records the value type the virtual exposes. It is descriptive only;
// virtual values are never cast.
func (v *VirtualType) Typed(t Type) *VirtualType {
	v.typ = t
	return v
}

// Get installs the getter, replacing any previous one.
func (v *VirtualType) Get(fn Getter) *VirtualType {
	v.getter = fn
	return v
}

// Set appends a setter; all setters run in registration order.
func (v *VirtualType) Set(fn VirtualSetter) *VirtualType {
	if fn != nil {
		v.setters = append(v.setters, fn)
	}
	return v
}

func (v *VirtualType) get(doc *Document) (any, error) {
	if v.getter == nil {
		return nil, nil
	}
	return v.getter(doc)
}

func (v *VirtualType) set(doc *Document, value any) error {
	for _, setter := range v.setters {
		if err := setter(doc, value); err != nil {
			return err
		}
	}
	return nil
}
