package schema

import (
	"context"
	"fmt"
	"maps"
	"reflect"

	"github.com/goliatone/go-transient/layering"
	"github.com/google/uuid"
)

// Reserved record keys.
const (
	IDKey      = "_id"
	VersionKey = "__v"
)

// Document is an instance of a schema. Persisted paths live in values; private
// slots (used by plugins as backing storage for virtuals) live apart and are
// never part of ToObject.
type Document struct {
	schema   *Schema
	id       string
	version  int
	isNew    bool
	values   map[string]any
	slots    map[string]any
	modified map[string]struct{}
	invalid  map[string]string
}

func newDocument(s *Schema) *Document {
	return &Document{
		schema:   s,
		values:   map[string]any{},
		slots:    map[string]any{},
		modified: map[string]struct{}{},
		invalid:  map[string]string{},
	}
}

// New creates an unsaved document. Defaults are applied first through their
// setters, then supplied persisted paths in declaration order, then supplied
// virtuals in registration order. Keys that are neither are ignored.
func (s *Schema) New(fields map[string]any) (*Document, error) {
	d := newDocument(s)
	d.isNew = true
	d.id = uuid.NewString()
	if raw, ok := fields[IDKey]; ok && raw != nil {
		d.id = fmt.Sprint(raw)
	}
	if err := d.applyDefaults(true); err != nil {
		return nil, err
	}
	for _, path := range s.order {
		value, ok := fields[path]
		if !ok {
			continue
		}
		if err := d.Set(path, value); err != nil {
			return nil, err
		}
	}
	for _, name := range s.virtualOrder {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := d.Set(name, value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Hydrate rebuilds a saved document from a persisted record. Setters do not
// run; values are only cast.
func (s *Schema) Hydrate(record map[string]any) (*Document, error) {
	d := newDocument(s)
	if raw, ok := record[IDKey]; ok && raw != nil {
		d.id = fmt.Sprint(raw)
	}
	if raw, ok := record[VersionKey]; ok {
		if n, ok := toFloat(raw); ok {
			d.version = int(n)
		}
	}
	if err := d.applyDefaults(false); err != nil {
		return nil, err
	}
	for _, path := range s.order {
		value, ok := record[path]
		if !ok {
			continue
		}
		cast, err := s.paths[path].cast(value)
		if err != nil {
			return nil, err
		}
		d.values[path] = cast
	}
	return d, nil
}

// applyDefaults fills paths that declare a default. New documents run the
// setter chain so interceptors such as links observe the default; hydrated
// documents only cast.
func (d *Document) applyDefaults(runSetters bool) error {
	for _, path := range d.schema.order {
		st := d.schema.paths[path]
		if st.defaultValue == nil {
			continue
		}
		var (
			value any
			err   error
		)
		if runSetters {
			value, err = st.apply(d, layering.Clone(st.defaultValue))
		} else {
			value, err = st.cast(layering.Clone(st.defaultValue))
		}
		if err != nil {
			return err
		}
		d.values[path] = value
	}
	return nil
}

func (d *Document) Schema() *Schema { return d.schema }
func (d *Document) ID() string      { return d.id }
func (d *Document) Version() int    { return d.version }
func (d *Document) IsNew() bool     { return d.isNew }

// Get reads a virtual or persisted path.
func (d *Document) Get(path string) (any, error) {
	if path == IDKey {
		return d.id, nil
	}
	if v, ok := d.schema.virtuals[path]; ok {
		return v.get(d)
	}
	if _, ok := d.schema.paths[path]; ok {
		return d.values[path], nil
	}
	return nil, &PathError{Op: "get", Path: path}
}

// Set writes a virtual or persisted path. Persisted writes run the path's
// setter chain and cast before storing.
func (d *Document) Set(path string, value any) error {
	if path == IDKey {
		d.id = fmt.Sprint(value)
		return nil
	}
	if v, ok := d.schema.virtuals[path]; ok {
		return v.set(d, value)
	}
	st, ok := d.schema.paths[path]
	if !ok {
		return &PathError{Op: "set", Path: path}
	}
	out, err := st.apply(d, value)
	if err != nil {
		return err
	}
	d.values[path] = out
	d.modified[path] = struct{}{}
	return nil
}

// Slot reads a private slot.
func (d *Document) Slot(name string) (any, bool) {
	value, ok := d.slots[name]
	return value, ok
}

// SetSlot writes a private slot.
func (d *Document) SetSlot(name string, value any) {
	d.slots[name] = value
}

// IsModified reports whether path was written since the last save.
func (d *Document) IsModified(path string) bool {
	_, ok := d.modified[path]
	return ok
}

// ToObject returns the persisted representation: the id, every persisted
// path holding a value, and the version once saved. Virtuals and slots are
// never included.
func (d *Document) ToObject() map[string]any {
	out := make(map[string]any, len(d.values)+2)
	out[IDKey] = d.id
	for _, path := range d.schema.order {
		value, ok := d.values[path]
		if !ok || value == nil {
			continue
		}
		out[path] = layering.Clone(value)
	}
	if !d.isNew {
		out[VersionKey] = d.version
	}
	return out
}

// Invalidate records a validation failure for path.
func (d *Document) Invalidate(path, message string) {
	d.invalid[path] = message
}

// Errors returns the failures recorded by the last Validate.
func (d *Document) Errors() map[string]string {
	return maps.Clone(d.invalid)
}

// Validate runs HookValidate hooks, then required and enum checks. A hook
// error aborts validation and is returned as is.
func (d *Document) Validate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d.invalid = map[string]string{}
	for _, hook := range d.schema.hooks[HookValidate] {
		if err := hook(ctx, d); err != nil {
			return err
		}
	}
	for _, path := range d.schema.order {
		st := d.schema.paths[path]
		value := d.values[path]
		if st.required && value == nil {
			d.invalid[path] = fmt.Sprintf("Path `%s` is required.", path)
			continue
		}
		if len(st.enum) > 0 && value != nil && !enumContains(st.enum, value) {
			d.invalid[path] = fmt.Sprintf("`%v` is not a valid enum value for path `%s`.", value, path)
		}
	}
	if len(d.invalid) > 0 {
		return &ValidationError{Errors: maps.Clone(d.invalid)}
	}
	return nil
}

// MarkSaved flags the document as persisted and clears modification state.
func (d *Document) MarkSaved(version int) {
	d.isNew = false
	d.version = version
	d.modified = map[string]struct{}{}
}

func enumContains(enum []any, value any) bool {
	for _, candidate := range enum {
		if reflect.DeepEqual(candidate, value) {
			return true
		}
		if a, ok := toFloat(candidate); ok {
			if b, ok := toFloat(value); ok && a == b {
				return true
			}
		}
	}
	return false
}
