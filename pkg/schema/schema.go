// Package schema is the document model the transient plugin builds on: a
// schema of ordered persisted paths, virtual (computed) properties, per-path
// setter chains, lifecycle hooks, and map-backed documents with private slots.
//
// A Schema is mutated while it is being built (fields, plugins, hooks) and is
// read-only afterwards. Building is not safe for concurrent use; documents
// created from a built schema may be used from different goroutines as long as
// a single document is not mutated concurrently.
package schema

import (
	"context"
	"fmt"
	"strings"
)

// Hook events understood by Document and the state package.
const (
	HookValidate = "validate"
	HookSave     = "save"
)

// Options carries arbitrary per-field configuration read by plugins.
type Options map[string]any

// Field declares one path of a schema.
type Field struct {
	Path     string
	Type     Type
	Default  any
	Required bool
	Enum     []any
	Options  Options
}

// Setter transforms a value written to a persisted path. The returned value is
// handed to the next setter and finally stored.
type Setter func(doc *Document, value any) (any, error)

// Getter computes the value of a virtual property.
type Getter func(doc *Document) (any, error)

// VirtualSetter receives values written to a virtual property.
type VirtualSetter func(doc *Document, value any) error

// Hook runs at a lifecycle event such as HookValidate.
type Hook func(ctx context.Context, doc *Document) error

// Plugin augments a schema in place.
type Plugin func(*Schema) error

// Schema is an ordered set of persisted paths plus virtual properties.
type Schema struct {
	paths        map[string]*SchemaType
	order        []string
	virtuals     map[string]*VirtualType
	virtualOrder []string
	hooks        map[string][]Hook
}

// New builds a schema from fields in declaration order.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		paths:    make(map[string]*SchemaType, len(fields)),
		virtuals: map[string]*VirtualType{},
		hooks:    map[string][]Hook{},
	}
	for _, field := range fields {
		if err := s.Add(field); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is New that panics on error, for package-level schema variables.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add appends a persisted path.
func (s *Schema) Add(field Field) error {
	path := strings.TrimSpace(field.Path)
	if path == "" {
		return fmt.Errorf("schema: field path must not be empty")
	}
	if path == IDKey || path == VersionKey {
		return fmt.Errorf("schema: path %q is reserved", path)
	}
	if _, exists := s.paths[path]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePath, path)
	}
	if _, exists := s.virtuals[path]; exists {
		return fmt.Errorf("%w: %q is a virtual", ErrDuplicatePath, path)
	}
	s.paths[path] = newSchemaType(path, field)
	s.order = append(s.order, path)
	return nil
}

// EachPath calls fn for every persisted path in declaration order. It iterates
// a snapshot, so fn may remove paths. Iteration stops at the first error.
func (s *Schema) EachPath(fn func(path string, st *SchemaType) error) error {
	snapshot := append([]string(nil), s.order...)
	for _, path := range snapshot {
		st, ok := s.paths[path]
		if !ok {
			continue
		}
		if err := fn(path, st); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the schema type registered for a persisted path.
func (s *Schema) Path(name string) (*SchemaType, error) {
	st, ok := s.paths[name]
	if !ok {
		return nil, &PathError{Op: "path", Path: name}
	}
	return st, nil
}

// HasPath reports whether name is a persisted path.
func (s *Schema) HasPath(name string) bool {
	_, ok := s.paths[name]
	return ok
}

// Paths returns persisted paths in declaration order.
func (s *Schema) Paths() []string {
	return append([]string(nil), s.order...)
}

// Remove detaches a persisted path. It reports whether the path existed.
func (s *Schema) Remove(name string) bool {
	if _, ok := s.paths[name]; !ok {
		return false
	}
	delete(s.paths, name)
	for i, path := range s.order {
		if path == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Virtual returns the virtual property registered under name, creating it on
// first use.
func (s *Schema) Virtual(name string) *VirtualType {
	if v, ok := s.virtuals[name]; ok {
		return v
	}
	v := &VirtualType{name: name}
	s.virtuals[name] = v
	s.virtualOrder = append(s.virtualOrder, name)
	return v
}

// HasVirtual reports whether name is a virtual property.
func (s *Schema) HasVirtual(name string) bool {
	_, ok := s.virtuals[name]
	return ok
}

// VirtualNames returns virtual property names in registration order.
func (s *Schema) VirtualNames() []string {
	return append([]string(nil), s.virtualOrder...)
}

// Plugin applies p to this schema immediately.
func (s *Schema) Plugin(p Plugin) error {
	if p == nil {
		return nil
	}
	return p(s)
}

// Pre registers a hook that runs before event.
func (s *Schema) Pre(event string, hook Hook) {
	if hook == nil {
		return
	}
	s.hooks[event] = append(s.hooks[event], hook)
}

// Hooks returns the hooks registered for event.
func (s *Schema) Hooks(event string) []Hook {
	return append([]Hook(nil), s.hooks[event]...)
}
