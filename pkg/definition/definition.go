// Package definition loads schemas declared in YAML, including their
// transient fields, and builds them into plugin-augmented schemas.
//
//	name: users
//	engine: expr
//	fields:
//	  role:
//	    type: string
//	  description:
//	    type: string
//	    transient:
//	      as: roleDescription
//	      get: '"The user role is " + value'
//	      linkTo: [role]
//
// Field order in the document is the declaration order of the schema.
// Overlays are merged over the base definition with layering.MergeLayers;
// fields an overlay introduces are appended after the base fields.
package definition

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-transient/layering"
)

// ErrInvalidDefinition wraps every structural problem found while loading.
var ErrInvalidDefinition = errors.New("definition: invalid definition")

// Engine names accepted by the engine key.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Definition is a loaded, merged schema declaration.
type Definition struct {
	Name   string
	Engine string
	Fields []Field
}

// Field is one declared path. Transient holds the raw transient declaration:
// a bool, a shadow slot name, or a mapping with get/set/as/args/linkTo.
type Field struct {
	Path      string
	Type      string
	Default   any
	Required  bool
	Enum      []any
	Transient any
}

var (
	topLevelKeys = []string{"name", "engine", "fields"}
	fieldKeys    = []string{"type", "default", "required", "enum", "transient"}
)

// Parse loads a single YAML definition.
func Parse(data []byte) (*Definition, error) {
	return Load(data)
}

// Load parses base and merges overlays over it. Overlays are applied in
// order, so later overlays win.
func Load(base []byte, overlays ...[]byte) (*Definition, error) {
	raw, order, err := decodeLayer(base)
	if err != nil {
		return nil, err
	}
	layers := []map[string]any{raw}
	for i, overlay := range overlays {
		layer, overlayOrder, err := decodeLayer(overlay)
		if err != nil {
			return nil, fmt.Errorf("overlay %d: %w", i, err)
		}
		layers = append(layers, layer)
		for _, path := range overlayOrder {
			if !slices.Contains(order, path) {
				order = append(order, path)
			}
		}
	}
	slices.Reverse(layers)
	merged := layering.MergeLayers(layers...)
	return fromMap(merged, order)
}

// LoadFiles reads base and overlay files from disk and calls Load.
func LoadFiles(base string, overlays ...string) (*Definition, error) {
	baseData, err := os.ReadFile(base)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", base, err)
	}
	overlayData := make([][]byte, 0, len(overlays))
	for _, path := range overlays {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("definition: read %s: %w", path, err)
		}
		overlayData = append(overlayData, data)
	}
	return Load(baseData, overlayData...)
}

// Paths returns the declared paths in order.
func (d *Definition) Paths() []string {
	paths := make([]string, len(d.Fields))
	for i, field := range d.Fields {
		paths[i] = field.Path
	}
	return paths
}

// Field returns the declaration for path.
func (d *Definition) Field(path string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Path == path {
			return field, true
		}
	}
	return Field{}, false
}

func decodeLayer(data []byte) (map[string]any, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if len(root.Content) == 0 {
		return map[string]any{}, nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: document must be a mapping", ErrInvalidDefinition)
	}

	var order []string
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "fields" {
			continue
		}
		fields := doc.Content[i+1]
		if fields.Kind != yaml.MappingNode {
			return nil, nil, fmt.Errorf("%w: fields must be a mapping", ErrInvalidDefinition)
		}
		for j := 0; j+1 < len(fields.Content); j += 2 {
			order = append(order, fields.Content[j].Value)
		}
	}

	raw := map[string]any{}
	if err := doc.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return raw, order, nil
}

func fromMap(raw map[string]any, order []string) (*Definition, error) {
	for key := range raw {
		if !slices.Contains(topLevelKeys, key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidDefinition, key)
		}
	}
	def := &Definition{}
	var err error
	if def.Name, err = stringValue(raw["name"], "name"); err != nil {
		return nil, err
	}
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Engine, err = stringValue(raw["engine"], "engine"); err != nil {
		return nil, err
	}
	switch def.Engine {
	case "", EngineExpr, EngineCEL, EngineJS:
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidDefinition, def.Engine)
	}

	fields, _ := raw["fields"].(map[string]any)
	if raw["fields"] != nil && fields == nil {
		return nil, fmt.Errorf("%w: fields must be a mapping", ErrInvalidDefinition)
	}
	for _, path := range order {
		raw, ok := fields[path]
		if !ok {
			continue
		}
		field, err := parseField(path, raw)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, field)
	}
	return def, nil
}

func parseField(path string, raw any) (Field, error) {
	field := Field{Path: path}
	if raw == nil {
		return field, nil
	}
	attrs, ok := raw.(map[string]any)
	if !ok {
		return Field{}, fmt.Errorf("%w: field %q must be a mapping", ErrInvalidDefinition, path)
	}
	for key := range attrs {
		if !slices.Contains(fieldKeys, key) {
			return Field{}, fmt.Errorf("%w: field %q: unknown key %q", ErrInvalidDefinition, path, key)
		}
	}
	var err error
	if field.Type, err = stringValue(attrs["type"], path+".type"); err != nil {
		return Field{}, err
	}
	if required, ok := attrs["required"]; ok && required != nil {
		flag, ok := required.(bool)
		if !ok {
			return Field{}, fmt.Errorf("%w: field %q: required must be a bool", ErrInvalidDefinition, path)
		}
		field.Required = flag
	}
	if enum, ok := attrs["enum"]; ok && enum != nil {
		values, ok := enum.([]any)
		if !ok {
			return Field{}, fmt.Errorf("%w: field %q: enum must be a list", ErrInvalidDefinition, path)
		}
		field.Enum = values
	}
	field.Default = attrs["default"]
	field.Transient = attrs["transient"]
	return field, nil
}

func stringValue(value any, key string) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidDefinition, key, value)
	}
	return s, nil
}
