// Package openapi describes a schema as an OpenAPI document. Two components
// are published: the stored shape (id, version and persisted paths) and the
// request shape, which also accepts virtual properties such as transient
// fields. Virtual properties carry the "x-virtual" extension.
package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-transient/layering"
	"github.com/goliatone/go-transient/pkg/schema"
)

// Generator renders schemas into OpenAPI documents.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator with the provided options.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate is shorthand for NewGenerator(opts...).Generate(s).
func Generate(s *schema.Schema, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(s)
}

// Generate renders s.
func (g Generator) Generate(s *schema.Schema) (map[string]any, error) {
	if s == nil {
		return nil, fmt.Errorf("openapi: schema cannot be nil")
	}
	stored, err := storedComponent(s)
	if err != nil {
		return nil, err
	}
	input, err := inputComponent(s)
	if err != nil {
		return nil, err
	}

	name := g.config.rootComponent
	document := map[string]any{
		"openapi": g.config.openAPIVersion,
		"info":    g.buildInfo(),
		"paths":   g.buildPaths(name),
		"components": map[string]any{
			"schemas": map[string]any{
				name:           stored,
				name + "Input": input,
			},
		},
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func storedComponent(s *schema.Schema) (map[string]any, error) {
	properties := map[string]any{
		schema.IDKey:      map[string]any{"type": "string"},
		schema.VersionKey: map[string]any{"type": "integer", "minimum": 0},
	}
	required := []string{schema.IDKey}
	for _, path := range s.Paths() {
		st, err := s.Path(path)
		if err != nil {
			return nil, err
		}
		properties[path] = pathSchema(st)
		if st.Required() {
			required = append(required, path)
		}
	}
	sort.Strings(required)
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}, nil
}

func inputComponent(s *schema.Schema) (map[string]any, error) {
	properties := map[string]any{}
	var required []string
	for _, path := range s.Paths() {
		st, err := s.Path(path)
		if err != nil {
			return nil, err
		}
		properties[path] = pathSchema(st)
		if st.Required() {
			required = append(required, path)
		}
	}
	for _, name := range s.VirtualNames() {
		if _, exists := properties[name]; exists {
			return nil, fmt.Errorf("openapi: virtual %q shadows a persisted path", name)
		}
		v := s.Virtual(name)
		prop := typeSchema(v.Type())
		prop["x-virtual"] = true
		properties[name] = prop
	}
	component := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sort.Strings(required)
		component["required"] = required
	}
	return component, nil
}

func pathSchema(st *schema.SchemaType) map[string]any {
	prop := typeSchema(st.Type())
	if enum := st.Enum(); len(enum) > 0 {
		prop["enum"] = enum
	}
	if def := st.Default(); def != nil {
		prop["default"] = layering.Clone(def)
	}
	return prop
}

func typeSchema(t schema.Type) map[string]any {
	switch t {
	case schema.String:
		return map[string]any{"type": "string"}
	case schema.Number:
		return map[string]any{"type": "number"}
	case schema.Boolean:
		return map[string]any{"type": "boolean"}
	case schema.Date:
		return map[string]any{"type": "string", "format": "date-time"}
	default:
		return map[string]any{}
	}
}

func (g Generator) buildInfo() map[string]any {
	info := map[string]any{
		"title":   g.config.info.Title,
		"version": g.config.info.Version,
	}
	if g.config.info.Description != "" {
		info["description"] = g.config.info.Description
	}
	return info
}

func (g Generator) buildPaths(name string) map[string]any {
	method := strings.ToLower(g.config.operation.Method)
	if method == "" {
		method = "post"
	}

	responses := make(map[string]any, len(g.config.responses))
	for status, resp := range g.config.responses {
		entry := map[string]any{"description": resp.Description}
		if resp.Stored {
			entry["content"] = map[string]any{
				g.config.contentType: map[string]any{"schema": componentRef(name)},
			}
		}
		responses[status] = entry
	}

	operation := map[string]any{
		"operationId": g.operationID(method),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				g.config.contentType: map[string]any{"schema": componentRef(name + "Input")},
			},
		},
		"responses": responses,
	}
	if summary := strings.TrimSpace(g.config.operation.Summary); summary != "" {
		operation["summary"] = summary
	}

	return map[string]any{
		g.config.operation.Path: map[string]any{
			method: operation,
		},
	}
}

func (g Generator) operationID(method string) string {
	if g.config.operation.OperationID != "" {
		return g.config.operation.OperationID
	}
	return fmt.Sprintf("%s:%s", method, g.config.operation.Path)
}

func componentRef(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func validateDocument(document map[string]any) error {
	info, _ := document["info"].(map[string]any)
	if openapi, _ := document["openapi"].(string); openapi == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	for pathKey := range paths {
		if !strings.HasPrefix(pathKey, "/") {
			return fmt.Errorf("openapi: path %q must start with /", pathKey)
		}
	}
	return nil
}
