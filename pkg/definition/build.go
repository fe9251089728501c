package definition

import (
	"fmt"
	"time"

	transient "github.com/goliatone/go-transient"
	"github.com/goliatone/go-transient/pkg/schema"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	evaluator  transient.Evaluator
	registry   *transient.FunctionRegistry
	cache      transient.ProgramCache
	plugin     []transient.Option
	expression []transient.ExpressionOption
	jsTimeout  time.Duration
}

// WithEvaluator overrides the evaluator selected by the engine key.
func WithEvaluator(evaluator transient.Evaluator) BuildOption {
	return func(cfg *buildConfig) {
		cfg.evaluator = evaluator
	}
}

// WithFunctionRegistry exposes registry functions to get/set expressions.
func WithFunctionRegistry(registry *transient.FunctionRegistry) BuildOption {
	return func(cfg *buildConfig) {
		cfg.registry = registry
	}
}

// WithProgramCache shares compiled programs across builds.
func WithProgramCache(cache transient.ProgramCache) BuildOption {
	return func(cfg *buildConfig) {
		cfg.cache = cache
	}
}

// WithPluginOptions forwards options to the transient plugin.
func WithPluginOptions(opts ...transient.Option) BuildOption {
	return func(cfg *buildConfig) {
		cfg.plugin = append(cfg.plugin, opts...)
	}
}

// WithExpressionOptions forwards options to every compiled expression.
func WithExpressionOptions(opts ...transient.ExpressionOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.expression = append(cfg.expression, opts...)
	}
}

// WithScriptTimeout bounds each js getter or setter run.
func WithScriptTimeout(d time.Duration) BuildOption {
	return func(cfg *buildConfig) {
		cfg.jsTimeout = d
	}
}

// Build compiles the definition's expressions and returns a schema with the
// transient plugin applied.
func (d *Definition) Build(opts ...BuildOption) (*schema.Schema, error) {
	cfg := buildConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	b := builder{def: d, cfg: cfg}
	fields := make([]schema.Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		field, err := b.schemaField(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	s, err := schema.New(fields...)
	if err != nil {
		return nil, fmt.Errorf("definition: %s: %w", d.Name, err)
	}
	if err := s.Plugin(transient.Plugin(cfg.plugin...)); err != nil {
		return nil, err
	}
	return s, nil
}

type builder struct {
	def       *Definition
	cfg       buildConfig
	evaluator transient.Evaluator
}

func (b *builder) schemaField(f Field) (schema.Field, error) {
	typ, err := schema.ParseType(f.Type)
	if err != nil {
		return schema.Field{}, fmt.Errorf("%w: field %q: %v", ErrInvalidDefinition, f.Path, err)
	}
	field := schema.Field{
		Path:     f.Path,
		Type:     typ,
		Default:  f.Default,
		Required: f.Required,
		Enum:     f.Enum,
	}
	if f.Transient == nil {
		return field, nil
	}
	decl, err := b.declaration(f.Path, f.Transient)
	if err != nil {
		return schema.Field{}, err
	}
	field.Options = transient.Declare(decl)
	return field, nil
}

// declaration turns a mapping into transient.Options, compiling get and set.
// Scalars pass through untouched.
func (b *builder) declaration(path string, raw any) (any, error) {
	attrs, ok := raw.(map[string]any)
	if !ok {
		return raw, nil
	}
	var out transient.Options
	for key, value := range attrs {
		switch key {
		case "get", "set":
			fn, err := b.compile(path, key, value)
			if err != nil {
				return nil, err
			}
			if key == "get" {
				out.Get = fn
			} else {
				out.Set = fn
			}
		case "as":
			as, err := stringValue(value, path+".transient.as")
			if err != nil {
				return nil, err
			}
			out.As = as
		case "args":
			if value == nil {
				continue
			}
			args, ok := value.([]any)
			if !ok {
				args = []any{value}
			}
			out.Args = args
		case "linkTo":
			targets, err := stringList(value, path+".transient.linkTo")
			if err != nil {
				return nil, err
			}
			out.LinkTo = targets
		default:
			return nil, fmt.Errorf("%w: field %q: unknown transient key %q", ErrInvalidDefinition, path, key)
		}
	}
	return out, nil
}

func (b *builder) compile(path, key string, value any) (transient.Transform, error) {
	if value == nil {
		return nil, nil
	}
	src, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: field %q: transient.%s must be an expression string", ErrInvalidDefinition, path, key)
	}
	evaluator, err := b.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	opts := append([]transient.ExpressionOption{
		transient.WithPath(path),
		transient.WithMetadata(map[string]any{"definition": b.def.Name, "accessor": key}),
	}, b.cfg.expression...)
	return transient.Expression(evaluator, src, opts...)
}

func (b *builder) resolveEvaluator() (transient.Evaluator, error) {
	if b.evaluator != nil {
		return b.evaluator, nil
	}
	if b.cfg.evaluator != nil {
		b.evaluator = b.cfg.evaluator
		return b.evaluator, nil
	}
	switch b.def.Engine {
	case "", EngineExpr:
		b.evaluator = transient.NewExprEvaluator(
			transient.ExprWithFunctionRegistry(b.cfg.registry),
			transient.ExprWithProgramCache(b.cfg.cache),
		)
	case EngineCEL:
		b.evaluator = transient.NewCELEvaluator(
			transient.CELWithFunctionRegistry(b.cfg.registry),
			transient.CELWithProgramCache(b.cfg.cache),
		)
	case EngineJS:
		b.evaluator = transient.NewJSEvaluator(
			transient.JSWithFunctionRegistry(b.cfg.registry),
			transient.JSWithProgramCache(b.cfg.cache),
			transient.JSWithTimeout(b.cfg.jsTimeout),
		)
		if b.evaluator == nil {
			return nil, fmt.Errorf("definition: %s: js engine requires the js_eval build tag", b.def.Name)
		}
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidDefinition, b.def.Engine)
	}
	return b.evaluator, nil
}

func stringList(value any, key string) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be strings, got %T", ErrInvalidDefinition, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a string or list, got %T", ErrInvalidDefinition, key, value)
	}
}
