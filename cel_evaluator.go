package transient

import (
	"fmt"
	"reflect"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Registered functions are exposed as unary functions by name and through
// call(name, [args...]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx TransformContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	key := cacheKey("cel", expression)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("args", celgo.ListType(celgo.DynType)),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("path", celgo.StringType),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding()),
			),
		))
		for _, name := range e.registry.Names() {
			opts = append(opts, celgo.Function(name,
				celgo.Overload(name+"_dyn",
					[]*celgo.Type{celgo.DynType},
					celgo.DynType,
					celgo.UnaryBinding(e.unaryBinding(name)),
				),
			))
		}
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(ctx TransformContext, expression string, program celgo.Program) (any, error) {
	out, _, err := program.Eval(ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.pathLabel(), err)
	}
	value, err := celNative(out)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.pathLabel(), err)
	}
	return value, nil
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	program    celgo.Program
}

func (r *celCompiledRule) Evaluate(ctx TransformContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx, r.expression, r.program)
}

var (
	anySliceType = reflect.TypeOf([]any{})
	anyMapType   = reflect.TypeOf(map[string]any{})
)

// celNative converts CEL results into plain Go values.
func celNative(out ref.Val) (any, error) {
	switch val := out.(type) {
	case types.Null:
		return nil, nil
	case traits.Lister:
		return val.ConvertToNative(anySliceType)
	case traits.Mapper:
		return val.ConvertToNative(anyMapType)
	default:
		return out.Value(), nil
	}
}

func (e *celEvaluator) callBinding() func(ref.Val, ref.Val) ref.Val {
	return func(nameVal, argsVal ref.Val) ref.Val {
		name, ok := nameVal.Value().(string)
		if !ok {
			return types.NewErr("call name must be string")
		}
		native, err := celNative(argsVal)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		args, _ := native.([]any)
		return e.toVal(e.registry.Call(name, args...))
	}
}

func (e *celEvaluator) unaryBinding(name string) func(ref.Val) ref.Val {
	return func(arg ref.Val) ref.Val {
		native, err := celNative(arg)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		return e.toVal(e.registry.Call(name, native))
	}
}

func (e *celEvaluator) toVal(result any, err error) ref.Val {
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
