package transient

import (
	"fmt"
	"time"
)

// Expression compiles src with e and returns a Transform that evaluates it per
// call. The expression sees the incoming value as `value`, the field's extra
// arguments as `args`, plus `now`, `path` and `metadata`:
//
//	get, err := transient.Expression(transient.NewExprEvaluator(), `value + 1`)
//
// Compilation happens once, here; evaluation failures are returned as
// *EvaluationError.
func Expression(e Evaluator, src string, opts ...ExpressionOption) (Transform, error) {
	if e == nil {
		return nil, ErrNoEvaluator
	}
	cfg := applyExpressionOptions(opts)
	engine := engineName(e)
	if src == "" {
		return nil, wrapEvaluatorError(engine, fmt.Errorf("expression must not be empty"))
	}
	rule, err := e.Compile(src)
	if err != nil {
		return nil, wrapEvaluationError(engine, src, cfg.path, err)
	}

	return func(value any, args ...any) (any, error) {
		now := cfg.clock()
		ctx := TransformContext{
			Value:    value,
			Args:     args,
			Now:      &now,
			Path:     cfg.path,
			Metadata: cfg.metadata,
		}
		start := time.Now()
		result, evalErr := rule.Evaluate(ctx)
		duration := time.Since(start)
		evalErr = wrapEvaluationError(engine, src, cfg.path, evalErr)
		cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     src,
			Path:     cfg.path,
			Duration: duration,
			Err:      evalErr,
		})
		if evalErr != nil {
			return nil, evalErr
		}
		return result, nil
	}, nil
}

// MustExpression is like Expression but panics on compile errors. Intended
// for package-level schema declarations.
func MustExpression(e Evaluator, src string, opts ...ExpressionOption) Transform {
	fn, err := Expression(e, src, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}
