//go:build js_eval

package transient

import (
	"errors"
	"testing"
	"time"
)

func TestJSEvaluatorTimeout(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	fn, err := Expression(evaluator, `(function(){ while (true) {} })()`, WithPath("spin"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = fn("x")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Path != "spin" {
		t.Fatalf("expected path spin, got %q", evalErr.Path)
	}
}

func TestJSEvaluatorRegistryFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("shout", func(args ...any) (any, error) {
		return args[0].(string) + "!", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fn, err := Expression(NewJSEvaluator(JSWithFunctionRegistry(registry), JSWithTimeout(time.Second)), `shout(value) + call("shout", "b")`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := fn("a")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != "a!b!" {
		t.Fatalf("expected a!b!, got %v", got)
	}
}
