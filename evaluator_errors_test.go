package transient

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "value + missing", "addOne", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "value + missing" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Path != "addOne" {
		t.Fatalf("expected path metadata, got %q", evalErr.Path)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if !strings.Contains(err.Error(), "path=addOne") {
		t.Fatalf("expected path in message, got %q", err.Error())
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "value.size()", "description", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "value.size()" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Path != "description" {
		t.Fatalf("path should be filled, got %q", existing.Path)
	}
}

func TestWrapEvaluatorErrorPrefixes(t *testing.T) {
	err := wrapEvaluatorError("cel", errors.New("expression must not be empty"))
	if !strings.HasPrefix(err.Error(), "transient: cel evaluator:") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if again := wrapEvaluatorError("cel", err); again != err {
		t.Fatalf("already prefixed errors should pass through")
	}
	if wrapEvaluatorError("cel", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestEvaluationErrorWithoutPath(t *testing.T) {
	err := &EvaluationError{Engine: "js", Err: errors.New("x")}
	if got := err.Error(); got != "transient: js evaluator expr=<empty>: x" {
		t.Fatalf("unexpected message %q", got)
	}
}
