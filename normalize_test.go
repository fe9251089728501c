package transient

import (
	"slices"
	"testing"
)

func TestNormalizeShapes(t *testing.T) {
	upper := func(v any) any { return v }
	cases := []struct {
		name   string
		decl   any
		as     string
		args   []any
		linkTo []string
	}{
		{name: "bool", decl: true, as: "_field", args: []any{}, linkTo: []string{}},
		{name: "string", decl: "slot", as: "slot", args: []any{}, linkTo: []string{}},
		{name: "setter", decl: upper, as: "_field", args: []any{}, linkTo: []string{}},
		{name: "options", decl: Options{As: "x", Args: []any{1, "two"}, LinkTo: []string{"a", ""}}, as: "x", args: []any{1, "two"}, linkTo: []string{"a"}},
		{name: "options pointer", decl: &Options{LinkTo: []string{"b"}}, as: "_field", args: []any{}, linkTo: []string{"b"}},
		{name: "map string link", decl: map[string]any{"as": "y", "linkTo": "role"}, as: "y", args: []any{}, linkTo: []string{"role"}},
		{name: "map list link", decl: map[string]any{"args": []string{"a"}, "linkTo": []any{"r", 3, "s"}}, as: "_field", args: []any{"a"}, linkTo: []string{"r", "s"}},
		{name: "map malformed", decl: map[string]any{"as": 1, "args": 2, "linkTo": true}, as: "_field", args: []any{}, linkTo: []string{}},
		{name: "options empty as", decl: Options{As: ""}, as: "_field", args: []any{}, linkTo: []string{}},
		{name: "map empty as", decl: map[string]any{"as": ""}, as: "_field", args: []any{}, linkTo: []string{}},
		{name: "number", decl: 1, as: "_field", args: []any{}, linkTo: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf := Normalize("field", tc.decl)
			if conf.Path != "field" {
				t.Fatalf("expected path field, got %q", conf.Path)
			}
			if conf.As != tc.as {
				t.Fatalf("expected as %q, got %q", tc.as, conf.As)
			}
			if !slices.Equal(conf.Args, tc.args) {
				t.Fatalf("expected args %v, got %v", tc.args, conf.Args)
			}
			if conf.Args == nil {
				t.Fatalf("args must never be nil")
			}
			if !slices.Equal(conf.LinkTo, tc.linkTo) {
				t.Fatalf("expected linkTo %v, got %v", tc.linkTo, conf.LinkTo)
			}
			if conf.Get == nil || conf.Set == nil {
				t.Fatalf("transforms must never be nil")
			}
		})
	}
}

func TestNormalizeResolvesTransforms(t *testing.T) {
	double := func(v any, _ ...any) (any, error) { return v.(int) * 2, nil }

	conf := Normalize("n", Transform(double))
	if got, _ := conf.Set(3); got != 6 {
		t.Fatalf("expected callable declaration to become the setter, got %v", got)
	}
	if got, _ := conf.Get(3); got != 3 {
		t.Fatalf("expected identity getter, got %v", got)
	}

	conf = Normalize("n", map[string]any{"get": double, "set": "not callable"})
	if got, _ := conf.Get(4); got != 8 {
		t.Fatalf("expected map getter, got %v", got)
	}
	if got, _ := conf.Set(4); got != 4 {
		t.Fatalf("expected identity setter fallback, got %v", got)
	}

	conf = Normalize("n", func(v any) (any, error) { return "wrapped", nil })
	if got, _ := conf.Set(1); got != "wrapped" {
		t.Fatalf("expected single-arg setter, got %v", got)
	}
}

func TestNormalizeCopiesArgs(t *testing.T) {
	args := []any{"admin"}
	conf := Normalize("role", Options{Args: args})
	args[0] = "mutated"
	if conf.Args[0] != "admin" {
		t.Fatalf("normalized args must not alias the declaration")
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	decl := map[string]any{"as": "slot", "args": []any{1}, "linkTo": "x"}
	a := Normalize("p", decl)
	b := Normalize("p", decl)
	if a.As != b.As || !slices.Equal(a.Args, b.Args) || !slices.Equal(a.LinkTo, b.LinkTo) {
		t.Fatalf("expected identical configs, got %+v and %+v", a, b)
	}
}

func TestTruthy(t *testing.T) {
	var nilOptions *Options
	var nilMap map[string]any
	cases := []struct {
		decl any
		want bool
	}{
		{nil, false},
		{false, false},
		{"", false},
		{0, false},
		{0.0, false},
		{nilOptions, false},
		{nilMap, false},
		{true, true},
		{"slot", true},
		{1, true},
		{Options{}, true},
		{map[string]any{}, true},
		{struct{}{}, true},
	}
	for _, tc := range cases {
		if got := truthy(tc.decl); got != tc.want {
			t.Fatalf("truthy(%#v) = %v, want %v", tc.decl, got, tc.want)
		}
	}
}

func TestShadowName(t *testing.T) {
	if got := ShadowName("confirmationPassword"); got != "_confirmationPassword" {
		t.Fatalf("unexpected shadow name %q", got)
	}
}
