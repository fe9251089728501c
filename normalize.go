package transient

import "slices"

// Config is the normalized form of a transience declaration. It is built once
// per field when the plugin is applied and captured by the installed getter,
// setter and link interceptors.
type Config struct {
	Path   string
	As     string
	Get    Transform
	Set    Transform
	Args   []any
	LinkTo []string
}

// Normalize resolves a declaration into a Config. Each attribute is resolved
// on its own and malformed shapes fall back to defaults; Normalize never
// fails and has no side effects.
func Normalize(path string, decl any) Config {
	return Config{
		Path:   path,
		As:     resolveAs(path, decl),
		Get:    resolveGet(decl),
		Set:    resolveSet(decl),
		Args:   resolveArgs(decl),
		LinkTo: resolveLinkTo(decl),
	}
}

// ShadowName returns the default shadow slot name for path.
func ShadowName(path string) string {
	return "_" + path
}

func identity(value any, _ ...any) (any, error) {
	return value, nil
}

// resolveAs picks the shadow slot. An empty name, in either the string or the
// record form, falls back to ShadowName so a slot can never be "".
func resolveAs(path string, decl any) string {
	if name, ok := decl.(string); ok && name != "" {
		return name
	}
	if rec, ok := asRecord(decl); ok {
		if name, ok := rec.as.(string); ok && name != "" {
			return name
		}
	}
	return ShadowName(path)
}

func resolveGet(decl any) Transform {
	if rec, ok := asRecord(decl); ok {
		if fn, ok := asTransform(rec.get); ok {
			return fn
		}
	}
	return identity
}

func resolveSet(decl any) Transform {
	if fn, ok := asTransform(decl); ok {
		return fn
	}
	if rec, ok := asRecord(decl); ok {
		if fn, ok := asTransform(rec.set); ok {
			return fn
		}
	}
	return identity
}

func resolveArgs(decl any) []any {
	rec, ok := asRecord(decl)
	if !ok {
		return []any{}
	}
	switch args := rec.args.(type) {
	case []any:
		if len(args) == 0 {
			return []any{}
		}
		return slices.Clone(args)
	case []string:
		out := make([]any, len(args))
		for i, arg := range args {
			out[i] = arg
		}
		return out
	default:
		return []any{}
	}
}

func resolveLinkTo(decl any) []string {
	rec, ok := asRecord(decl)
	if !ok {
		return []string{}
	}
	var candidates []string
	switch targets := rec.linkTo.(type) {
	case string:
		candidates = []string{targets}
	case []string:
		candidates = targets
	case []any:
		for _, target := range targets {
			if name, ok := target.(string); ok {
				candidates = append(candidates, name)
			}
		}
	}
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
