package transient

import (
	"reflect"

	"github.com/goliatone/go-transient/pkg/schema"
)

// OptionKey is the field option the plugin reads the transience declaration
// from.
const OptionKey = "transient"

// Transform computes a value from an input value and the field's extra
// arguments. Errors are returned to whoever reads or writes the field.
type Transform func(value any, args ...any) (any, error)

// Options is the structured transience declaration. Every attribute is
// optional and overrides its default on its own.
type Options struct {
	// Get transforms the shadow slot value on read.
	Get Transform
	// Set transforms incoming values before they reach the shadow slot.
	Set Transform
	// As names the shadow slot; defaults to "_" + path.
	As string
	// Args are passed to Get and Set after the primary value.
	Args []any
	// LinkTo names persisted paths whose writes also run Set.
	LinkTo []string
}

// Declare wraps a transience declaration into field options:
//
//	schema.Field{Path: "confirmationPassword", Type: schema.String, Options: transient.Declare(true)}
//
// decl may be a bool, a shadow slot name, a setter function, Options, or a
// map[string]any with get/set/as/args/linkTo keys.
func Declare(decl any) schema.Options {
	return schema.Options{OptionKey: decl}
}

// record is the structured view shared by Options and loosely typed maps.
type record struct {
	get    any
	set    any
	as     any
	args   any
	linkTo any
}

func asRecord(decl any) (record, bool) {
	switch d := decl.(type) {
	case Options:
		return record{get: d.Get, set: d.Set, as: d.As, args: d.Args, linkTo: d.LinkTo}, true
	case *Options:
		if d == nil {
			return record{}, false
		}
		return record{get: d.Get, set: d.Set, as: d.As, args: d.Args, linkTo: d.LinkTo}, true
	case map[string]any:
		return record{get: d["get"], set: d["set"], as: d["as"], args: d["args"], linkTo: d["linkTo"]}, true
	case schema.Options:
		return asRecord(map[string]any(d))
	default:
		return record{}, false
	}
}

// asTransform accepts the function shapes a declaration may carry.
func asTransform(value any) (Transform, bool) {
	switch fn := value.(type) {
	case Transform:
		return fn, fn != nil
	case func(any, ...any) (any, error):
		return fn, fn != nil
	case func(any) (any, error):
		if fn == nil {
			return nil, false
		}
		return func(v any, _ ...any) (any, error) { return fn(v) }, true
	case func(any) any:
		if fn == nil {
			return nil, false
		}
		return func(v any, _ ...any) (any, error) { return fn(v), nil }, true
	default:
		return nil, false
	}
}

// truthy mirrors what a declaration author means by "enabled": nil, false,
// empty strings, numeric zero and nil references are not.
func truthy(decl any) bool {
	if decl == nil {
		return false
	}
	switch d := decl.(type) {
	case bool:
		return d
	case string:
		return d != ""
	}
	rv := reflect.ValueOf(decl)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero() && !(rv.CanFloat() && rv.Float() != rv.Float())
	default:
		return true
	}
}

func isNullish(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
