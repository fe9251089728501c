// Package layering deep-copies document values and merges definition layers.
// Schema defaults are cloned through it so documents never share mutable
// default values, and definition overlays are merged through MergeLayers.
package layering

import "reflect"

// MergeLayers merges decoded layers ordered from strongest to weakest. Nested
// maps merge key by key. Any other value, slices included, is taken whole from
// the strongest layer that sets it to something other than nil. The result
// shares no maps or slices with the inputs.
func MergeLayers(layers ...map[string]any) map[string]any {
	if len(layers) == 0 {
		return nil
	}
	merged := Clone(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeMap(layers[i], merged)
	}
	return merged
}

// mergeMap lays strong over weak. weak is already a private copy.
func mergeMap(strong, weak map[string]any) map[string]any {
	if strong == nil {
		return weak
	}
	out := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		out[key] = value
	}
	for key, value := range strong {
		out[key] = mergeValue(value, out[key])
	}
	return out
}

func mergeValue(strong, weak any) any {
	if strong == nil {
		return weak
	}
	if sm, ok := strong.(map[string]any); ok {
		if wm, ok := weak.(map[string]any); ok {
			return mergeMap(sm, wm)
		}
	}
	return Clone(strong)
}

// Clone returns a deep copy of value. Maps, slices, arrays and pointers are
// copied recursively; structs such as time.Time are copied by value.
func Clone[T any](value T) T {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return value
	}
	out, ok := cloneValue(rv).Interface().(T)
	if !ok {
		return value
	}
	return out
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return cloneValue(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		for iter := v.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := range v.Len() {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	default:
		return v
	}
}
