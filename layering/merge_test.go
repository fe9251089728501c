package layering

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeLayersDefinitionMaps(t *testing.T) {
	cases := []struct {
		name   string
		layers []map[string]any
		expect map[string]any
	}{
		{
			name: "overlay adds nested key",
			layers: []map[string]any{
				{"fields": map[string]any{"role": map[string]any{"default": "user"}}},
				{"fields": map[string]any{"role": map[string]any{"type": "string"}}},
			},
			expect: map[string]any{
				"fields": map[string]any{"role": map[string]any{"type": "string", "default": "user"}},
			},
		},
		{
			name: "strong scalar wins",
			layers: []map[string]any{
				{"engine": "cel"},
				{"engine": "expr", "name": "User"},
			},
			expect: map[string]any{"engine": "cel", "name": "User"},
		},
		{
			name: "strong slice replaces weak slice",
			layers: []map[string]any{
				{"enum": []any{"admin"}},
				{"enum": []any{"admin", "user"}},
			},
			expect: map[string]any{"enum": []any{"admin"}},
		},
		{
			name: "nil strong value falls back",
			layers: []map[string]any{
				{"default": nil},
				{"default": false},
			},
			expect: map[string]any{"default": false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeLayers(tc.layers...)
			if !reflect.DeepEqual(tc.expect, got) {
				t.Errorf("merged snapshot mismatch:\nwant: %#v\n got: %#v", tc.expect, got)
			}
		})
	}
}

func TestMergeLayersDoesNotAliasInputs(t *testing.T) {
	weak := map[string]any{"fields": map[string]any{"name": map[string]any{"type": "string"}}}
	strong := map[string]any{"engine": "expr"}

	got := MergeLayers(strong, weak)
	got["fields"].(map[string]any)["name"].(map[string]any)["type"] = "number"

	if weak["fields"].(map[string]any)["name"].(map[string]any)["type"] != "string" {
		t.Fatalf("expected weak layer untouched, got %#v", weak)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	if got := MergeLayers(); got != nil {
		t.Fatalf("expected MergeLayers() to return nil, got %v", got)
	}
	if got := MergeLayers(nil, map[string]any{"name": "users"}); got["name"] != "users" {
		t.Fatalf("expected nil strong layer to keep weak values, got %v", got)
	}
}

func TestMergeLayersStrongScalarOverWeakMap(t *testing.T) {
	got := MergeLayers(
		map[string]any{"transient": true},
		map[string]any{"transient": map[string]any{"as": "slot"}},
	)
	if got["transient"] != true {
		t.Fatalf("expected strong scalar to replace weak map, got %v", got["transient"])
	}
}

func TestCloneDetachesReferenceValues(t *testing.T) {
	original := []any{"admin", map[string]any{"level": 1}}
	cloned := Clone(original)
	cloned[0] = "user"
	cloned[1].(map[string]any)["level"] = 2

	if original[0] != "admin" {
		t.Fatalf("expected slice element untouched, got %v", original[0])
	}
	if original[1].(map[string]any)["level"] != 1 {
		t.Fatalf("expected nested map untouched, got %v", original[1])
	}
}

func TestCloneTypedContainers(t *testing.T) {
	type point struct{ X int }
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	original := map[string]any{
		"tags":  []string{"a"},
		"at":    now,
		"ptr":   &point{X: 1},
		"extra": map[string]string{"k": "v"},
		"none":  nil,
	}
	cloned := Clone(original)
	cloned["tags"].([]string)[0] = "b"
	cloned["ptr"].(*point).X = 2
	cloned["extra"].(map[string]string)["k"] = "w"

	if original["tags"].([]string)[0] != "a" || original["ptr"].(*point).X != 1 || original["extra"].(map[string]string)["k"] != "v" {
		t.Fatalf("expected original untouched, got %#v", original)
	}
	if !cloned["at"].(time.Time).Equal(now) {
		t.Fatalf("expected time copied by value, got %v", cloned["at"])
	}
	if v, ok := cloned["none"]; !ok || v != nil {
		t.Fatalf("expected nil entry kept, got %v ok=%t", v, ok)
	}
}

func TestCloneScalarsAndNil(t *testing.T) {
	if got := Clone[any](nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := Clone[any](false); got != false {
		t.Fatalf("expected false, got %v", got)
	}
	if got := Clone(42.5); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}
