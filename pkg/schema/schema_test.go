package schema_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/goliatone/go-transient/pkg/schema"
)

func TestNewRejectsBadPaths(t *testing.T) {
	cases := []struct {
		name   string
		fields []schema.Field
		is     error
	}{
		{name: "empty", fields: []schema.Field{{Path: "  "}}},
		{name: "reserved id", fields: []schema.Field{{Path: schema.IDKey}}},
		{name: "reserved version", fields: []schema.Field{{Path: schema.VersionKey}}},
		{name: "duplicate", fields: []schema.Field{{Path: "a"}, {Path: "a"}}, is: schema.ErrDuplicatePath},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.New(tc.fields...)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestEachPathIteratesSnapshot(t *testing.T) {
	s := schema.MustNew(schema.Field{Path: "a"}, schema.Field{Path: "b"}, schema.Field{Path: "c"})
	var seen []string
	err := s.EachPath(func(path string, st *schema.SchemaType) error {
		seen = append(seen, path)
		if path != st.Path() {
			t.Fatalf("path mismatch %q vs %q", path, st.Path())
		}
		if path == "a" {
			s.Remove("b")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("each path: %v", err)
	}
	if !slices.Equal(seen, []string{"a", "c"}) {
		t.Fatalf("expected removed path to be skipped, got %v", seen)
	}
	if !slices.Equal(s.Paths(), []string{"a", "c"}) {
		t.Fatalf("unexpected remaining paths %v", s.Paths())
	}

	stop := errors.New("stop")
	calls := 0
	if err := s.EachPath(func(string, *schema.SchemaType) error {
		calls++
		return stop
	}); !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected iteration to stop on first error, calls=%d err=%v", calls, err)
	}
}

func TestPathLookup(t *testing.T) {
	s := schema.MustNew(schema.Field{
		Path:     "role",
		Type:     schema.String,
		Default:  "user",
		Required: true,
		Enum:     []any{"user", "admin"},
		Options:  schema.Options{"transient": true},
	})
	st, err := s.Path("role")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if st.Type() != schema.String || st.Default() != "user" || !st.Required() || len(st.Enum()) != 2 {
		t.Fatalf("unexpected schema type %+v", st)
	}
	if v, ok := st.Option("transient"); !ok || v != true {
		t.Fatalf("expected transient option, got %v %t", v, ok)
	}
	opts := st.Options()
	opts["transient"] = false
	if v, _ := st.Option("transient"); v != true {
		t.Fatalf("Options must return a copy")
	}

	if _, err := s.Path("missing"); !errors.Is(err, schema.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	if s.Remove("missing") {
		t.Fatalf("removing a missing path must report false")
	}
}

func TestVirtualRegistration(t *testing.T) {
	s := schema.MustNew(schema.Field{Path: "a"})
	first := s.Virtual("b")
	if s.Virtual("b") != first {
		t.Fatalf("Virtual must return the existing property")
	}
	s.Virtual("c")
	if !s.HasVirtual("b") || s.HasVirtual("a") {
		t.Fatalf("unexpected virtual membership")
	}
	if !slices.Equal(s.VirtualNames(), []string{"b", "c"}) {
		t.Fatalf("unexpected virtual order %v", s.VirtualNames())
	}
	if err := s.Add(schema.Field{Path: "b"}); !errors.Is(err, schema.ErrDuplicatePath) {
		t.Fatalf("expected a virtual to block a persisted path, got %v", err)
	}
}

func TestPluginAndHooks(t *testing.T) {
	s := schema.MustNew(schema.Field{Path: "a"})
	if err := s.Plugin(nil); err != nil {
		t.Fatalf("nil plugin: %v", err)
	}
	boom := errors.New("boom")
	if err := s.Plugin(func(*schema.Schema) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected plugin error, got %v", err)
	}
	s.Pre(schema.HookValidate, nil)
	if len(s.Hooks(schema.HookValidate)) != 0 {
		t.Fatalf("nil hooks must be ignored")
	}
}

func TestParseType(t *testing.T) {
	cases := map[string]schema.Type{
		"":        schema.Mixed,
		"any":     schema.Mixed,
		"String":  schema.String,
		" int ":   schema.Number,
		"bool":    schema.Boolean,
		"time":    schema.Date,
		"boolean": schema.Boolean,
	}
	for name, want := range cases {
		got, err := schema.ParseType(name)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := schema.ParseType("uuid"); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestTypeCast(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		name    string
		typ     schema.Type
		in      any
		want    any
		wantErr bool
	}{
		{name: "nil", typ: schema.String, in: nil, want: nil},
		{name: "string from int", typ: schema.String, in: 12, want: "12"},
		{name: "string from bool", typ: schema.String, in: true, want: "true"},
		{name: "string from map", typ: schema.String, in: map[string]any{}, wantErr: true},
		{name: "number from int32", typ: schema.Number, in: int32(4), want: float64(4)},
		{name: "number from string", typ: schema.Number, in: " 2.5 ", want: 2.5},
		{name: "number from blank", typ: schema.Number, in: "  ", want: nil},
		{name: "number from word", typ: schema.Number, in: "two", wantErr: true},
		{name: "boolean from yes", typ: schema.Boolean, in: "yes", want: true},
		{name: "boolean from zero", typ: schema.Boolean, in: 0, want: false},
		{name: "boolean from two", typ: schema.Boolean, in: 2, wantErr: true},
		{name: "date from string", typ: schema.Date, in: "2024-01-02T03:04:05Z", want: at},
		{name: "date from millis", typ: schema.Date, in: at.UnixMilli(), want: at},
		{name: "mixed passthrough", typ: schema.Mixed, in: []any{1}, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.typ.Cast(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("cast: %v", err)
			}
			if tc.typ == schema.Mixed {
				return
			}
			if at, ok := tc.want.(time.Time); ok {
				if gotAt, ok := got.(time.Time); !ok || !gotAt.Equal(at) {
					t.Fatalf("expected %v, got %v", at, got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("expected %v (%T), got %v (%T)", tc.want, tc.want, got, got)
			}
		})
	}
}
