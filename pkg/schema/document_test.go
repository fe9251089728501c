package schema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-transient/pkg/schema"
)

func TestNewAppliesDefaultsThenPathsThenVirtuals(t *testing.T) {
	s := schema.MustNew(
		schema.Field{Path: "name", Type: schema.String},
		schema.Field{Path: "tags", Default: []any{"a"}},
		schema.Field{Path: "age", Type: schema.Number},
	)
	var order []string
	s.Virtual("shout").Set(func(doc *schema.Document, value any) error {
		name, _ := doc.Get("name")
		order = append(order, "shout")
		doc.SetSlot("shout", strings.ToUpper(name.(string))+value.(string))
		return nil
	}).Get(func(doc *schema.Document) (any, error) {
		v, _ := doc.Slot("shout")
		return v, nil
	})
	st, _ := s.Path("name")
	st.Set(func(_ *schema.Document, value any) (any, error) {
		order = append(order, "name")
		return value, nil
	})

	doc, err := s.New(map[string]any{"shout": "!", "name": "bart", "age": "10", "unknown": 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if strings.Join(order, ",") != "name,shout" {
		t.Fatalf("expected persisted paths before virtuals, got %v", order)
	}
	if got, _ := doc.Get("shout"); got != "BART!" {
		t.Fatalf("unexpected virtual value %v", got)
	}
	if got, _ := doc.Get("age"); got != float64(10) {
		t.Fatalf("expected cast age, got %v (%T)", got, got)
	}
	if !doc.IsNew() || doc.ID() == "" {
		t.Fatalf("expected a new document with an id")
	}

	tags, _ := doc.Get("tags")
	tags.([]any)[0] = "mutated"
	other, _ := s.New(nil)
	if got, _ := other.Get("tags"); got.([]any)[0] != "a" {
		t.Fatalf("defaults must be cloned per document, got %v", got)
	}

	object := doc.ToObject()
	if _, ok := object["unknown"]; ok {
		t.Fatalf("unknown keys must be dropped")
	}
	if _, ok := object["shout"]; ok {
		t.Fatalf("virtuals must not be persisted")
	}
	if _, ok := object[schema.VersionKey]; ok {
		t.Fatalf("new documents carry no version")
	}
	if object[schema.IDKey] != doc.ID() {
		t.Fatalf("expected id in object, got %v", object)
	}
}

func TestSetterChainAndCast(t *testing.T) {
	s := schema.MustNew(schema.Field{Path: "count", Type: schema.Number})
	st, _ := s.Path("count")
	st.Set(func(_ *schema.Document, value any) (any, error) {
		return value.(string) + "1", nil
	}).Set(func(_ *schema.Document, value any) (any, error) {
		return value.(string) + "2", nil
	})
	doc, _ := s.New(nil)
	if err := doc.Set("count", "0"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := doc.Get("count"); got != float64(12) {
		t.Fatalf("expected setters in order then cast, got %v", got)
	}
	if !doc.IsModified("count") {
		t.Fatalf("expected count to be modified")
	}

	var castErr *schema.CastError
	if err := doc.Set("count", "x"); !errors.As(err, &castErr) || castErr.Path != "count" {
		t.Fatalf("expected CastError, got %v", err)
	}

	if err := doc.Set("missing", 1); !errors.Is(err, schema.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	if _, err := doc.Get("missing"); !errors.Is(err, schema.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestSlotsAreIsolated(t *testing.T) {
	s := schema.MustNew(schema.Field{Path: "a"})
	doc, _ := s.New(nil)
	if _, ok := doc.Slot("_a"); ok {
		t.Fatalf("expected empty slot")
	}
	doc.SetSlot("_a", 1)
	if v, ok := doc.Slot("_a"); !ok || v != 1 {
		t.Fatalf("unexpected slot %v %t", v, ok)
	}
	if _, ok := doc.ToObject()["_a"]; ok {
		t.Fatalf("slots must not be persisted")
	}
}

func TestValidate(t *testing.T) {
	s := schema.MustNew(
		schema.Field{Path: "name", Type: schema.String, Required: true},
		schema.Field{Path: "role", Type: schema.String, Enum: []any{"admin", "user"}},
		schema.Field{Path: "level", Type: schema.Number, Enum: []any{1, 2}},
	)
	s.Pre(schema.HookValidate, func(_ context.Context, doc *schema.Document) error {
		if role, _ := doc.Get("role"); role == "admin" {
			doc.Invalidate("role", "admins are not allowed here")
		}
		return nil
	})

	doc, _ := s.New(map[string]any{"role": "guest", "level": 2})
	err := doc.Validate(context.Background())
	var verr *schema.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, schema.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors["name"] != "Path `name` is required." {
		t.Fatalf("unexpected required message %q", verr.Errors["name"])
	}
	if verr.Errors["role"] != "`guest` is not a valid enum value for path `role`." {
		t.Fatalf("unexpected enum message %q", verr.Errors["role"])
	}
	if _, ok := verr.Errors["level"]; ok {
		t.Fatalf("numeric enum values must compare by value")
	}
	if !strings.Contains(err.Error(), "name: Path `name` is required.") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if err := doc.Set("role", "admin"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Set("name", "Bart"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Validate(context.Background()); err == nil || doc.Errors()["role"] != "admins are not allowed here" {
		t.Fatalf("expected hook invalidation, got %v", err)
	}

	if err := doc.Set("role", "user"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
	if len(doc.Errors()) != 0 {
		t.Fatalf("expected errors to reset, got %v", doc.Errors())
	}

	boom := errors.New("boom")
	s.Pre(schema.HookValidate, func(context.Context, *schema.Document) error { return boom })
	if err := doc.Validate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected hook error as is, got %v", err)
	}
}

func TestHydrateAndMarkSaved(t *testing.T) {
	s := schema.MustNew(
		schema.Field{Path: "name", Type: schema.String},
		schema.Field{Path: "age", Type: schema.Number, Default: 1},
	)
	st, _ := s.Path("name")
	st.Set(func(*schema.Document, any) (any, error) {
		t.Fatalf("hydrate must not run setters")
		return nil, nil
	})

	doc, err := s.Hydrate(map[string]any{schema.IDKey: "u1", schema.VersionKey: int32(4), "name": "Bart"})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if doc.IsNew() || doc.ID() != "u1" || doc.Version() != 4 {
		t.Fatalf("unexpected identity new=%t id=%q v%d", doc.IsNew(), doc.ID(), doc.Version())
	}
	if got, _ := doc.Get("age"); got != float64(1) {
		t.Fatalf("expected default age, got %v", got)
	}
	if doc.IsModified("name") {
		t.Fatalf("hydrated values are not modifications")
	}
	if got := doc.ToObject()[schema.VersionKey]; got != 4 {
		t.Fatalf("expected version in object, got %v", got)
	}

	if _, err := s.Hydrate(map[string]any{"age": "old"}); err == nil {
		t.Fatalf("expected cast error on hydrate")
	}

	fresh, _ := schema.MustNew(schema.Field{Path: "x"}).New(map[string]any{"x": 1})
	fresh.MarkSaved(0)
	if fresh.IsNew() || fresh.IsModified("x") {
		t.Fatalf("MarkSaved must clear new and modified state")
	}
}
