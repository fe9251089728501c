package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-transient/internal/hydrate"
	"github.com/goliatone/go-transient/pkg/activity"
	"github.com/goliatone/go-transient/pkg/codec"
	"github.com/goliatone/go-transient/pkg/schema"
)

// Extra keys written by Model on every save.
const (
	ExtraContentType = "content_type"
	ExtraVersion     = "version"
)

// Mutator edits a loaded document in place.
type Mutator func(*schema.Document) error

// Model persists documents of one schema into one collection.
type Model struct {
	Name     string
	Schema   *schema.Schema
	Store    Store
	Codec    codec.Codec
	Activity *activity.Emitter
	// DefinitionCode is copied onto emitted activity events.
	DefinitionCode string
	Now            func() time.Time
}

type actorKey struct{}

// WithActor records the acting user id on ctx for activity events.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func actorFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

func (m Model) validate() error {
	if m.Name == "" {
		return fmt.Errorf("state: model name is required")
	}
	if m.Schema == nil {
		return fmt.Errorf("state: schema is required for model %q", m.Name)
	}
	if m.Store == nil {
		return fmt.Errorf("state: store is required for model %q", m.Name)
	}
	if m.Codec == nil {
		return fmt.Errorf("state: codec is required for model %q", m.Name)
	}
	return nil
}

func (m Model) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m Model) ref(id string) Ref {
	return Ref{Collection: m.Name, ID: id}
}

// Create builds a document from fields and saves it.
func (m Model) Create(ctx context.Context, fields map[string]any) (*schema.Document, Meta, error) {
	if err := m.validate(); err != nil {
		return nil, Meta{}, err
	}
	doc, err := m.Schema.New(fields)
	if err != nil {
		return nil, Meta{}, err
	}
	meta, err := m.Save(ctx, doc, Meta{})
	if err != nil {
		return nil, meta, err
	}
	return doc, meta, nil
}

// Save validates doc, runs save hooks and writes its persisted form. New
// documents are stored at version 0; saved documents have their version
// bumped. When meta.ETag is set it must match the stored ETag.
func (m Model) Save(ctx context.Context, doc *schema.Document, meta Meta) (Meta, error) {
	if err := m.validate(); err != nil {
		return Meta{}, err
	}
	if doc == nil {
		return Meta{}, fmt.Errorf("state: document is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := doc.Validate(ctx); err != nil {
		return Meta{}, err
	}
	for _, hook := range m.Schema.Hooks(schema.HookSave) {
		if err := hook(ctx, doc); err != nil {
			return Meta{}, err
		}
	}

	ref := m.ref(doc.ID())
	_, loaded, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %s/%s: %w", ref.Collection, ref.ID, err)
	}
	isNew := doc.IsNew()
	switch {
	case isNew && ok:
		return loaded, fmt.Errorf("%w: %s/%s", ErrDuplicateID, ref.Collection, ref.ID)
	case !isNew && !ok:
		return Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Collection, ref.ID)
	}
	if meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}

	version := 0
	if !isNew {
		version = doc.Version() + 1
	}
	record := doc.ToObject()
	record[schema.VersionKey] = version
	data, err := m.Codec.Marshal(record)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s/%s: %w", ref.Collection, ref.ID, err)
	}

	saveMeta := mergeMeta(loaded, meta)
	saveMeta.ETag = uuid.NewString()
	if meta.SnapshotID == "" {
		saveMeta.SnapshotID = uuid.NewString()
	}
	saveMeta.UpdatedAt = m.now()
	saveMeta = mergeMeta(saveMeta, Meta{Extra: map[string]string{
		ExtraContentType: m.Codec.ContentType(),
		ExtraVersion:     fmt.Sprint(version),
	}})

	expect := Expect{Absent: isNew}
	if !isNew {
		expect.ETag = loaded.ETag
	}
	saved, err := m.Store.Save(ctx, ref, data, saveMeta, expect)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %s/%s: %w", ref.Collection, ref.ID, err)
	}

	changed := modifiedPaths(doc)
	doc.MarkSaved(version)

	input := m.eventInput(ctx, doc.ID(), version, saved)
	input.Changed = changed
	event := activity.BuildDocumentUpdatedEvent(input)
	if isNew {
		event = activity.BuildDocumentCreatedEvent(input)
	}
	if err := m.Activity.Emit(ctx, event); err != nil {
		return saved, fmt.Errorf("state: emit %s: %w", event.Verb, err)
	}
	return saved, nil
}

// FindByID loads and hydrates one document.
func (m Model) FindByID(ctx context.Context, id string) (*schema.Document, Meta, error) {
	record, meta, err := m.FindRaw(ctx, id)
	if err != nil {
		return nil, meta, err
	}
	doc, err := m.Schema.Hydrate(record)
	if err != nil {
		return nil, meta, fmt.Errorf("state: hydrate %s/%s: %w", m.Name, id, err)
	}
	return doc, meta, nil
}

// FindRaw loads the decoded persisted record without building a document.
func (m Model) FindRaw(ctx context.Context, id string) (codec.Record, Meta, error) {
	if err := m.validate(); err != nil {
		return nil, Meta{}, err
	}
	ref := m.ref(id)
	data, meta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %s/%s: %w", ref.Collection, ref.ID, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Collection, ref.ID)
	}
	record, err := codec.DecodeRecord(m.Codec, data)
	if err != nil {
		return nil, meta, fmt.Errorf("state: decode %s/%s: %w", ref.Collection, ref.ID, err)
	}
	return record, meta, nil
}

// Mutate loads one document, applies fn and saves it. A non-empty meta.ETag
// must match the stored ETag.
func (m Model) Mutate(ctx context.Context, id string, meta Meta, fn Mutator) (*schema.Document, Meta, error) {
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}
	doc, loaded, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, loaded, err
	}
	if meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return nil, loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}
	if err := fn(doc); err != nil {
		return nil, loaded, err
	}
	if meta.ETag == "" {
		meta.ETag = loaded.ETag
	}
	saved, err := m.Save(ctx, doc, meta)
	if err != nil {
		return nil, loaded, err
	}
	return doc, saved, nil
}

// Delete removes one document.
func (m Model) Delete(ctx context.Context, id string) error {
	if err := m.validate(); err != nil {
		return err
	}
	ref := m.ref(id)
	data, meta, ok, err := m.Store.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("state: load %s/%s: %w", ref.Collection, ref.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Collection, ref.ID)
	}
	version := 0
	if record, err := codec.DecodeRecord(m.Codec, data); err == nil {
		if doc, err := m.Schema.Hydrate(record); err == nil {
			version = doc.Version()
		}
	}
	if err := m.Store.Delete(ctx, ref); err != nil {
		return err
	}
	event := activity.BuildDocumentDeletedEvent(m.eventInput(ctx, id, version, meta))
	if err := m.Activity.Emit(ctx, event); err != nil {
		return fmt.Errorf("state: emit %s: %w", event.Verb, err)
	}
	return nil
}

// FindAs loads one record and decodes it into T through json tags.
func FindAs[T any](ctx context.Context, m Model, id string) (T, Meta, error) {
	var zero T
	record, meta, err := m.FindRaw(ctx, id)
	if err != nil {
		return zero, meta, err
	}
	out, err := hydrate.NewDecoder[T]().Decode(hydrate.Context{Collection: m.Name, ID: id}, record)
	if err != nil {
		return zero, meta, err
	}
	return out, meta, nil
}

func (m Model) eventInput(ctx context.Context, id string, version int, meta Meta) activity.DocumentEventInput {
	return activity.DocumentEventInput{
		ActorID:        actorFrom(ctx),
		Collection:     m.Name,
		DocumentID:     id,
		Version:        version,
		SnapshotID:     meta.SnapshotID,
		ETag:           meta.ETag,
		DefinitionCode: m.DefinitionCode,
		OccurredAt:     m.now(),
	}
}

func modifiedPaths(doc *schema.Document) []string {
	var out []string
	for _, path := range doc.Schema().Paths() {
		if doc.IsModified(path) {
			out = append(out, path)
		}
	}
	return out
}
