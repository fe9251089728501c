// Package state persists schema documents. Stores move encoded bytes plus
// storage-owned metadata for one Ref; Model ties a schema, a codec and a
// store together and runs the document lifecycle (validate, save hooks,
// version bump, activity emission).
//
// Data flow:
//
//	Schema.New / Schema.Hydrate -> Model -> codec.Codec -> Store
//
// Only what Document.ToObject returns is encoded, so transient fields and
// their private slots never reach a store.
//
// Deterministic keys:
//
//	Ref.Identifier() returns "collection/id" and is the key used by
//	MemoryStore. SQLiteStore keys rows on the (collection, id) pair.
//
// Concurrency:
//
//	Meta.ETag is replaced on every save. Model.Save and Model.Mutate reject a
//	caller supplied ETag that no longer matches the stored one with
//	ErrETagMismatch.
package state
