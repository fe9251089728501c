package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"
)

var (
	ErrETagMismatch = errors.New("state: etag mismatch")
	ErrNotFound     = errors.New("state: document not found")
	ErrDuplicateID  = errors.New("state: document already exists")
)

// Ref identifies one persisted document.
type Ref struct {
	Collection string
	ID         string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Expect is the condition the stored record must meet for a Save to apply.
// The zero value saves unconditionally.
type Expect struct {
	// Absent requires that no record exists yet (ErrDuplicateID otherwise).
	Absent bool
	// ETag, when set, must equal the stored ETag (ErrETagMismatch otherwise,
	// ErrNotFound when the record is gone).
	ETag string
}

// Store loads, saves and deletes the encoded form of one document. Save checks
// expect and writes atomically with respect to other saves of the same ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (data []byte, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, data []byte, meta Meta, expect Expect) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

func (e Expect) check(key string, current Meta, exists bool) error {
	switch {
	case e.Absent && exists:
		return fmt.Errorf("%w: %s", ErrDuplicateID, key)
	case e.ETag != "" && !exists:
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case e.ETag != "" && e.ETag != current.ETag:
		return fmt.Errorf("%w: %s: expected %q, got %q", ErrETagMismatch, key, e.ETag, current.ETag)
	}
	return nil
}

// Identifier returns the canonical "collection/id" key for the ref.
func (r Ref) Identifier() (string, error) {
	if r.Collection == "" {
		return "", fmt.Errorf("state: collection is required")
	}
	if r.ID == "" {
		return "", fmt.Errorf("state: id is required for collection %q", r.Collection)
	}
	return r.Collection + "/" + r.ID, nil
}

func mergeMeta(base, override Meta) Meta {
	out := cloneMeta(base)
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		if out.Extra == nil {
			out.Extra = make(map[string]string, len(override.Extra))
		}
		maps.Copy(out.Extra, override.Extra)
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra != nil {
		out.Extra = maps.Clone(meta.Extra)
	}
	return out
}
