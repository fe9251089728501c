package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore persists encoded documents in a single SQLite table keyed by
// (collection, id).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path. An empty path
// defaults to "documents.db".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "documents.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("state: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite: %w", err)
	}
	// One connection serializes writers in process and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		payload BLOB NOT NULL,
		snapshot_id TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT '',
		extra TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (collection, id)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create documents table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// DB exposes the underlying handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, ref Ref) ([]byte, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, snapshot_id, etag, updated_at, extra FROM documents WHERE collection = ? AND id = ?`,
		ref.Collection, ref.ID)

	var (
		payload   []byte
		meta      Meta
		updatedAt string
		extra     string
	)
	if err := row.Scan(&payload, &meta.SnapshotID, &meta.ETag, &updatedAt, &extra); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, Meta{}, false, nil
		}
		return nil, Meta{}, false, fmt.Errorf("state: load %s: %w", key, err)
	}
	if updatedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode updated_at for %s: %w", key, err)
		}
		meta.UpdatedAt = at
	}
	if extra != "" {
		if err := gojson.Unmarshal([]byte(extra), &meta.Extra); err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode extra for %s: %w", key, err)
		}
	}
	return payload, meta, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ref Ref, data []byte, meta Meta, expect Expect) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	var updatedAt, extra string
	if !meta.UpdatedAt.IsZero() {
		updatedAt = meta.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(meta.Extra) > 0 {
		raw, err := gojson.Marshal(meta.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("state: encode extra for %s: %w", key, err)
		}
		extra = string(raw)
	}
	if data == nil {
		data = []byte{}
	}

	var res sql.Result
	switch {
	case expect.Absent:
		res, err = s.db.ExecContext(ctx, `INSERT INTO documents (collection, id, payload, snapshot_id, etag, updated_at, extra)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO NOTHING`,
			ref.Collection, ref.ID, data, meta.SnapshotID, meta.ETag, updatedAt, extra)
	case expect.ETag != "":
		res, err = s.db.ExecContext(ctx, `UPDATE documents SET
			payload = ?, snapshot_id = ?, etag = ?, updated_at = ?, extra = ?
			WHERE collection = ? AND id = ? AND etag = ?`,
			data, meta.SnapshotID, meta.ETag, updatedAt, extra, ref.Collection, ref.ID, expect.ETag)
	default:
		res, err = s.db.ExecContext(ctx, `INSERT INTO documents (collection, id, payload, snapshot_id, etag, updated_at, extra)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				payload = excluded.payload,
				snapshot_id = excluded.snapshot_id,
				etag = excluded.etag,
				updated_at = excluded.updated_at,
				extra = excluded.extra`,
			ref.Collection, ref.ID, data, meta.SnapshotID, meta.ETag, updatedAt, extra)
	}
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %s: %w", key, err)
	}
	if expect.Absent || expect.ETag != "" {
		n, err := res.RowsAffected()
		if err != nil {
			return Meta{}, fmt.Errorf("state: save %s: %w", key, err)
		}
		if n == 0 {
			return Meta{}, s.rejected(ctx, ref, key, expect)
		}
	}
	return cloneMeta(meta), nil
}

// rejected explains why a conditional save touched no row.
func (s *SQLiteStore) rejected(ctx context.Context, ref Ref, key string, expect Expect) error {
	var current Meta
	err := s.db.QueryRowContext(ctx, `SELECT etag FROM documents WHERE collection = ? AND id = ?`,
		ref.Collection, ref.ID).Scan(&current.ETag)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("state: save %s: %w", key, err)
	}
	if err := expect.check(key, current, exists); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrETagMismatch, key)
}

func (s *SQLiteStore) Delete(ctx context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, ref.Collection, ref.ID)
	if err != nil {
		return fmt.Errorf("state: delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("state: delete %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// IDs lists the document ids stored for collection in ascending order.
func (s *SQLiteStore) IDs(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("state: list %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("state: scan %s: %w", collection, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
