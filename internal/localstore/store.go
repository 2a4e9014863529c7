// Package localstore is the on-device durable key/value store that holds
// project snapshots between sessions.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/reelworks/timeline/internal/db"
)

const (
	keyPrefix     = "timeline_project_"
	savedAtSuffix = "_saved_at"
)

// ProjectKey is the key holding a serialized project.
func ProjectKey(projectID string) string {
	return keyPrefix + projectID
}

// SavedAtKey is the sidecar key holding the RFC 3339 save time.
func SavedAtKey(projectID string) string {
	return keyPrefix + projectID + savedAtSuffix
}

// Store is a sqlite-backed key/value store. Large values are compressed
// transparently.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(conn *sql.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) set(ctx context.Context, ex execer, key string, value []byte) error {
	stored, enc := db.Encode(value)
	_, err := ex.ExecContext(ctx, `
		INSERT INTO kv (key, value, encoding, size, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encoding = excluded.encoding,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, key, stored, enc, len(value), s.now().UTC().Format(db.TimeFormat))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get returns the value under key, or nil if absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		stored []byte
		enc    string
		size   int
	)
	err := s.db.QueryRowContext(ctx, "SELECT value, encoding, size FROM kv WHERE key = ?", key).Scan(&stored, &enc, &size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	value, err := db.Decode(stored, enc, size)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

// PutProject stores a project snapshot and its save time in one
// transaction.
func (s *Store) PutProject(ctx context.Context, projectID string, data []byte, savedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := s.set(ctx, tx, ProjectKey(projectID), data); err != nil {
		return err
	}
	if err := s.set(ctx, tx, SavedAtKey(projectID), []byte(savedAt.UTC().Format(time.RFC3339))); err != nil {
		return err
	}
	return tx.Commit()
}

// GetProject returns a project snapshot and its save time. data is nil when the
// project was never stored.
func (s *Store) GetProject(ctx context.Context, projectID string) ([]byte, time.Time, error) {
	data, err := s.Get(ctx, ProjectKey(projectID))
	if err != nil || data == nil {
		return nil, time.Time{}, err
	}
	raw, err := s.Get(ctx, SavedAtKey(projectID))
	if err != nil {
		return nil, time.Time{}, err
	}
	var savedAt time.Time
	if raw != nil {
		savedAt, err = time.Parse(time.RFC3339, string(raw))
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parse saved_at for %s: %w", projectID, err)
		}
	}
	return data, savedAt, nil
}

// DeleteProject removes a snapshot and its sidecar.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key IN (?, ?)", ProjectKey(projectID), SavedAtKey(projectID))
	return err
}

// ProjectIDs lists the projects with a stored snapshot. A key ending in the
// sidecar suffix is a project of its own unless its base key also exists.
func (s *Store) ProjectIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(keyPrefix), keyPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	present := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
		present[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var ids []string
	for _, key := range keys {
		if base, ok := strings.CutSuffix(key, savedAtSuffix); ok && present[base] {
			continue
		}
		ids = append(ids, strings.TrimPrefix(key, keyPrefix))
	}
	return ids, nil
}

// Snapshots adapts the store to the project snapshot interface used by
// the save pipeline.
type Snapshots struct {
	Store *Store
}

func (s Snapshots) Put(ctx context.Context, projectID string, data []byte, savedAt time.Time) error {
	return s.Store.PutProject(ctx, projectID, data, savedAt)
}

func (s Snapshots) Get(ctx context.Context, projectID string) ([]byte, time.Time, error) {
	return s.Store.GetProject(ctx, projectID)
}
