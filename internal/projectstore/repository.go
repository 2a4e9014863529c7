// Package projectstore is the sync daemon's durable copy of every project
// pushed by editing sessions.
package projectstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reelworks/timeline/internal/db"
)

var (
	ErrInvalidPayload = errors.New("payload is not a JSON project")
	ErrIDMismatch     = errors.New("payload id does not match project id")
)

type Record struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Version          int64     `json:"version"`
	Size             int64     `json:"size"`
	ProjectUpdatedAt time.Time `json:"project_updated_at,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Payload []byte `json:"-"`
}

type Repository interface {
	Upsert(ctx context.Context, id string, payload []byte) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewRepository(d *db.DB) *SQLiteRepository {
	return &SQLiteRepository{db: d, now: time.Now}
}

// header is the part of a project document the store indexes.
type header struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func parseHeader(id string, payload []byte) (header, error) {
	var h header
	if !json.Valid(payload) {
		return h, ErrInvalidPayload
	}
	if err := json.Unmarshal(payload, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if h.ID != "" && h.ID != id {
		return h, ErrIDMismatch
	}
	return h, nil
}

// Upsert stores payload under id and bumps the record version. The same
// payload written twice still counts as two versions.
func (r *SQLiteRepository) Upsert(ctx context.Context, id string, payload []byte) (*Record, error) {
	h, err := parseHeader(id, payload)
	if err != nil {
		return nil, err
	}

	stored, enc := db.Encode(payload)
	now := r.now().UTC().Format(db.TimeFormat)
	var projectUpdated sql.NullString
	if !h.UpdatedAt.IsZero() {
		projectUpdated = db.NullString(h.UpdatedAt.UTC().Format(db.TimeFormat))
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, payload, encoding, size, version, project_updated_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				payload = excluded.payload,
				encoding = excluded.encoding,
				size = excluded.size,
				version = projects.version + 1,
				project_updated_at = excluded.project_updated_at,
				updated_at = excluded.updated_at
		`, id, h.Name, stored, enc, len(payload), projectUpdated, now, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert project %s: %w", id, err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.Conn().QueryRowContext(ctx, `
		SELECT id, name, payload, encoding, size, version, project_updated_at, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	var rec Record
	var stored []byte
	var enc string
	var projectUpdated sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&rec.ID, &rec.Name, &stored, &enc, &rec.Size, &rec.Version, &projectUpdated, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Payload, err = db.Decode(stored, enc, int(rec.Size))
	if err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	scanTimes(&rec, projectUpdated, createdAt, updatedAt)
	return &rec, nil
}

// List returns every record without payloads, ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Record, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, name, size, version, project_updated_at, created_at, updated_at
		FROM projects ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var projectUpdated sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Size, &rec.Version, &projectUpdated, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		scanTimes(&rec, projectUpdated, createdAt, updatedAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Conn().ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func scanTimes(rec *Record, projectUpdated sql.NullString, createdAt, updatedAt string) {
	if projectUpdated.Valid {
		rec.ProjectUpdatedAt, _ = time.Parse(db.TimeFormat, projectUpdated.String)
	}
	rec.CreatedAt, _ = time.Parse(db.TimeFormat, createdAt)
	rec.UpdatedAt, _ = time.Parse(db.TimeFormat, updatedAt)
}
