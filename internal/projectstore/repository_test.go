package projectstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reelworks/timeline/internal/db"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "server.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return repo
}

func TestUpsertCreatesAndVersions(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Upsert(ctx, "proj_1", []byte(`{"id":"proj_1","name":"Trailer","updatedAt":"2025-02-28T09:00:00Z"}`))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.Version != 1 || rec.Name != "Trailer" {
		t.Fatalf("record = %+v", rec)
	}
	want := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)
	if !rec.ProjectUpdatedAt.Equal(want) {
		t.Fatalf("ProjectUpdatedAt = %v, want %v", rec.ProjectUpdatedAt, want)
	}
	created := rec.CreatedAt

	rec, err = repo.Upsert(ctx, "proj_1", []byte(`{"id":"proj_1","name":"Trailer v2"}`))
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if rec.Version != 2 || rec.Name != "Trailer v2" {
		t.Fatalf("record = %+v", rec)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt changed: %v -> %v", created, rec.CreatedAt)
	}
	if !rec.UpdatedAt.After(created) {
		t.Fatalf("UpdatedAt %v not after %v", rec.UpdatedAt, created)
	}
	if !rec.ProjectUpdatedAt.IsZero() {
		t.Fatalf("ProjectUpdatedAt = %v, want zero", rec.ProjectUpdatedAt)
	}
}

func TestUpsertRejectsBadPayloads(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, "p", []byte(`not json`)); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if _, err := repo.Upsert(ctx, "p", []byte(`[1,2]`)); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if _, err := repo.Upsert(ctx, "p", []byte(`{"id":"other"}`)); !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("err = %v, want ErrIDMismatch", err)
	}
}

func TestGetMissing(t *testing.T) {
	repo := setupTestRepo(t)
	rec, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestLargePayloadRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var buf bytes.Buffer
	buf.WriteString(`{"id":"big","name":"Big","assets":[`)
	for i := 0; i < 4000; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"type":"image","url":"https://cdn.example/frame.png","duration":5}`)
	}
	buf.WriteString(`]}`)
	payload := buf.Bytes()

	if _, err := repo.Upsert(ctx, "big", payload); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var enc string
	if err := repo.db.Conn().QueryRowContext(ctx, "SELECT encoding FROM projects WHERE id = ?", "big").Scan(&enc); err != nil {
		t.Fatalf("scan encoding: %v", err)
	}
	if enc != db.EncodingZstd {
		t.Fatalf("encoding = %q, want zstd", enc)
	}

	rec, err := repo.Get(ctx, "big")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(rec.Payload, payload) {
		t.Fatal("payload did not round-trip")
	}
	if rec.Size != int64(len(payload)) {
		t.Fatalf("Size = %d, want %d", rec.Size, len(payload))
	}
}

func TestListAndDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if _, err := repo.Upsert(ctx, id, []byte(`{"name":"`+id+`"}`)); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 || records[0].ID != "a" || records[2].ID != "c" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Payload != nil {
		t.Fatal("List should not load payloads")
	}

	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	records, _ = repo.List(ctx)
	if len(records) != 2 {
		t.Fatalf("records after delete = %d, want 2", len(records))
	}
}
