package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// newTestBackend creates an in-memory database that is automatically
// cleaned up when the test finishes.
func newTestBackend(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	rec := &storage.Record{ID: "tech1", Data: []byte(`{"id":"tech1","name":"Armbar"}`)}
	if err := db.Put(ctx, storage.KindTechniques, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := db.Get(ctx, storage.KindTechniques, "tech1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("ID = %q, want %q", got.ID, rec.ID)
	}
	if string(got.Data) != string(rec.Data) {
		t.Errorf("Data = %s, want %s", got.Data, rec.Data)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	db := newTestBackend(t)

	_, err := db.Get(context.Background(), storage.KindTechniques, "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, apperror.ErrStorageUnavailable) {
		t.Error("missing record must not look like a storage failure")
	}
}

func TestPutReplacesExistingRecord(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	first := &storage.Record{ID: "tech1", Data: []byte(`{"v":1}`)}
	second := &storage.Record{ID: "tech1", Data: []byte(`{"v":2}`)}
	if err := db.Put(ctx, storage.KindTechniques, first); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := db.Put(ctx, storage.KindTechniques, second); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := db.Get(ctx, storage.KindTechniques, "tech1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != `{"v":2}` {
		t.Errorf("Data = %s, want replaced record", got.Data)
	}

	records, err := db.List(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestListReflectsPutsAndDeletes(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		rec := &storage.Record{ID: id, Data: []byte(`{}`)}
		if err := db.Put(ctx, storage.KindSessions, rec); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}
	if err := db.Delete(ctx, storage.KindSessions, "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	records, err := db.List(ctx, storage.KindSessions)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "a" || records[1].ID != "c" {
		t.Errorf("records = [%s %s], want [a c]", records[0].ID, records[1].ID)
	}
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	db := newTestBackend(t)

	err := db.Delete(context.Background(), storage.KindTechniques, "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKindsAreIsolated(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	rec := &storage.Record{ID: "x", Data: []byte(`{}`)}
	if err := db.Put(ctx, storage.KindTechniques, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := db.Get(ctx, storage.KindSessions, "x"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from other kind, got %v", err)
	}
}

func TestComponentVersionDefaultsToZero(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	version, err := db.ComponentVersion(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("ComponentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0 for unstamped store", version)
	}

	if err := db.SetComponentVersion(ctx, storage.KindTechniques, 1); err != nil {
		t.Fatalf("SetComponentVersion failed: %v", err)
	}
	version, err = db.ComponentVersion(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("ComponentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}

func TestQuarantineMovesRecord(t *testing.T) {
	db := newTestBackend(t)
	ctx := context.Background()

	rec := &storage.Record{ID: "bad1", Data: []byte(`not json`)}
	if err := db.Put(ctx, storage.KindTechniques, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := db.Quarantine(ctx, storage.KindTechniques, rec, "unparseable json"); err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}

	// Gone from the live store.
	if _, err := db.Get(ctx, storage.KindTechniques, "bad1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after quarantine, got %v", err)
	}

	// Preserved in the quarantine table with its reason.
	var data, reason string
	err := db.conn.QueryRow(
		`SELECT record, reason FROM quarantine WHERE kind = ? AND id = ?`,
		string(storage.KindTechniques), "bad1",
	).Scan(&data, &reason)
	if err != nil {
		t.Fatalf("reading quarantine row: %v", err)
	}
	if data != "not json" {
		t.Errorf("quarantined record = %q, want original bytes", data)
	}
	if reason != "unparseable json" {
		t.Errorf("reason = %q, want %q", reason, "unparseable json")
	}
}

func TestPingAfterClose(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping on open database failed: %v", err)
	}
	db.Close()
	if err := db.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping to fail after Close")
	}
}
