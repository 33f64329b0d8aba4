package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage/sqlite"
)

func newTestRunner(t *testing.T) (*Runner, storage.Backend) {
	t.Helper()
	backend, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRunner(backend, logger), backend
}

func seedRecord(t *testing.T, backend storage.Backend, kind storage.Kind, id, data string) {
	t.Helper()
	err := backend.Put(context.Background(), kind, &storage.Record{ID: id, Data: []byte(data)})
	if err != nil {
		t.Fatalf("seeding %s record %s: %v", kind, id, err)
	}
}

func TestFreshStoreStampsCurrentVersion(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	summaries, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summaries) != len(storage.Kinds) {
		t.Fatalf("got %d summaries, want %d", len(summaries), len(storage.Kinds))
	}

	for _, kind := range storage.Kinds {
		version, err := backend.ComponentVersion(ctx, kind)
		if err != nil {
			t.Fatalf("ComponentVersion(%s): %v", kind, err)
		}
		if version != CurrentSchemaVersion {
			t.Errorf("%s version = %d, want %d", kind, version, CurrentSchemaVersion)
		}
	}
}

func TestMigratesLegacyTechnique(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	// Epoch-millisecond createdAt, duplicate and blank tags, unknown category.
	seedRecord(t, backend, storage.KindTechniques, "tech1",
		`{"id":"tech1","name":" Armbar ","category":"Attacks","tags":["Mount","Mount"," ","Beginner"],"createdAt":1671811200000}`)

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rec, err := backend.Get(ctx, storage.KindTechniques, "tech1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var got model.Technique
	if err := json.Unmarshal(rec.Data, &got); err != nil {
		t.Fatalf("migrated record does not decode: %v", err)
	}
	if got.Name != "Armbar" {
		t.Errorf("Name = %q, want %q", got.Name, "Armbar")
	}
	if got.Category != model.CategoryOther {
		t.Errorf("Category = %q, want %q for unknown legacy value", got.Category, model.CategoryOther)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "Mount" || got.Tags[1] != "Beginner" {
		t.Errorf("Tags = %v, want [Mount Beginner]", got.Tags)
	}
	want := time.UnixMilli(1671811200000).UTC()
	if !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
}

func TestMigratesLegacySession(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	// No submissionCounts, legacy "no-gi" spelling, epoch date.
	seedRecord(t, backend, storage.KindSessions, "sess1",
		`{"id":"sess1","date":1671811200000,"type":"no-gi","submissions":["Armbar","Armbar","Triangle"],"satisfaction":4,"techniqueIds":["tech1","tech1"]}`)

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rec, err := backend.Get(ctx, storage.KindSessions, "sess1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var got model.TrainingSession
	if err := json.Unmarshal(rec.Data, &got); err != nil {
		t.Fatalf("migrated record does not decode: %v", err)
	}
	if got.Type != model.SessionNoGi {
		t.Errorf("Type = %q, want %q", got.Type, model.SessionNoGi)
	}
	if got.SubmissionCounts["Armbar"] != 2 || got.SubmissionCounts["Triangle"] != 1 {
		t.Errorf("SubmissionCounts = %v, want derived counts", got.SubmissionCounts)
	}
	if len(got.TechniqueIDs) != 1 {
		t.Errorf("TechniqueIDs = %v, want deduped", got.TechniqueIDs)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("migrated session fails validation: %v", err)
	}
}

func TestMigratesLegacyProfile(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	seedRecord(t, backend, storage.KindProfile, storage.ProfileRecordID,
		`{"name":"Dave","beltRank":"Blue"}`)

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rec, err := backend.Get(ctx, storage.KindProfile, storage.ProfileRecordID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got model.UserProfile
	if err := json.Unmarshal(rec.Data, &got); err != nil {
		t.Fatalf("migrated record does not decode: %v", err)
	}
	if got.BeltRank != model.BeltBlue {
		t.Errorf("BeltRank = %q, want %q", got.BeltRank, model.BeltBlue)
	}
	if got.Stripes != 0 {
		t.Errorf("Stripes = %d, want 0 default", got.Stripes)
	}
}

func TestSecondRunIsNoOp(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	seedRecord(t, backend, storage.KindTechniques, "tech1",
		`{"id":"tech1","name":"Armbar","category":"Submission","tags":["Mount"],"createdAt":1671811200000}`)

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	before, err := backend.List(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	summaries, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	for _, s := range summaries {
		if s.Migrated != 0 || s.Quarantined != 0 {
			t.Errorf("second run touched %s: %+v", s.Component, s)
		}
		if s.FromVersion != CurrentSchemaVersion {
			t.Errorf("%s FromVersion = %d, want %d", s.Component, s.FromVersion, CurrentSchemaVersion)
		}
	}

	after, err := backend.List(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("record count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if string(before[i].Data) != string(after[i].Data) {
			t.Errorf("record %s bytes changed on second run", before[i].ID)
		}
	}
}

func TestQuarantinesCorruptRecordAndContinues(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	seedRecord(t, backend, storage.KindTechniques, "good1",
		`{"id":"good1","name":"Armbar","category":"Submission","createdAt":1671811200000}`)
	seedRecord(t, backend, storage.KindTechniques, "bad1", `this is not json`)
	seedRecord(t, backend, storage.KindTechniques, "bad2", `{"name":"missing id"}`)

	summaries, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var techniques Summary
	for _, s := range summaries {
		if s.Component == storage.KindTechniques {
			techniques = s
		}
	}
	if techniques.Quarantined != 2 {
		t.Errorf("Quarantined = %d, want 2", techniques.Quarantined)
	}
	if techniques.Migrated != 1 {
		t.Errorf("Migrated = %d, want 1", techniques.Migrated)
	}

	// The good record survived, the bad ones are out of the live store,
	// and the pass still stamped the marker.
	records, err := backend.List(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "good1" {
		t.Fatalf("live records = %v, want only good1", records)
	}
	version, err := backend.ComponentVersion(ctx, storage.KindTechniques)
	if err != nil {
		t.Fatalf("ComponentVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestNewerSchemaVersionFails(t *testing.T) {
	runner, backend := newTestRunner(t)
	ctx := context.Background()

	if err := backend.SetComponentVersion(ctx, storage.KindTechniques, CurrentSchemaVersion+1); err != nil {
		t.Fatalf("SetComponentVersion failed: %v", err)
	}

	_, err := runner.Run(ctx)
	if err == nil {
		t.Fatal("expected error for newer schema version")
	}
	if !errors.Is(err, apperror.ErrMigration) {
		t.Errorf("expected ErrMigration, got %v", err)
	}
}
