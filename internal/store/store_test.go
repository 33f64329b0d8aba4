package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/repository"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage/sqlite"
)

// newTestStore builds the full local stack: store over facade over
// repositories over an in-memory database.
func newTestStore(t *testing.T) (*Store, facade.Service) {
	t.Helper()
	backend, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	logger := testLogger()
	tags := repository.NewTagRepository(backend, logger)
	local := facade.NewLocal(
		repository.NewTechniqueRepository(backend, tags, logger),
		repository.NewSessionRepository(backend, logger),
		repository.NewProfileRepository(backend, logger),
		tags,
		backend,
		logger,
	)
	return New(local, logger), local
}

func TestInitLoadsEveryCollection(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if s.Techniques.State() != StateReady || s.Sessions.State() != StateReady {
		t.Errorf("collection states = %v/%v, want ready", s.Techniques.State(), s.Sessions.State())
	}
	profile, ok := s.Profile.Profile()
	if !ok {
		t.Fatal("profile not loaded")
	}
	if profile.BeltRank != model.BeltWhite {
		t.Errorf("profile = %+v, want default white belt", profile)
	}
}

func TestCreateTechniquePersists(t *testing.T) {
	s, svc := newTestStore(t)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	created, done := s.Techniques.Create(ctx, model.Technique{
		Name:     "Armbar",
		Category: model.CategorySubmission,
		Tags:     []string{"Mount", "Beginner"},
	})
	if err := <-done; err != nil {
		t.Fatalf("create confirmation failed: %v", err)
	}

	// The backend has it, not just the in-memory copy.
	persisted, err := svc.GetTechniques(ctx)
	if err != nil {
		t.Fatalf("GetTechniques failed: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != created.ID {
		t.Errorf("persisted = %v, want the created technique", persisted)
	}
	if persisted[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set on the persisted record")
	}
}

func TestCreateInvalidTechniqueReconciles(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tags := make([]string, model.MaxTagsPerTechnique+1)
	for i := range tags {
		tags[i] = fmt.Sprintf("extra-tag-%02d", i)
	}
	created, done := s.Techniques.Create(ctx, model.Technique{
		Name:     "Overloaded",
		Category: model.CategorySubmission,
		Tags:     tags,
	})

	if _, ok := s.Techniques.Get(created.ID); !ok {
		t.Fatal("optimistic entry missing right after Create")
	}

	err := <-done
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, ok := s.Techniques.Get(created.ID); ok {
		t.Error("rejected entry still in memory after reconcile")
	}
}

func TestTechniqueWriteRefreshesTagRegistry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	before, err := s.Tags.Get(ctx)
	if err != nil {
		t.Fatalf("Tags.Get failed: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("tags before any technique = %v, want none", before)
	}

	_, done := s.Techniques.Create(ctx, model.Technique{
		Name:     "Armbar",
		Category: model.CategorySubmission,
		Tags:     []string{"Mount"},
	})
	if err := <-done; err != nil {
		t.Fatalf("create failed: %v", err)
	}

	after, err := s.Tags.Get(ctx)
	if err != nil {
		t.Fatalf("Tags.Get after create failed: %v", err)
	}
	if len(after) != 1 || after[0].Name != "Mount" || after[0].UsageCount != 1 {
		t.Errorf("tags = %v, want Mount with usage 1", after)
	}
}

func TestProfileSaveOptimisticRevert(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	done := s.Profile.Save(ctx, model.UserProfile{BeltRank: model.BeltBlue, Stripes: 9})

	// Visible immediately, even though persistence will reject it.
	if p, _ := s.Profile.Profile(); p.Stripes != 9 {
		t.Fatalf("optimistic profile = %+v, want stripes 9", p)
	}

	err := <-done
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	p, ok := s.Profile.Profile()
	if !ok {
		t.Fatal("profile unloaded after reconcile")
	}
	if p.BeltRank != model.BeltWhite || p.Stripes != 0 {
		t.Errorf("profile = %+v, want reverted to persisted default", p)
	}
}

func TestSessionRemoveClearsBackrefOnNextRefresh(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	session, done := s.Sessions.Create(ctx, model.TrainingSession{
		Date:         time.Date(2025, 5, 20, 19, 0, 0, 0, time.UTC),
		Type:         model.SessionNoGi,
		Satisfaction: 5,
	})
	if err := <-done; err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	technique, done := s.Techniques.Create(ctx, model.Technique{
		Name:      "Heel Hook",
		Category:  model.CategorySubmission,
		SessionID: session.ID,
	})
	if err := <-done; err != nil {
		t.Fatalf("create technique failed: %v", err)
	}

	if err := <-s.Sessions.Remove(ctx, session.ID); err != nil {
		t.Fatalf("remove session failed: %v", err)
	}

	// The cleanup happened in persistence; a refresh surfaces it.
	if err := s.Techniques.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	got, ok := s.Techniques.Get(technique.ID)
	if !ok {
		t.Fatal("technique missing after session removal")
	}
	if got.SessionID != "" {
		t.Errorf("SessionID = %q, want cleared", got.SessionID)
	}
}
