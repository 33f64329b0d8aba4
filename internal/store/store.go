// Package store keeps every entity collection in memory and applies
// mutations optimistically: callers see their change before persistence
// confirms it. Failed writes are never rolled back in place; the affected
// collection resynchronizes from the backend with a coalesced refresh and
// the error is delivered on the mutation's result channel. The store is an
// explicitly constructed instance handed to its consumers, built once at
// startup after migration has finished.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// Store bundles the per-entity collections over one facade.
type Store struct {
	Techniques *Collection[model.Technique]
	Sessions   *Collection[model.TrainingSession]
	Profile    *ProfileStore
	Tags       *TagCache
}

// New wires the collections to the given facade. Nothing is loaded until
// Init or the first Refresh.
func New(svc facade.Service, logger *slog.Logger) *Store {
	tags := NewTagCache(svc, logger)

	techniques := NewCollection(Ops[model.Technique]{
		Name: "techniques",
		ID:   func(t model.Technique) string { return t.ID },
		Prepare: func(t model.Technique) model.Technique {
			if t.ID == "" {
				t.ID = xid.New().String()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = time.Now().UTC()
			}
			return t
		},
		Fetch: svc.GetTechniques,
		Save: func(ctx context.Context, t model.Technique) (model.Technique, error) {
			saved, err := svc.SaveTechnique(ctx, &t)
			if err != nil {
				return model.Technique{}, err
			}
			return *saved, nil
		},
		Delete: svc.DeleteTechnique,
		// Technique writes adjust tag usage counts.
		AfterWrite: tags.Invalidate,
	}, logger)

	sessions := NewCollection(Ops[model.TrainingSession]{
		Name: "sessions",
		ID:   func(s model.TrainingSession) string { return s.ID },
		Prepare: func(s model.TrainingSession) model.TrainingSession {
			if s.ID == "" {
				s.ID = xid.New().String()
			}
			return s
		},
		Fetch: svc.GetSessions,
		Save: func(ctx context.Context, s model.TrainingSession) (model.TrainingSession, error) {
			saved, err := svc.SaveSession(ctx, &s)
			if err != nil {
				return model.TrainingSession{}, err
			}
			return *saved, nil
		},
		Delete: svc.DeleteSession,
	}, logger)

	return &Store{
		Techniques: techniques,
		Sessions:   sessions,
		Profile:    NewProfileStore(svc, logger),
		Tags:       tags,
	}
}

// Init performs the initial load of every collection. The collections are
// independent, so the loads run concurrently; the first failure aborts the
// rest and is returned.
func (s *Store) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Techniques.Refresh(ctx) })
	g.Go(func() error { return s.Sessions.Refresh(ctx) })
	g.Go(func() error { return s.Profile.Refresh(ctx) })
	g.Go(func() error { return s.Tags.Refresh(ctx) })
	return g.Wait()
}
