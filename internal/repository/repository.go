// Package repository provides the per-entity CRUD contracts over the
// storage backend. Repositories translate between domain values and
// stored JSON records, enforce the model invariants before anything is
// persisted, and keep weak cross-references clean on removal.
package repository

import (
	"context"

	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// TechniqueRepository manages the technique catalog. Save is an upsert:
// it inserts when the id is unknown to the backend and fully replaces
// when it exists. Remove also strips the technique's id from every
// session that referenced it.
type TechniqueRepository interface {
	GetAll(ctx context.Context) ([]model.Technique, error)
	GetByID(ctx context.Context, id string) (*model.Technique, error)
	Save(ctx context.Context, technique *model.Technique) (*model.Technique, error)
	Remove(ctx context.Context, id string) error
}

// SessionRepository manages the training log. Remove clears the
// SessionID back-reference on every technique that pointed at the
// removed session.
type SessionRepository interface {
	GetAll(ctx context.Context) ([]model.TrainingSession, error)
	GetByID(ctx context.Context, id string) (*model.TrainingSession, error)
	Save(ctx context.Context, session *model.TrainingSession) (*model.TrainingSession, error)
	Remove(ctx context.Context, id string) error
}

// ProfileRepository manages the singleton user profile. Get creates and
// persists the default profile on first read; the profile is only ever
// replaced, never removed.
type ProfileRepository interface {
	Get(ctx context.Context) (*model.UserProfile, error)
	Save(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error)
}

// TagRepository maintains the derived tag registry. RecordUsage applies
// an adoption diff from a technique save or removal: adopted names are
// created on first use and incremented, dropped names decremented but
// never deleted.
type TagRepository interface {
	GetAll(ctx context.Context) ([]model.Tag, error)
	GetByName(ctx context.Context, name string) (*model.Tag, error)
	RecordUsage(ctx context.Context, adopted, dropped []string) error
}
