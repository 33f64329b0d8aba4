package facade

import (
	"context"
	"log/slog"

	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/repository"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

// Compile-time check that Local satisfies the Service interface.
var _ Service = (*Local)(nil)

// Local serves every facade call from the in-process repositories.
type Local struct {
	techniques repository.TechniqueRepository
	sessions   repository.SessionRepository
	profile    repository.ProfileRepository
	tags       repository.TagRepository
	backend    storage.Backend
	logger     *slog.Logger
}

// NewLocal creates a facade backed by the given repositories. The backend
// is only used for health probes.
func NewLocal(
	techniques repository.TechniqueRepository,
	sessions repository.SessionRepository,
	profile repository.ProfileRepository,
	tags repository.TagRepository,
	backend storage.Backend,
	logger *slog.Logger,
) *Local {
	return &Local{
		techniques: techniques,
		sessions:   sessions,
		profile:    profile,
		tags:       tags,
		backend:    backend,
		logger:     logger,
	}
}

func (l *Local) GetTechniques(ctx context.Context) ([]model.Technique, error) {
	return l.techniques.GetAll(ctx)
}

func (l *Local) SaveTechnique(ctx context.Context, technique *model.Technique) (*model.Technique, error) {
	return l.techniques.Save(ctx, technique)
}

func (l *Local) DeleteTechnique(ctx context.Context, id string) error {
	return l.techniques.Remove(ctx, id)
}

func (l *Local) GetSessions(ctx context.Context) ([]model.TrainingSession, error) {
	return l.sessions.GetAll(ctx)
}

func (l *Local) SaveSession(ctx context.Context, session *model.TrainingSession) (*model.TrainingSession, error) {
	return l.sessions.Save(ctx, session)
}

func (l *Local) DeleteSession(ctx context.Context, id string) error {
	return l.sessions.Remove(ctx, id)
}

func (l *Local) GetProfile(ctx context.Context) (*model.UserProfile, error) {
	return l.profile.Get(ctx)
}

func (l *Local) SaveProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	return l.profile.Save(ctx, profile)
}

func (l *Local) GetTags(ctx context.Context) ([]model.Tag, error) {
	return l.tags.GetAll(ctx)
}

// HealthCheck probes the persistence backend. An unreachable backend is
// reported in the status rather than returned as an error.
func (l *Local) HealthCheck(ctx context.Context) (*Health, error) {
	health := &Health{
		Status:  "ok",
		IsLocal: true,
		Version: ProtocolVersion,
	}
	if err := l.backend.Ping(ctx); err != nil {
		l.logger.Error("storage health probe failed", slog.String("error", err.Error()))
		health.Status = "unavailable"
	}
	return health, nil
}

// CheckCompatibility against the in-process backend always succeeds; there
// is no protocol boundary to negotiate across.
func (l *Local) CheckCompatibility(ctx context.Context) (*Compatibility, error) {
	return &Compatibility{Compatible: true, UpgradeRequired: false}, nil
}
