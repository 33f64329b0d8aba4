package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

var _ ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo implements ProfileRepository. The profile lives under a
// fixed record id; there is exactly one live instance.
type ProfileRepo struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewProfileRepository(backend storage.Backend, logger *slog.Logger) *ProfileRepo {
	return &ProfileRepo{
		backend: backend,
		logger:  logger,
	}
}

// Get returns the profile, creating and persisting the default one on
// first read so the singleton exists from first launch onward.
func (r *ProfileRepo) Get(ctx context.Context) (*model.UserProfile, error) {
	rec, err := r.backend.Get(ctx, storage.KindProfile, storage.ProfileRecordID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return r.createDefault(ctx)
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var p model.UserProfile
	if err := decodeStrict(rec.Data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Save validates and overwrites the profile. Reset is an overwrite with
// defaults, never a removal.
func (r *ProfileRepo) Save(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error) {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	rec, err := encodeRecord(storage.ProfileRecordID, profile)
	if err != nil {
		return nil, err
	}
	if err := r.backend.Put(ctx, storage.KindProfile, rec); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	r.logger.Info("profile saved",
		slog.String("belt", string(profile.BeltRank)),
		slog.Int("stripes", profile.Stripes),
	)
	return profile, nil
}

func (r *ProfileRepo) createDefault(ctx context.Context) (*model.UserProfile, error) {
	profile := model.DefaultProfile()
	rec, err := encodeRecord(storage.ProfileRecordID, profile)
	if err != nil {
		return nil, err
	}
	if err := r.backend.Put(ctx, storage.KindProfile, rec); err != nil {
		return nil, fmt.Errorf("creating default profile: %w", err)
	}
	r.logger.Info("default profile created")
	return profile, nil
}
