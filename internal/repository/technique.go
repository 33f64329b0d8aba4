package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rs/xid"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

var _ TechniqueRepository = (*TechniqueRepo)(nil)

// TechniqueRepo implements TechniqueRepository over the storage backend,
// maintaining the tag registry as techniques adopt and drop tags.
type TechniqueRepo struct {
	backend storage.Backend
	tags    TagRepository
	logger  *slog.Logger
}

func NewTechniqueRepository(backend storage.Backend, tags TagRepository, logger *slog.Logger) *TechniqueRepo {
	return &TechniqueRepo{
		backend: backend,
		tags:    tags,
		logger:  logger,
	}
}

// GetAll returns every technique, newest first.
func (r *TechniqueRepo) GetAll(ctx context.Context) ([]model.Technique, error) {
	records, err := r.backend.List(ctx, storage.KindTechniques)
	if err != nil {
		return nil, fmt.Errorf("listing techniques: %w", err)
	}

	techniques := make([]model.Technique, 0, len(records))
	for _, rec := range records {
		var t model.Technique
		if err := decodeStrict(rec.Data, &t); err != nil {
			return nil, fmt.Errorf("decoding technique %s: %w", rec.ID, err)
		}
		techniques = append(techniques, t)
	}

	sort.Slice(techniques, func(i, j int) bool {
		if !techniques[i].CreatedAt.Equal(techniques[j].CreatedAt) {
			return techniques[i].CreatedAt.After(techniques[j].CreatedAt)
		}
		return techniques[i].ID < techniques[j].ID
	})
	return techniques, nil
}

func (r *TechniqueRepo) GetByID(ctx context.Context, id string) (*model.Technique, error) {
	rec, err := r.backend.Get(ctx, storage.KindTechniques, id)
	if err != nil {
		return nil, err
	}
	var t model.Technique
	if err := decodeStrict(rec.Data, &t); err != nil {
		return nil, fmt.Errorf("decoding technique %s: %w", id, err)
	}
	return &t, nil
}

// Save validates and upserts a technique. A technique without an id gets
// one; an existing id is fully replaced. Newly adopted tags are recorded
// in the tag registry, dropped ones decremented.
func (r *TechniqueRepo) Save(ctx context.Context, technique *model.Technique) (*model.Technique, error) {
	technique.Normalize()
	if err := technique.Validate(); err != nil {
		return nil, err
	}

	var previousTags []string
	if technique.ID != "" {
		previous, err := r.GetByID(ctx, technique.ID)
		switch {
		case err == nil:
			previousTags = previous.Tags
			if technique.CreatedAt.IsZero() {
				technique.CreatedAt = previous.CreatedAt
			}
		case errors.Is(err, apperror.ErrNotFound):
			// Unknown id: treated as an insert under the caller's id,
			// which is what re-importing an exported record needs.
		default:
			return nil, err
		}
	} else {
		technique.ID = xid.New().String()
	}
	if technique.CreatedAt.IsZero() {
		technique.CreatedAt = time.Now()
	}
	technique.CreatedAt = technique.CreatedAt.UTC()

	rec, err := encodeRecord(technique.ID, technique)
	if err != nil {
		return nil, err
	}
	if err := r.backend.Put(ctx, storage.KindTechniques, rec); err != nil {
		return nil, fmt.Errorf("saving technique %s: %w", technique.ID, err)
	}

	adopted, dropped := diffStrings(previousTags, technique.Tags)
	if err := r.tags.RecordUsage(ctx, adopted, dropped); err != nil {
		return nil, fmt.Errorf("updating tag registry: %w", err)
	}

	r.logger.Info("technique saved",
		slog.String("id", technique.ID),
		slog.String("name", technique.Name),
	)
	return technique, nil
}

// Remove deletes a technique and strips its id from every session's
// techniqueIds. Weak references never cascade the delete the other way.
func (r *TechniqueRepo) Remove(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.backend.Delete(ctx, storage.KindTechniques, id); err != nil {
		return fmt.Errorf("removing technique %s: %w", id, err)
	}

	if err := r.tags.RecordUsage(ctx, nil, existing.Tags); err != nil {
		return fmt.Errorf("updating tag registry: %w", err)
	}

	cleaned, err := r.stripFromSessions(ctx, id)
	if err != nil {
		return fmt.Errorf("cleaning session references to %s: %w", id, err)
	}

	r.logger.Info("technique removed",
		slog.String("id", id),
		slog.Int("sessions_cleaned", cleaned),
	)
	return nil
}

// stripFromSessions removes a technique id from every session record
// that lists it. Scan-and-clean, not a cascading delete.
func (r *TechniqueRepo) stripFromSessions(ctx context.Context, techniqueID string) (int, error) {
	records, err := r.backend.List(ctx, storage.KindSessions)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, rec := range records {
		var s model.TrainingSession
		if err := decodeStrict(rec.Data, &s); err != nil {
			return cleaned, fmt.Errorf("decoding session %s: %w", rec.ID, err)
		}

		filtered := s.TechniqueIDs[:0:0]
		for _, ref := range s.TechniqueIDs {
			if ref != techniqueID {
				filtered = append(filtered, ref)
			}
		}
		if len(filtered) == len(s.TechniqueIDs) {
			continue
		}
		s.TechniqueIDs = filtered

		updated, err := encodeRecord(s.ID, &s)
		if err != nil {
			return cleaned, err
		}
		if err := r.backend.Put(ctx, storage.KindSessions, updated); err != nil {
			return cleaned, err
		}
		cleaned++
	}
	return cleaned, nil
}

// diffStrings reports which entries are new in current and which were
// only in previous.
func diffStrings(previous, current []string) (added, removed []string) {
	prev := make(map[string]struct{}, len(previous))
	for _, s := range previous {
		prev[s] = struct{}{}
	}
	curr := make(map[string]struct{}, len(current))
	for _, s := range current {
		curr[s] = struct{}{}
		if _, ok := prev[s]; !ok {
			added = append(added, s)
		}
	}
	for _, s := range previous {
		if _, ok := curr[s]; !ok {
			removed = append(removed, s)
		}
	}
	return added, removed
}
