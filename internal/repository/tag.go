package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

var _ TagRepository = (*TagRepo)(nil)

// TagRepo implements TagRepository. Tag rows are created lazily the
// first time a technique adopts a name; uniqueness is case-insensitive,
// so "Mount" and "mount" resolve to the same row.
type TagRepo struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewTagRepository(backend storage.Backend, logger *slog.Logger) *TagRepo {
	return &TagRepo{
		backend: backend,
		logger:  logger,
	}
}

// GetAll returns every persisted tag, sorted by name.
func (r *TagRepo) GetAll(ctx context.Context) ([]model.Tag, error) {
	tags, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

// GetByName resolves a tag case-insensitively.
func (r *TagRepo) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	tags, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	key := model.TagKey(name)
	for i := range tags {
		if model.TagKey(tags[i].Name) == key {
			return &tags[i], nil
		}
	}
	return nil, apperror.NotFound("tag", name)
}

// RecordUsage applies a tag adoption diff. Adopted names are upserted
// and incremented; dropped names decremented, floored at zero. Rows are
// never deleted, even at zero usage.
func (r *TagRepo) RecordUsage(ctx context.Context, adopted, dropped []string) error {
	if len(adopted) == 0 && len(dropped) == 0 {
		return nil
	}

	tags, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	byKey := make(map[string]*model.Tag, len(tags))
	for i := range tags {
		byKey[model.TagKey(tags[i].Name)] = &tags[i]
	}
	changed := make(map[string]*model.Tag)

	for _, name := range adopted {
		key := model.TagKey(name)
		if tag, ok := byKey[key]; ok {
			tag.UsageCount++
			changed[key] = tag
			continue
		}
		category, known := model.PredefinedTagCategory(name)
		tag := &model.Tag{
			ID:         xid.New().String(),
			Name:       strings.TrimSpace(name),
			Category:   category,
			UsageCount: 1,
			CreatedAt:  time.Now().UTC(),
			IsCustom:   !known,
		}
		byKey[key] = tag
		changed[key] = tag
		r.logger.Info("tag created",
			slog.String("name", tag.Name),
			slog.String("category", string(tag.Category)),
		)
	}

	for _, name := range dropped {
		tag, ok := byKey[model.TagKey(name)]
		if !ok {
			continue
		}
		if tag.UsageCount > 0 {
			tag.UsageCount--
		}
		changed[model.TagKey(name)] = tag
	}

	for _, tag := range changed {
		rec, err := encodeRecord(tag.ID, tag)
		if err != nil {
			return err
		}
		if err := r.backend.Put(ctx, storage.KindTags, rec); err != nil {
			return fmt.Errorf("saving tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

func (r *TagRepo) loadAll(ctx context.Context) ([]model.Tag, error) {
	records, err := r.backend.List(ctx, storage.KindTags)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	tags := make([]model.Tag, 0, len(records))
	for _, rec := range records {
		var t model.Tag
		if err := decodeStrict(rec.Data, &t); err != nil {
			return nil, fmt.Errorf("decoding tag %s: %w", rec.ID, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}
