package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// TagCache is a read-through cache over the tag registry. Tag rows change
// as a side effect of technique writes, so the techniques collection
// invalidates the cache after every settled mutation and the next read
// reloads it.
type TagCache struct {
	svc    facade.Service
	logger *slog.Logger

	mu    sync.Mutex
	tags  []model.Tag
	fresh bool

	refreshGroup singleflight.Group
}

// NewTagCache creates an empty, stale cache.
func NewTagCache(svc facade.Service, logger *slog.Logger) *TagCache {
	return &TagCache{svc: svc, logger: logger}
}

// Invalidate marks the cached registry stale without dropping it.
func (t *TagCache) Invalidate() {
	t.mu.Lock()
	t.fresh = false
	t.mu.Unlock()
}

// Snapshot returns a copy of the cached registry, stale or not.
func (t *TagCache) Snapshot() []model.Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.tags)
}

// Refresh reloads the registry. Concurrent refreshes are coalesced.
func (t *TagCache) Refresh(ctx context.Context) error {
	_, err, _ := t.refreshGroup.Do("refresh", func() (any, error) {
		tags, err := t.svc.GetTags(ctx)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.tags = tags
		t.fresh = true
		t.mu.Unlock()
		return nil, nil
	})
	return err
}

// Get returns the registry, reloading it first when stale.
func (t *TagCache) Get(ctx context.Context) ([]model.Tag, error) {
	t.mu.Lock()
	fresh := t.fresh
	t.mu.Unlock()

	if !fresh {
		if err := t.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return t.Snapshot(), nil
}
