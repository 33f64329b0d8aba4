package store

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
)

// ProfileStore holds the singleton user profile with the same optimistic
// semantics as Collection: saves overwrite in memory first and reconcile
// by refresh when persistence rejects them.
type ProfileStore struct {
	svc    facade.Service
	logger *slog.Logger

	mu      sync.Mutex
	profile model.UserProfile
	state   State

	persistMu    sync.Mutex
	refreshGroup singleflight.Group
}

// NewProfileStore creates an uninitialized profile store.
func NewProfileStore(svc facade.Service, logger *slog.Logger) *ProfileStore {
	return &ProfileStore{svc: svc, logger: logger}
}

// State reports the current lifecycle state.
func (p *ProfileStore) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Profile returns the in-memory profile. The second result is false until
// the first load has completed.
func (p *ProfileStore) Profile() (model.UserProfile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile, p.state == StateReady
}

// Refresh replaces the in-memory profile with the persisted one, creating
// the default on first ever load. Concurrent refreshes are coalesced.
func (p *ProfileStore) Refresh(ctx context.Context) error {
	_, err, _ := p.refreshGroup.Do("refresh", func() (any, error) {
		p.mu.Lock()
		previous := p.state
		p.state = StateLoading
		p.mu.Unlock()

		profile, err := p.svc.GetProfile(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.state = previous
			return nil, err
		}
		p.profile = *profile
		p.state = StateReady
		return nil, nil
	})
	return err
}

// Save overwrites the in-memory profile immediately and persists it in the
// background. The buffered channel reports the outcome; on failure the
// store has already been reconciled back to the persisted profile by the
// time the error is delivered.
func (p *ProfileStore) Save(ctx context.Context, profile model.UserProfile) <-chan error {
	p.mu.Lock()
	p.profile = profile
	p.mu.Unlock()

	done := make(chan error, 1)
	ctx = context.WithoutCancel(ctx)

	go func() {
		p.persistMu.Lock()
		_, err := p.svc.SaveProfile(ctx, &profile)
		p.persistMu.Unlock()

		if err != nil {
			p.logger.Warn("profile write failed, resynchronizing from backend",
				slog.String("error", err.Error()))
			if refreshErr := p.Refresh(ctx); refreshErr != nil {
				p.logger.Error("profile resynchronization failed",
					slog.String("error", refreshErr.Error()))
			}
		}
		done <- err
	}()

	return done
}
