package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rs/xid"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage"
)

var _ SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements SessionRepository over the storage backend.
type SessionRepo struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewSessionRepository(backend storage.Backend, logger *slog.Logger) *SessionRepo {
	return &SessionRepo{
		backend: backend,
		logger:  logger,
	}
}

// GetAll returns every training session, most recent date first.
func (r *SessionRepo) GetAll(ctx context.Context) ([]model.TrainingSession, error) {
	records, err := r.backend.List(ctx, storage.KindSessions)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	sessions := make([]model.TrainingSession, 0, len(records))
	for _, rec := range records {
		var s model.TrainingSession
		if err := decodeStrict(rec.Data, &s); err != nil {
			return nil, fmt.Errorf("decoding session %s: %w", rec.ID, err)
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.After(sessions[j].Date)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.TrainingSession, error) {
	rec, err := r.backend.Get(ctx, storage.KindSessions, id)
	if err != nil {
		return nil, err
	}
	var s model.TrainingSession
	if err := decodeStrict(rec.Data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}

// Save validates and upserts a session. TechniqueIDs may reference
// techniques that do not exist; the reference is advisory.
func (r *SessionRepo) Save(ctx context.Context, session *model.TrainingSession) (*model.TrainingSession, error) {
	session.Normalize()
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if session.ID == "" {
		session.ID = xid.New().String()
	}
	session.Date = session.Date.UTC()

	rec, err := encodeRecord(session.ID, session)
	if err != nil {
		return nil, err
	}
	if err := r.backend.Put(ctx, storage.KindSessions, rec); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", session.ID, err)
	}

	r.logger.Info("session saved",
		slog.String("id", session.ID),
		slog.String("type", string(session.Type)),
	)
	return session, nil
}

// Remove deletes a session and clears the sessionId back-reference on
// every technique that pointed at it.
func (r *SessionRepo) Remove(ctx context.Context, id string) error {
	if err := r.backend.Delete(ctx, storage.KindSessions, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("removing session %s: %w", id, err)
	}

	cleaned, err := r.clearFromTechniques(ctx, id)
	if err != nil {
		return fmt.Errorf("cleaning technique references to %s: %w", id, err)
	}

	r.logger.Info("session removed",
		slog.String("id", id),
		slog.Int("techniques_cleaned", cleaned),
	)
	return nil
}

func (r *SessionRepo) clearFromTechniques(ctx context.Context, sessionID string) (int, error) {
	records, err := r.backend.List(ctx, storage.KindTechniques)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, rec := range records {
		var t model.Technique
		if err := decodeStrict(rec.Data, &t); err != nil {
			return cleaned, fmt.Errorf("decoding technique %s: %w", rec.ID, err)
		}
		if t.SessionID != sessionID {
			continue
		}
		t.SessionID = ""

		updated, err := encodeRecord(t.ID, &t)
		if err != nil {
			return cleaned, err
		}
		if err := r.backend.Put(ctx, storage.KindTechniques, updated); err != nil {
			return cleaned, err
		}
		cleaned++
	}
	return cleaned, nil
}
