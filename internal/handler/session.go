package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// SessionHandler serves the training session collection through the
// optimistic store.
type SessionHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(s *store.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: s, logger: logger}
}

// HandleList returns all sessions, most recent first.
//
// GET /api/v1/sessions
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Sessions.Snapshot())
}

// HandleGetByID returns one session.
//
// GET /api/v1/sessions/{id}
func (h *SessionHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := h.store.Sessions.Get(id)
	if !ok {
		writeError(w, apperror.NotFound("session", id))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleCreate logs a new training session.
//
// POST /api/v1/sessions
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var session model.TrainingSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, done := h.store.Sessions.Create(r.Context(), session)
	if err := <-done; err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate replaces an existing session.
//
// PUT /api/v1/sessions/{id}
func (h *SessionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var session model.TrainingSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	session.ID = r.PathValue("id")

	updated, done := h.store.Sessions.Update(r.Context(), session)
	if err := <-done; err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a session.
//
// DELETE /api/v1/sessions/{id}
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := <-h.store.Sessions.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
