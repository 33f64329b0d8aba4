package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// TechniqueHandler serves the technique collection through the optimistic
// store. Mutations apply in memory first; the handler then awaits the
// persistence outcome so the response status reflects it.
type TechniqueHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTechniqueHandler creates a TechniqueHandler.
func NewTechniqueHandler(s *store.Store, logger *slog.Logger) *TechniqueHandler {
	return &TechniqueHandler{store: s, logger: logger}
}

// HandleList returns all techniques, newest first.
//
// GET /api/v1/techniques
func (h *TechniqueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Techniques.Snapshot())
}

// HandleGetByID returns one technique.
//
// GET /api/v1/techniques/{id}
func (h *TechniqueHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	technique, ok := h.store.Techniques.Get(id)
	if !ok {
		writeError(w, apperror.NotFound("technique", id))
		return
	}
	writeJSON(w, http.StatusOK, technique)
}

// HandleCreate saves a new technique.
//
// POST /api/v1/techniques
func (h *TechniqueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var technique model.Technique
	if err := json.NewDecoder(r.Body).Decode(&technique); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, done := h.store.Techniques.Create(r.Context(), technique)
	if err := <-done; err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate replaces an existing technique.
//
// PUT /api/v1/techniques/{id}
func (h *TechniqueHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var technique model.Technique
	if err := json.NewDecoder(r.Body).Decode(&technique); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	technique.ID = r.PathValue("id")

	updated, done := h.store.Techniques.Update(r.Context(), technique)
	if err := <-done; err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a technique.
//
// DELETE /api/v1/techniques/{id}
func (h *TechniqueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := <-h.store.Techniques.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
