package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/model"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// ProfileHandler serves the singleton user profile.
type ProfileHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(s *store.Store, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: s, logger: logger}
}

// HandleGet returns the profile, loading it on first access.
//
// GET /api/v1/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.store.Profile.Profile()
	if !ok {
		if err := h.store.Profile.Refresh(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		profile, _ = h.store.Profile.Profile()
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandlePut overwrites the profile.
//
// PUT /api/v1/profile
func (h *ProfileHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var profile model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := <-h.store.Profile.Save(r.Context(), profile); err != nil {
		writeError(w, err)
		return
	}
	saved, _ := h.store.Profile.Profile()
	writeJSON(w, http.StatusOK, saved)
}
