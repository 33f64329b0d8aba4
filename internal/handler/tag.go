package handler

import (
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// TagHandler serves the tag registry from the read-through cache.
type TagHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(s *store.Store, logger *slog.Logger) *TagHandler {
	return &TagHandler{store: s, logger: logger}
}

// HandleList returns every known tag, sorted by name.
//
// GET /api/v1/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
