package handler

import (
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/analytics"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// AnalyticsHandler computes dashboard aggregates from store snapshots.
type AnalyticsHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(s *store.Store, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{store: s, logger: logger}
}

// HandleSummary returns the aggregate view of the training log.
//
// GET /api/v1/analytics
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	summary := analytics.Summarize(h.store.Techniques.Snapshot(), h.store.Sessions.Snapshot(), tags)
	writeJSON(w, http.StatusOK, summary)
}
