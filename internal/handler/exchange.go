package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dave11k/flow-roll-app-sub001/internal/apperror"
	"github.com/dave11k/flow-roll-app-sub001/internal/exchange"
	"github.com/dave11k/flow-roll-app-sub001/internal/store"
)

// ExchangeHandler serves full-dataset export and import.
type ExchangeHandler struct {
	exchanger *exchange.Exchanger
	store     *store.Store
	logger    *slog.Logger
}

// NewExchangeHandler creates an ExchangeHandler.
func NewExchangeHandler(exchanger *exchange.Exchanger, s *store.Store, logger *slog.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchanger: exchanger, store: s, logger: logger}
}

// HandleExport returns the full interchange document.
//
// GET /api/v1/export
func (h *ExchangeHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.exchanger.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleImport restores an interchange document and reports the outcome.
// Import writes through the repositories, behind the store's back, so the
// in-memory collections are reloaded before the summary is returned.
//
// POST /api/v1/import
func (h *ExchangeHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var doc exchange.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid interchange document"))
		return
	}

	summary, err := h.exchanger.Import(r.Context(), &doc)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.Init(r.Context()); err != nil {
		h.logger.Error("reloading store after import failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, summary)
}
