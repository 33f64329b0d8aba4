package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
)

// SystemHandler answers health and protocol compatibility probes.
type SystemHandler struct {
	svc    facade.Service
	logger *slog.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(svc facade.Service, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{svc: svc, logger: logger}
}

// HandleHealth reports backend health. A degraded backend answers 503 so
// upstream clients treat this instance as unavailable.
//
// GET /api/v1/health
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.svc.HealthCheck(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// HandleCompatibility negotiates the protocol version against the caller's
// X-Protocol-Version header. A missing header is treated as current.
//
// GET /api/v1/compatibility
func (h *SystemHandler) HandleCompatibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, negotiate(r.Header.Get("X-Protocol-Version")))
}

func negotiate(clientProtocol string) facade.Compatibility {
	if clientProtocol == "" || clientProtocol == facade.ProtocolVersion {
		return facade.Compatibility{Compatible: true}
	}
	client, ok := parseProtocol(clientProtocol)
	if !ok {
		return facade.Compatibility{Compatible: false}
	}
	server, _ := parseProtocol(facade.ProtocolVersion)
	return facade.Compatibility{
		Compatible:      false,
		UpgradeRequired: client < server,
	}
}

func parseProtocol(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(v, "v"))
	return n, err == nil
}
