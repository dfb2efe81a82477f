package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// ScansHandler lists the scan audit log. Entries carry counters only.
type ScansHandler struct {
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewScansHandler creates a ScansHandler. audit may be nil, in which case the
// endpoint answers 501.
func NewScansHandler(audit domain.AuditStore, logger *slog.Logger) *ScansHandler {
	return &ScansHandler{audit: audit, logger: logger}
}

type auditEntryResponse struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt int64          `json:"createdAt"`
}

// ListScans returns recent audit entries.
// GET /api/scans?limit=50&offset=0
func (h *ScansHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotImplemented, "scan audit log not configured")
		return
	}
	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list scans failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryResponse{ID: e.ID, Event: e.Event, Detail: e.Detail, CreatedAt: e.CreatedAt.UnixMilli()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scans": out})
}
