package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// ScanStatus exposes the last completed scan and worker pool counters.
type ScanStatus interface {
	Latest() (domain.ScanReport, bool)
	PoolStats() map[string]any
}

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler reports the mode, last scan summary and dependency health.
type StatusHandler struct {
	mode      string
	venues    []string
	scans     ScanStatus
	deps      map[string]Pinger
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler. deps may be empty.
func NewStatusHandler(mode string, venues []string, scans ScanStatus, deps map[string]Pinger) *StatusHandler {
	return &StatusHandler{
		mode:      mode,
		venues:    venues,
		scans:     scans,
		deps:      deps,
		startedAt: time.Now().UTC(),
	}
}

type lastScanSummary struct {
	ID                string  `json:"id"`
	TotalScanned      int     `json:"totalScanned"`
	SuccessfulScans   int     `json:"successfulScans"`
	FailedScans       int     `json:"failedScans"`
	Opportunities     int     `json:"opportunities"`
	BestProfitPercent float64 `json:"bestProfitPercent"`
	ScanDuration      int64   `json:"scanDuration"`
	Timestamp         int64   `json:"timestamp"`
}

// GetStatus reports runtime state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.mode,
		"venues":         h.venues,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"pool":           h.scans.PoolStats(),
		"last_scan":      nil,
	}
	if report, ok := h.scans.Latest(); ok {
		summary := lastScanSummary{
			ID:              report.ID,
			TotalScanned:    report.TotalAssets,
			SuccessfulScans: report.SuccessfulScans,
			FailedScans:     report.FailedScans,
			Opportunities:   len(report.Opportunities),
			ScanDuration:    report.Duration.Milliseconds(),
			Timestamp:       report.CompletedAt.UnixMilli(),
		}
		if len(report.Opportunities) > 0 {
			summary.BestProfitPercent = report.Opportunities[0].EstimatedProfitPercent
		}
		body["last_scan"] = summary
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	deps := make(map[string]string, len(h.deps))
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}
	body["dependencies"] = deps

	writeJSON(w, http.StatusOK, body)
}
