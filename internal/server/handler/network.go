package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// recentTxLimit is how many Raydium program signatures are returned.
const recentTxLimit = 10

// NetworkSnapshots serves sampled network state.
type NetworkSnapshots interface {
	Latest(maxAge time.Duration) (domain.NetworkSnapshot, bool)
	Sample(ctx context.Context) (domain.NetworkSnapshot, error)
}

// SignatureLister lists recent signatures touching a program.
type SignatureLister interface {
	RecentSignatures(ctx context.Context, programID string, limit int) ([]domain.SignatureInfo, error)
}

// NetworkHandler serves Solana cluster status and recent activity.
type NetworkHandler struct {
	snapshots  NetworkSnapshots
	signatures SignatureLister
	programID  string
	maxAge     time.Duration
	logger     *slog.Logger
}

// NewNetworkHandler creates a NetworkHandler. Snapshots younger than maxAge
// are served from the sampler; older ones trigger a live sample.
func NewNetworkHandler(snapshots NetworkSnapshots, signatures SignatureLister, programID string, maxAge time.Duration, logger *slog.Logger) *NetworkHandler {
	return &NetworkHandler{
		snapshots:  snapshots,
		signatures: signatures,
		programID:  programID,
		maxAge:     maxAge,
		logger:     logger,
	}
}

// GetNetwork returns slot, block height and the latest performance sample.
// GET /api/network
func (h *NetworkHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshots.Latest(h.maxAge); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	snap, err := h.snapshots.Sample(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: network sample failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to fetch network status")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type transactionResponse struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	Timestamp int64  `json:"timestamp"`
	Success   bool   `json:"success"`
}

// ListTransactions returns recent signatures for the Raydium AMM program.
// GET /api/network/transactions
func (h *NetworkHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	sigs, err := h.signatures.RecentSignatures(r.Context(), h.programID, recentTxLimit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: recent signatures failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to fetch transactions")
		return
	}
	now := time.Now()
	out := make([]transactionResponse, len(sigs))
	for i, s := range sigs {
		ts := s.BlockTime
		if ts.IsZero() {
			ts = now
		}
		out[i] = transactionResponse{
			Signature: s.Signature,
			Slot:      s.Slot,
			Timestamp: ts.UnixMilli(),
			Success:   s.Success,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"timestamp":    now.UnixMilli(),
	})
}
