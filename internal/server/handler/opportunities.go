package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/solarb/internal/arbitrage"
	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/service"
)

// Scanner is the subset of the scan service the opportunity endpoints use.
type Scanner interface {
	Run(ctx context.Context, req service.ScanRequest) (domain.ScanReport, error)
	ScanAsset(ctx context.Context, asset domain.Asset, req service.ScanRequest) (*domain.Opportunity, error)
	DefaultRequest() service.ScanRequest
	Reprice(opp domain.Opportunity, tradeSize float64) (arbitrage.Projection, error)
}

// AssetLookup resolves a catalog entry by symbol.
type AssetLookup interface {
	Lookup(symbol string) (domain.Asset, bool)
}

// OpportunityHandler serves on-demand scans.
type OpportunityHandler struct {
	scanner Scanner
	catalog AssetLookup
	logger  *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(scanner Scanner, catalog AssetLookup, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{scanner: scanner, catalog: catalog, logger: logger}
}

// scanRequest reads tradeSize and minProfit. A missing, unparsable or
// non-positive tradeSize and an unparsable minProfit fall back to defaults.
func (h *OpportunityHandler) scanRequest(r *http.Request) service.ScanRequest {
	req := h.scanner.DefaultRequest()
	if v, ok := floatParam(r, "tradeSize"); ok && v > 0 {
		req.TradeSize = v
	}
	if v, ok := floatParam(r, "minProfit"); ok {
		req.MinProfitPercent = v
	}
	return req
}

// reportBody renders a report with the success flag merged into the top
// level object.
func reportBody(report domain.ScanReport, success bool, errMsg string) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	body := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	body["success"], _ = json.Marshal(success)
	if errMsg != "" {
		body["error"], _ = json.Marshal(errMsg)
	}
	return body, nil
}

// ListOpportunities runs a full scan and returns the ranked report.
// GET /api/opportunities?tradeSize=1000&minProfit=0.1&minConfidence=medium
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	var minConfidence domain.Confidence
	if v := r.URL.Query().Get("minConfidence"); v != "" {
		c, err := domain.ParseConfidence(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		minConfidence = c
	}

	report, err := h.scanner.Run(r.Context(), h.scanRequest(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: scan failed", slog.String("error", err.Error()))
		body, _ := reportBody(domain.EmptyReport(time.Now().UTC()), false, "Failed to scan for arbitrage opportunities")
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	if minConfidence != "" {
		report.Opportunities = arbitrage.FilterByConfidence(report.Opportunities, minConfidence)
	}

	body, err := reportBody(report, true, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// GetOpportunity evaluates one asset.
// GET /api/opportunities/{symbol}?tradeSize=1000&minProfit=0.1
func (h *OpportunityHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	asset, ok := h.catalog.Lookup(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown asset "+strings.ToUpper(symbol))
		return
	}

	opp, err := h.scanner.ScanAsset(r.Context(), asset, h.scanRequest(r))
	switch {
	case errors.Is(err, domain.ErrMissingMint), errors.Is(err, domain.ErrInsufficientQuotes):
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"asset":       asset,
			"opportunity": nil,
			"reason":      errorReason(err),
		})
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "handler: asset scan failed",
			slog.String("symbol", asset.Symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to scan "+asset.Symbol)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"asset":       asset,
		"opportunity": opp,
	})
}

func errorReason(err error) string {
	if errors.Is(err, domain.ErrMissingMint) {
		return "missing_mint"
	}
	return "insufficient_quotes"
}

type repriceRequest struct {
	Opportunity domain.Opportunity `json:"opportunity"`
	TradeSize   float64            `json:"tradeSize"`
}

// Reprice recomputes an opportunity's profit for another trade size without
// contacting any venue.
// POST /api/opportunities/reprice
func (h *OpportunityHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	var req repriceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projection, err := h.scanner.Reprice(req.Opportunity, req.TradeSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projection)
}
