package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/coingecko"
)

// PriceSource is the aggregator the price endpoints read from.
type PriceSource interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]coingecko.SimplePrice, error)
	MarketChart(ctx context.Context, id, days string) ([]domain.PricePoint, error)
}

// PriceHandler serves spot prices and price history for catalog assets.
type PriceHandler struct {
	prices  PriceSource
	catalog AssetLister
	logger  *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(prices PriceSource, catalog AssetLister, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{prices: prices, catalog: catalog, logger: logger}
}

// GetPrices returns spot prices keyed by mint for the requested mints. Assets
// without a price are omitted.
// GET /api/prices?ids=<mint>,<mint>
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	mints := splitList(r.URL.Query().Get("ids"))
	if len(mints) == 0 {
		writeError(w, http.StatusBadRequest, "Missing ids parameter")
		return
	}

	var (
		assets []domain.Asset
		ids    []string
	)
	for _, a := range h.catalog.Assets() {
		if a.Mint == "" || a.PriceID == "" || !slices.Contains(mints, a.Mint) {
			continue
		}
		assets = append(assets, a)
		ids = append(ids, a.PriceID)
	}

	data := make(map[string]domain.SpotPrice, len(assets))
	if len(ids) > 0 {
		prices, err := h.prices.SimplePrices(r.Context(), ids)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "handler: spot prices failed", slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, "Failed to fetch price data")
			return
		}
		for _, a := range assets {
			p, ok := prices[a.PriceID]
			if !ok || p.USD <= 0 {
				continue
			}
			data[a.Mint] = domain.SpotPrice{ID: a.Mint, Symbol: a.Symbol, Price: p.USD, Change24h: p.Change24h}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// GetHistory returns a USD price series for a CoinGecko id.
// GET /api/prices/history?id=solana&days=1
func (h *PriceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}
	points, err := h.prices.MarketChart(r.Context(), id, r.URL.Query().Get("days"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: price history failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "Failed to fetch historical data")
		return
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": points})
}
