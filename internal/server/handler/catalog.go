package handler

import (
	"net/http"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// AssetLister returns the tracked assets in catalog order.
type AssetLister interface {
	Assets() []domain.Asset
}

// CatalogHandler serves the asset catalog.
type CatalogHandler struct {
	catalog AssetLister
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog AssetLister) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListAssets returns every catalog entry.
// GET /api/catalog
func (h *CatalogHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.catalog.Assets()
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}
