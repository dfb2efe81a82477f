// Package jupiter implements a quote venue backed by the Jupiter price API.
package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
)

const (
	// VenueName is the label attached to Jupiter quotes.
	VenueName = "Jupiter"

	// The price API reports no depth, so a fixed placeholder is used.
	placeholderLiquidity = 1_000_000
	estimatedFee         = 0.003
)

// Client fetches aggregated spot prices by mint.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a Jupiter client for baseURL (e.g. https://api.jup.ag).
func NewClient(baseURL string, opts httpclient.Options) *Client {
	return &Client{http: httpclient.New(baseURL, opts)}
}

// priceResponse is the /price/v2 payload. Prices arrive as strings.
type priceResponse struct {
	Data map[string]*struct {
		ID    string          `json:"id"`
		Price decimal.Decimal `json:"price"`
	} `json:"data"`
}

// Name implements the venue contract.
func (c *Client) Name() string { return VenueName }

// Quote returns the current USD price for asset's mint.
func (c *Client) Quote(ctx context.Context, asset domain.Asset) (domain.Quote, error) {
	if asset.Mint == "" {
		return domain.Quote{}, fmt.Errorf("jupiter: quote %s: %w", asset.Symbol, domain.ErrMissingMint)
	}

	prices, err := c.Prices(ctx, []string{asset.Mint})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("jupiter: quote %s: %w", asset.Symbol, err)
	}
	price, ok := prices[asset.Mint]
	if !ok {
		return domain.Quote{}, fmt.Errorf("jupiter: quote %s: %w", asset.Symbol, domain.ErrNotFound)
	}

	return domain.Quote{
		Venue:      VenueName,
		Price:      price,
		Liquidity:  placeholderLiquidity,
		Fee:        estimatedFee,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// Prices returns USD prices keyed by mint. Mints the API does not know are
// absent from the result.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(mints, ","))

	var resp priceResponse
	if err := c.http.GetJSON(ctx, "/price/v2", params, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(resp.Data))
	for mint, entry := range resp.Data {
		if entry == nil {
			continue
		}
		out[mint] = entry.Price.InexactFloat64()
	}
	return out, nil
}
