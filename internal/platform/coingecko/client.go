// Package coingecko wraps the CoinGecko public API. It serves both as a quote
// venue for the scanner and as the source for spot and historical price
// endpoints.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
)

// VenueName is the label attached to CoinGecko quotes.
const VenueName = "CoinGecko"

const (
	placeholderLiquidity = 1_000_000
	estimatedFee         = 0.003
	apiKeyHeader         = "x-cg-demo-api-key"
)

// Client talks to the CoinGecko v3 API.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a CoinGecko client. apiKey is optional.
func NewClient(baseURL, apiKey string, opts httpclient.Options) *Client {
	if apiKey != "" {
		headers := make(map[string]string, len(opts.Headers)+1)
		for k, v := range opts.Headers {
			headers[k] = v
		}
		headers[apiKeyHeader] = apiKey
		opts.Headers = headers
	}
	return &Client{http: httpclient.New(baseURL, opts)}
}

// SimplePrice is one entry of a /simple/price response.
type SimplePrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

// Name implements the venue contract.
func (c *Client) Name() string { return VenueName }

// Quote returns the aggregated USD price for asset, looked up by its price id.
func (c *Client) Quote(ctx context.Context, asset domain.Asset) (domain.Quote, error) {
	if asset.PriceID == "" {
		return domain.Quote{}, fmt.Errorf("coingecko: quote %s: no price id: %w", asset.Symbol, domain.ErrNotFound)
	}

	prices, err := c.SimplePrices(ctx, []string{asset.PriceID})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("coingecko: quote %s: %w", asset.Symbol, err)
	}
	p, ok := prices[asset.PriceID]
	if !ok || p.USD == 0 {
		return domain.Quote{}, fmt.Errorf("coingecko: quote %s: no price data: %w", asset.Symbol, domain.ErrNotFound)
	}

	return domain.Quote{
		Venue:      VenueName,
		Price:      p.USD,
		Liquidity:  placeholderLiquidity,
		Fee:        estimatedFee,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// SimplePrices returns USD prices and 24h change keyed by coin id.
func (c *Client) SimplePrices(ctx context.Context, ids []string) (map[string]SimplePrice, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	var resp map[string]SimplePrice
	if err := c.http.GetJSON(ctx, "/simple/price", params, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: simple price: %w", err)
	}
	return resp, nil
}

// MarketChart returns the USD price series for id over the past days.
func (c *Client) MarketChart(ctx context.Context, id string, days string) ([]domain.PricePoint, error) {
	if days == "" {
		days = "1"
	}
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", days)

	var resp struct {
		Prices [][2]float64 `json:"prices"`
	}
	path := "/coins/" + url.PathEscape(id) + "/market_chart"
	if err := c.http.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: market chart %s: %w", id, err)
	}

	points := make([]domain.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		points = append(points, domain.PricePoint{Timestamp: int64(p[0]), Price: p[1]})
	}
	return points, nil
}
