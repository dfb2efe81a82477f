// Package raydium implements a quote venue that prices an asset from the
// reserves of its deepest Raydium pool against USDC.
package raydium

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
)

const (
	// VenueName is the label attached to Raydium quotes.
	VenueName = "Raydium"

	// AMMProgramID is the Raydium liquidity pool v4 program.
	AMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

	defaultFeeRate = 0.0025
)

// Client queries the Raydium v3 API.
type Client struct {
	http      *httpclient.Client
	quoteMint string
}

// NewClient creates a Raydium client for baseURL (e.g. https://api-v3.raydium.io).
func NewClient(baseURL string, opts httpclient.Options) *Client {
	return &Client{http: httpclient.New(baseURL, opts), quoteMint: domain.USDCMint}
}

type mintInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Pool is the subset of pool info used for pricing. Amounts are already
// scaled by mint decimals.
type Pool struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	MintA       mintInfo `json:"mintA"`
	MintB       mintInfo `json:"mintB"`
	MintAmountA float64  `json:"mintAmountA"`
	MintAmountB float64  `json:"mintAmountB"`
	FeeRate     float64  `json:"feeRate"`
	TVL         float64  `json:"tvl"`
}

type poolsResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		Count int    `json:"count"`
		Data  []Pool `json:"data"`
	} `json:"data"`
}

// Name implements the venue contract.
func (c *Client) Name() string { return VenueName }

// Quote prices asset from the most liquid pool pairing it with USDC.
func (c *Client) Quote(ctx context.Context, asset domain.Asset) (domain.Quote, error) {
	if asset.Mint == "" {
		return domain.Quote{}, fmt.Errorf("raydium: quote %s: %w", asset.Symbol, domain.ErrMissingMint)
	}

	pool, err := c.DeepestPool(ctx, asset.Mint, c.quoteMint)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("raydium: quote %s: %w", asset.Symbol, err)
	}

	baseReserve, quoteReserve := pool.MintAmountA, pool.MintAmountB
	if pool.MintA.Address == c.quoteMint {
		baseReserve, quoteReserve = pool.MintAmountB, pool.MintAmountA
	}
	if baseReserve <= 0 {
		return domain.Quote{}, fmt.Errorf("raydium: quote %s: empty base reserve in pool %s", asset.Symbol, pool.ID)
	}

	fee := pool.FeeRate
	if fee <= 0 {
		fee = defaultFeeRate
	}

	return domain.Quote{
		Venue:      VenueName,
		Price:      quoteReserve / baseReserve,
		Liquidity:  quoteReserve * 2,
		Fee:        fee,
		ObservedAt: time.Now().UTC(),
		PoolRef:    pool.ID,
	}, nil
}

// DeepestPool returns the highest-liquidity pool for the mint pair.
func (c *Client) DeepestPool(ctx context.Context, mint1, mint2 string) (Pool, error) {
	params := url.Values{}
	params.Set("mint1", mint1)
	params.Set("mint2", mint2)
	params.Set("poolType", "all")
	params.Set("poolSortField", "liquidity")
	params.Set("sortType", "desc")
	params.Set("pageSize", "1")
	params.Set("page", "1")

	var resp poolsResponse
	if err := c.http.GetJSON(ctx, "/pools/info/mint", params, &resp); err != nil {
		return Pool{}, err
	}
	if !resp.Success {
		msg := resp.Msg
		if msg == "" {
			msg = "request rejected"
		}
		return Pool{}, errors.New(msg)
	}
	if len(resp.Data.Data) == 0 {
		return Pool{}, fmt.Errorf("pool for %s/%s: %w", mint1, mint2, domain.ErrNotFound)
	}
	return resp.Data.Data[0], nil
}
