// Package orca implements a quote venue backed by the Orca whirlpool list.
package orca

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
)

// VenueName is the label attached to Orca quotes.
const VenueName = "Orca"

// listTTL bounds how long a fetched whirlpool list is reused.
const listTTL = 30 * time.Second

// listFetchTimeout bounds one shared whirlpool list download.
const listFetchTimeout = 20 * time.Second

type token struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Whirlpool is the subset of whirlpool fields used for pricing. Price is
// token B per token A.
type Whirlpool struct {
	Address   string  `json:"address"`
	TokenA    token   `json:"tokenA"`
	TokenB    token   `json:"tokenB"`
	Price     float64 `json:"price"`
	LPFeeRate float64 `json:"lpFeeRate"`
	TVL       float64 `json:"tvl"`
}

// Client fetches and caches the whirlpool list.
type Client struct {
	http      *httpclient.Client
	quoteMint string
	now       func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	pools     []Whirlpool
	fetchedAt time.Time
}

// NewClient creates an Orca client for baseURL (e.g. https://api.mainnet.orca.so).
func NewClient(baseURL string, opts httpclient.Options) *Client {
	return &Client{
		http:      httpclient.New(baseURL, opts),
		quoteMint: domain.USDCMint,
		now:       time.Now,
	}
}

// Name implements the venue contract.
func (c *Client) Name() string { return VenueName }

// Quote prices asset from the highest-TVL whirlpool pairing it with USDC.
func (c *Client) Quote(ctx context.Context, asset domain.Asset) (domain.Quote, error) {
	if asset.Mint == "" {
		return domain.Quote{}, fmt.Errorf("orca: quote %s: %w", asset.Symbol, domain.ErrMissingMint)
	}

	pools, err := c.Whirlpools(ctx)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("orca: quote %s: %w", asset.Symbol, err)
	}

	var (
		best  Whirlpool
		price float64
		found bool
	)
	for _, p := range pools {
		var px float64
		switch {
		case p.TokenA.Mint == asset.Mint && p.TokenB.Mint == c.quoteMint:
			px = p.Price
		case p.TokenB.Mint == asset.Mint && p.TokenA.Mint == c.quoteMint && p.Price > 0:
			px = 1 / p.Price
		default:
			continue
		}
		if !found || p.TVL > best.TVL {
			best, price, found = p, px, true
		}
	}
	if !found {
		return domain.Quote{}, fmt.Errorf("orca: quote %s: whirlpool: %w", asset.Symbol, domain.ErrNotFound)
	}

	return domain.Quote{
		Venue:      VenueName,
		Price:      price,
		Liquidity:  best.TVL,
		Fee:        best.LPFeeRate,
		ObservedAt: c.now().UTC(),
		PoolRef:    best.Address,
	}, nil
}

// Whirlpools returns the cached whirlpool list, refreshing it when stale.
// Concurrent refreshes share one upstream request.
func (c *Client) Whirlpools(ctx context.Context) ([]Whirlpool, error) {
	c.mu.RLock()
	if c.pools != nil && c.now().Sub(c.fetchedAt) < listTTL {
		pools := c.pools
		c.mu.RUnlock()
		return pools, nil
	}
	c.mu.RUnlock()

	// The shared fetch outlives any single caller's ctx.
	ch := c.group.DoChan("list", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listFetchTimeout)
		defer cancel()

		var resp struct {
			Whirlpools []Whirlpool `json:"whirlpools"`
		}
		if err := c.http.GetJSON(fctx, "/v1/whirlpool/list", nil, &resp); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.pools = resp.Whirlpools
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return resp.Whirlpools, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Whirlpool), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
