// Package catalog holds the ordered list of tracked assets. The list is
// loaded once at startup and is read-only afterwards, so it is safe to share
// across goroutines without locking.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/solarb/internal/config"
	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/solana"
)

// Default returns the built-in asset list.
func Default() []domain.Asset {
	return []domain.Asset{
		{Symbol: "SOL", Name: "Solana", PriceID: "solana", Mint: "So11111111111111111111111111111111111111112"},
		{Symbol: "BONK", Name: "Bonk", PriceID: "bonk", Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"},
		{Symbol: "JUP", Name: "Jupiter", PriceID: "jupiter-exchange-solana", Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"},
		{Symbol: "WIF", Name: "dogwifhat", PriceID: "dogwifcoin", Mint: "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"},
		{Symbol: "USDC", Name: "USD Coin", PriceID: "usd-coin", Mint: domain.USDCMint},
	}
}

// Catalog is an immutable, ordered set of assets.
type Catalog struct {
	assets   []domain.Asset
	bySymbol map[string]int
	byMint   map[string]int
}

// New builds a Catalog from assets. Malformed mints are cleared so the asset
// is still listed but counted as failed during scans. Duplicate symbols keep
// the first occurrence.
func New(assets []domain.Asset, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{
		assets:   make([]domain.Asset, 0, len(assets)),
		bySymbol: make(map[string]int, len(assets)),
		byMint:   make(map[string]int, len(assets)),
	}
	for _, a := range assets {
		a.Symbol = strings.TrimSpace(a.Symbol)
		if a.Symbol == "" {
			continue
		}
		key := strings.ToUpper(a.Symbol)
		if _, dup := c.bySymbol[key]; dup {
			logger.Warn("duplicate catalog symbol ignored", slog.String("symbol", a.Symbol))
			continue
		}
		if a.Mint != "" && !solana.ValidMint(a.Mint) {
			logger.Warn("invalid mint cleared",
				slog.String("symbol", a.Symbol),
				slog.String("mint", a.Mint),
			)
			a.Mint = ""
		}

		c.bySymbol[key] = len(c.assets)
		if a.Mint != "" {
			c.byMint[a.Mint] = len(c.assets)
		}
		c.assets = append(c.assets, a)
	}
	return c
}

// Assets returns a copy of the ordered asset list.
func (c *Catalog) Assets() []domain.Asset {
	if c == nil {
		return nil
	}
	out := make([]domain.Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Len returns the number of assets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.assets)
}

// Lookup finds an asset by symbol, case-insensitively.
func (c *Catalog) Lookup(symbol string) (domain.Asset, bool) {
	if c == nil {
		return domain.Asset{}, false
	}
	i, ok := c.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return domain.Asset{}, false
	}
	return c.assets[i], true
}

// ByMint finds an asset by mint address.
func (c *Catalog) ByMint(mint string) (domain.Asset, bool) {
	if c == nil {
		return domain.Asset{}, false
	}
	i, ok := c.byMint[mint]
	if !ok {
		return domain.Asset{}, false
	}
	return c.assets[i], true
}

// PriceIDs returns the non-empty aggregator ids in catalog order.
func (c *Catalog) PriceIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.assets))
	for _, a := range c.assets {
		if a.PriceID != "" {
			ids = append(ids, a.PriceID)
		}
	}
	return ids
}

// Load resolves the catalog from, in order of precedence, an object in blob
// storage, the assets listed in cfg, or the built-in default. A configured
// object that cannot be read is an error.
func Load(ctx context.Context, cfg config.CatalogConfig, blob domain.BlobReader, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case cfg.S3Key != "":
		if blob == nil {
			return nil, fmt.Errorf("catalog: load %s: no blob store configured: %w", cfg.S3Key, domain.ErrCatalogUnavailable)
		}
		assets, err := readBlob(ctx, blob, cfg.S3Key)
		if err != nil {
			return nil, fmt.Errorf("catalog: load %s: %w", cfg.S3Key, err)
		}
		logger.Info("catalog loaded", slog.String("source", "s3"), slog.Int("assets", len(assets)))
		return New(assets, logger), nil

	case len(cfg.Assets) > 0:
		logger.Info("catalog loaded", slog.String("source", "config"), slog.Int("assets", len(cfg.Assets)))
		return New(cfg.Assets, logger), nil

	default:
		assets := Default()
		logger.Info("catalog loaded", slog.String("source", "default"), slog.Int("assets", len(assets)))
		return New(assets, logger), nil
	}
}

// Publish uploads the catalog as a JSON array to key, in the shape Load reads.
func Publish(ctx context.Context, c *Catalog, w domain.BlobWriter, key string) error {
	if key == "" {
		return fmt.Errorf("catalog: publish: empty key")
	}
	data, err := json.MarshalIndent(c.Assets(), "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: publish: encode: %w", err)
	}
	if err := w.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("catalog: publish %s: %w", key, err)
	}
	return nil
}

func readBlob(ctx context.Context, blob domain.BlobReader, key string) ([]domain.Asset, error) {
	rc, err := blob.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var assets []domain.Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(assets) == 0 {
		return nil, domain.ErrCatalogUnavailable
	}
	return assets, nil
}
