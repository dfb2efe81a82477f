package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/cache/memory"
	"github.com/alanyoungcy/solarb/internal/config"
	"github.com/alanyoungcy/solarb/internal/platform/coingecko"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
	"github.com/alanyoungcy/solarb/internal/platform/jupiter"
	"github.com/alanyoungcy/solarb/internal/platform/orca"
	"github.com/alanyoungcy/solarb/internal/platform/raydium"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildVenuesKeepsConfiguredOrder(t *testing.T) {
	cfg := config.Defaults().Venues
	cfg.Enabled = []string{"Orca", "jupiter", "unknown", "coingecko"}
	cg := coingecko.NewClient(cfg.CoinGeckoURL, "", httpclient.Options{})

	venues := buildVenues(cfg, httpclient.Options{Timeout: time.Second}, cg)

	require.Len(t, venues, 3)
	assert.Equal(t, orca.VenueName, venues[0].Name())
	assert.Equal(t, jupiter.VenueName, venues[1].Name())
	assert.Same(t, cg, venues[2])
}

func TestBuildVenuesAll(t *testing.T) {
	cfg := config.Defaults().Venues
	cg := coingecko.NewClient(cfg.CoinGeckoURL, "", httpclient.Options{})

	venues := buildVenues(cfg, httpclient.Options{}, cg)

	names := make([]string, 0, len(venues))
	for _, v := range venues {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{jupiter.VenueName, coingecko.VenueName, raydium.VenueName, orca.VenueName}, names)
}

func TestScanConfigMapsCalculatorParams(t *testing.T) {
	cfg := config.Defaults().Scan
	cfg.TradeSize = 250
	cfg.MinProfitPercent = 0.5
	cfg.GasOverhead = 1.25
	cfg.LiquidityMultiplier = 3

	sc := scanConfig(cfg)

	assert.Equal(t, 250.0, sc.Params.TradeSize)
	assert.Equal(t, 0.5, sc.Params.MinProfitPercent)
	assert.Equal(t, 1.25, sc.Params.GasOverhead)
	assert.Equal(t, 3.0, sc.Params.LiquidityMultiplier)
	assert.Equal(t, 15*time.Second, sc.AssetTimeout)
}

func TestWireWithoutInfrastructure(t *testing.T) {
	cfg := config.Defaults()

	deps, cleanup, err := Wire(context.Background(), &cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.QuoteCache)
	assert.Nil(t, deps.RateLimiter)
	assert.Nil(t, deps.LockManager)
	assert.Nil(t, deps.AuditStore)
	assert.Nil(t, deps.BlobReader)
	assert.IsType(t, &memory.SignalBus{}, deps.SignalBus)
	assert.Empty(t, deps.Pingers)
	assert.Positive(t, deps.Catalog.Len())
	assert.Len(t, deps.Quotes.Venues(), 4)
	assert.False(t, deps.Notifier.Enabled())
}

func TestBuildHandlersSkipsScansWithoutAuditStore(t *testing.T) {
	cfg := config.Defaults()
	deps, cleanup, err := Wire(context.Background(), &cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	a := New(&cfg, testLogger())
	h := a.buildHandlers(deps)

	assert.NotNil(t, h.Health)
	assert.NotNil(t, h.Opportunities)
	assert.NotNil(t, h.Network)
	assert.NotNil(t, h.Metrics)
	assert.Nil(t, h.Scans)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "trade"

	a := New(&cfg, testLogger())
	defer a.Close()

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mode")
}

type captureWriter struct {
	key         string
	contentType string
	body        []byte
}

func (c *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	c.key, c.contentType, c.body = path, contentType, b
	return nil
}

func TestPublishCatalogIgnoresRemoteSource(t *testing.T) {
	cfg := config.Defaults().Catalog
	cfg.S3Key = "catalog/assets.json"
	w := &captureWriter{}

	require.NoError(t, publishCatalog(context.Background(), cfg, w, "catalog/next.json", testLogger()))

	assert.Equal(t, "catalog/next.json", w.key)
	assert.Equal(t, "application/json", w.contentType)
	assert.Contains(t, string(w.body), `"symbol"`)
}
