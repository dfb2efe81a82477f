package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000.0, cfg.Scan.TradeSize)
	assert.Equal(t, 0.1, cfg.Scan.MinProfitPercent)
	assert.Equal(t, 30*time.Second, cfg.Scan.Interval.Duration)
	assert.Equal(t, "high", cfg.Notify.MinConfidence)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Scan.TradeSize = 0
	cfg.Venues.Enabled = []string{"jupiter", "serum"}
	cfg.Notify.MinConfidence = "extreme"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown mode "trade"`)
	assert.Contains(t, msg, "trade_size must be > 0")
	assert.Contains(t, msg, `unknown venue "serum"`)
	assert.Contains(t, msg, "notify:")
}

func TestValidateServerModeRequiresServer(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "server"
	cfg.Server.Enabled = false
	require.ErrorContains(t, cfg.Validate(), "must be enabled in server mode")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "scan"

[scan]
trade_size = 500
interval = "10s"

[[catalog.assets]]
symbol = "SOL"
name = "Solana"
mint = "So11111111111111111111111111111111111111112"
coingecko_id = "solana"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("SOLARB_VENUES_MAX_RETRIES", "4")
	t.Setenv("SOLARB_VENUES_ENABLED", "jupiter, raydium")
	t.Setenv("SOLARB_SCAN_ASSET_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, 500.0, cfg.Scan.TradeSize)
	assert.Equal(t, 10*time.Second, cfg.Scan.Interval.Duration)
	assert.Equal(t, 3*time.Second, cfg.Scan.AssetTimeout.Duration)
	assert.Equal(t, 4, cfg.Venues.MaxRetries)
	assert.Equal(t, []string{"jupiter", "raydium"}, cfg.Venues.Enabled)
	require.Len(t, cfg.Catalog.Assets, 1)
	assert.Equal(t, "solana", cfg.Catalog.Assets[0].PriceID)
	// untouched sections keep their defaults
	assert.Equal(t, 0.50, cfg.Scan.GasOverhead)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "secret"
	cfg.Venues.CoinGeckoAPIKey = "cg"
	cfg.Redis.Password = ""

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "***", out.Venues.CoinGeckoAPIKey)
	assert.Empty(t, out.Redis.Password)
	assert.Equal(t, "secret", cfg.Server.APIKey)

	out.Server.CORSOrigins[0] = "changed"
	assert.Equal(t, "http://localhost:3000", cfg.Server.CORSOrigins[0])
}
