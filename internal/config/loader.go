package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SOLARB_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SOLARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Scan ──
	setFloat64(&cfg.Scan.TradeSize, "SOLARB_SCAN_TRADE_SIZE")
	setFloat64(&cfg.Scan.MinProfitPercent, "SOLARB_SCAN_MIN_PROFIT_PERCENT")
	setFloat64(&cfg.Scan.GasOverhead, "SOLARB_SCAN_GAS_OVERHEAD")
	setFloat64(&cfg.Scan.LiquidityMultiplier, "SOLARB_SCAN_LIQUIDITY_MULTIPLIER")
	setDuration(&cfg.Scan.Interval, "SOLARB_SCAN_INTERVAL")
	setDuration(&cfg.Scan.AssetTimeout, "SOLARB_SCAN_ASSET_TIMEOUT")
	setDuration(&cfg.Scan.VenueTimeout, "SOLARB_SCAN_VENUE_TIMEOUT")
	setDuration(&cfg.Scan.LockTTL, "SOLARB_SCAN_LOCK_TTL")

	// ── Venues ──
	setStringSlice(&cfg.Venues.Enabled, "SOLARB_VENUES_ENABLED")
	setStr(&cfg.Venues.JupiterURL, "SOLARB_VENUES_JUPITER_URL")
	setStr(&cfg.Venues.CoinGeckoURL, "SOLARB_VENUES_COINGECKO_URL")
	setStr(&cfg.Venues.CoinGeckoAPIKey, "SOLARB_VENUES_COINGECKO_API_KEY")
	setStr(&cfg.Venues.CoinGeckoAPIKey, "COINGECKO_API_KEY") // compatibility alias
	setStr(&cfg.Venues.RaydiumURL, "SOLARB_VENUES_RAYDIUM_URL")
	setStr(&cfg.Venues.OrcaURL, "SOLARB_VENUES_ORCA_URL")
	setFloat64(&cfg.Venues.RequestsPerSecond, "SOLARB_VENUES_REQUESTS_PER_SECOND")
	setInt(&cfg.Venues.MaxRetries, "SOLARB_VENUES_MAX_RETRIES")

	// ── Solana ──
	setStr(&cfg.Solana.RPCURL, "SOLARB_SOLANA_RPC_URL")
	setDuration(&cfg.Solana.SampleInterval, "SOLARB_SOLANA_SAMPLE_INTERVAL")
	setStr(&cfg.Solana.RPCURL, "HELIUS_RPC_URL") // compatibility alias

	// ── Catalog ──
	setStr(&cfg.Catalog.S3Key, "SOLARB_CATALOG_S3_KEY")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SOLARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SOLARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SOLARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SOLARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SOLARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SOLARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SOLARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SOLARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SOLARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SOLARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SOLARB_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SOLARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SOLARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SOLARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SOLARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SOLARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SOLARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SOLARB_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.QuoteTTL, "SOLARB_REDIS_QUOTE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SOLARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SOLARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "SOLARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SOLARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SOLARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SOLARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SOLARB_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SOLARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SOLARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SOLARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SOLARB_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SOLARB_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "SOLARB_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SOLARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SOLARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SOLARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SOLARB_NOTIFY_EVENTS")
	setStr(&cfg.Notify.MinConfidence, "SOLARB_NOTIFY_MIN_CONFIDENCE")

	// ── Top-level ──
	setStr(&cfg.Mode, "SOLARB_MODE")
	setStr(&cfg.LogLevel, "SOLARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
