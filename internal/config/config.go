// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SOLARB_* environment variables.
type Config struct {
	Scan     ScanConfig     `toml:"scan"`
	Venues   VenuesConfig   `toml:"venues"`
	Solana   SolanaConfig   `toml:"solana"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ScanConfig holds calculator defaults and orchestration limits.
type ScanConfig struct {
	TradeSize           float64  `toml:"trade_size"`
	MinProfitPercent    float64  `toml:"min_profit_percent"`
	GasOverhead         float64  `toml:"gas_overhead"`
	LiquidityMultiplier float64  `toml:"liquidity_multiplier"`
	Interval            duration `toml:"interval"`
	AssetTimeout        duration `toml:"asset_timeout"`
	VenueTimeout        duration `toml:"venue_timeout"`
	// LockTTL bounds how long one replica holds the continuous-scan lock.
	LockTTL duration `toml:"lock_ttl"`
}

// VenuesConfig selects the quote venues and their endpoints.
type VenuesConfig struct {
	Enabled           []string `toml:"enabled"`
	JupiterURL        string   `toml:"jupiter_url"`
	CoinGeckoURL      string   `toml:"coingecko_url"`
	CoinGeckoAPIKey   string   `toml:"coingecko_api_key"`
	RaydiumURL        string   `toml:"raydium_url"`
	OrcaURL           string   `toml:"orca_url"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MaxRetries        int      `toml:"max_retries"`
}

// SolanaConfig holds the cluster RPC endpoint and how often network status
// is sampled. A zero SampleInterval disables background sampling.
type SolanaConfig struct {
	RPCURL         string   `toml:"rpc_url"`
	SampleInterval duration `toml:"sample_interval"`
}

// CatalogConfig describes where the tracked asset list comes from. When S3Key
// is set the catalog is read from object storage; otherwise Assets is used,
// falling back to the built-in list.
type CatalogConfig struct {
	S3Key  string         `toml:"s3_key"`
	Assets []domain.Asset `toml:"assets"`
}

// PostgresConfig holds PostgreSQL connection parameters for the audit log.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	QuoteTTL   duration `toml:"quote_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit is the number of requests a client IP may make per
	// RateWindow. Zero disables rate limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	MinConfidence     string   `toml:"min_confidence"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scan: ScanConfig{
			TradeSize:           1000,
			MinProfitPercent:    0.1,
			GasOverhead:         0.50,
			LiquidityMultiplier: 2,
			Interval:            duration{30 * time.Second},
			AssetTimeout:        duration{15 * time.Second},
			VenueTimeout:        duration{8 * time.Second},
			LockTTL:             duration{25 * time.Second},
		},
		Venues: VenuesConfig{
			Enabled:           []string{"jupiter", "coingecko", "raydium", "orca"},
			JupiterURL:        "https://api.jup.ag",
			CoinGeckoURL:      "https://api.coingecko.com/api/v3",
			RaydiumURL:        "https://api-v3.raydium.io",
			OrcaURL:           "https://api.mainnet.orca.so",
			RequestsPerSecond: 5,
			MaxRetries:        2,
		},
		Solana: SolanaConfig{
			RPCURL:         "https://api.mainnet-beta.solana.com",
			SampleInterval: duration{15 * time.Second},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  5,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			QuoteTTL:   duration{2 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "solarb",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events:        []string{"arb_detected", "error"},
			MinConfidence: "high",
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"scan":   true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// knownVenues enumerates the quote venues the scanner can talk to.
var knownVenues = map[string]bool{
	"jupiter":   true,
	"coingecko": true,
	"raydium":   true,
	"orca":      true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scan
	if c.Scan.TradeSize <= 0 {
		errs = append(errs, "scan: trade_size must be > 0")
	}
	if c.Scan.GasOverhead < 0 {
		errs = append(errs, "scan: gas_overhead must be >= 0")
	}
	if c.Scan.LiquidityMultiplier <= 0 {
		errs = append(errs, "scan: liquidity_multiplier must be > 0")
	}
	if c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be positive")
	}
	if c.Scan.AssetTimeout.Duration <= 0 {
		errs = append(errs, "scan: asset_timeout must be positive")
	}
	if c.Scan.VenueTimeout.Duration <= 0 {
		errs = append(errs, "scan: venue_timeout must be positive")
	}

	// Venues
	if len(c.Venues.Enabled) == 0 {
		errs = append(errs, "venues: at least one venue must be enabled")
	}
	for _, v := range c.Venues.Enabled {
		if !knownVenues[strings.ToLower(v)] {
			errs = append(errs, fmt.Sprintf("venues: unknown venue %q", v))
		}
	}
	if c.Venues.RequestsPerSecond < 0 {
		errs = append(errs, "venues: requests_per_second must be >= 0")
	}

	// Solana
	if c.Solana.RPCURL == "" {
		errs = append(errs, "solana: rpc_url must not be empty")
	}
	if c.Solana.SampleInterval.Duration < 0 {
		errs = append(errs, "solana: sample_interval must be >= 0")
	}

	// Catalog
	for i, a := range c.Catalog.Assets {
		if a.Symbol == "" {
			errs = append(errs, fmt.Sprintf("catalog: assets[%d] has no symbol", i))
		}
	}
	if c.Catalog.S3Key != "" && c.S3.Bucket == "" {
		errs = append(errs, "catalog: s3_key requires s3.bucket")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}
	if strings.ToLower(c.Mode) == "server" && !c.Server.Enabled {
		errs = append(errs, "server: must be enabled in server mode")
	}

	// Notify
	if c.Notify.MinConfidence != "" {
		if _, err := domain.ParseConfidence(c.Notify.MinConfidence); err != nil {
			errs = append(errs, "notify: "+err.Error())
		}
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
