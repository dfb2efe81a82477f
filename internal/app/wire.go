package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/solarb/internal/arbitrage"
	s3blob "github.com/alanyoungcy/solarb/internal/blob/s3"
	"github.com/alanyoungcy/solarb/internal/cache/memory"
	"github.com/alanyoungcy/solarb/internal/cache/redis"
	"github.com/alanyoungcy/solarb/internal/catalog"
	"github.com/alanyoungcy/solarb/internal/config"
	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/metrics"
	"github.com/alanyoungcy/solarb/internal/notify"
	"github.com/alanyoungcy/solarb/internal/pipeline"
	"github.com/alanyoungcy/solarb/internal/platform/coingecko"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
	"github.com/alanyoungcy/solarb/internal/platform/jupiter"
	"github.com/alanyoungcy/solarb/internal/platform/orca"
	"github.com/alanyoungcy/solarb/internal/platform/raydium"
	"github.com/alanyoungcy/solarb/internal/platform/solana"
	"github.com/alanyoungcy/solarb/internal/server/handler"
	"github.com/alanyoungcy/solarb/internal/service"
	"github.com/alanyoungcy/solarb/internal/store/postgres"
)

// Dependencies bundles everything the modes run on. Optional infrastructure
// is nil when its config section is disabled.
type Dependencies struct {
	// Infrastructure
	QuoteCache  domain.QuoteCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	AuditStore  domain.AuditStore
	BlobReader  domain.BlobReader
	BlobWriter  domain.BlobWriter
	Pingers     map[string]handler.Pinger

	// Domain
	Metrics   *metrics.Metrics
	Catalog   *catalog.Catalog
	CoinGecko *coingecko.Client
	Solana    *solana.Client
	Network   *pipeline.NetworkSampler
	Quotes    *service.QuoteService
	Scans     *service.ScanService
	Notifier  *notify.Notifier
}

// Wire builds the dependency graph from cfg and returns it with a cleanup
// function that releases resources in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{
		Metrics: metrics.New(),
		Pingers: map[string]handler.Pinger{},
	}

	// --- PostgreSQL (scan audit log) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)
		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}
		deps.AuditStore = postgres.NewAuditStore(pgClient.Pool())
		deps.Pingers["postgres"] = pgClient
	}

	// --- Redis (quote cache, lock, rate limit, pub/sub) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.QuoteCache = redis.NewQuoteCache(redisClient, cfg.Redis.QuoteTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Pingers["redis"] = redisClient
	} else {
		deps.SignalBus = memory.NewSignalBus()
	}

	// --- S3 (catalog object) ---
	if cfg.Catalog.S3Key != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Pingers["s3"] = s3Client
	}

	cat, err := catalog.Load(ctx, cfg.Catalog, deps.BlobReader, logger)
	if err != nil {
		return fail(fmt.Errorf("wire: catalog: %w", err))
	}
	deps.Catalog = cat

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Venues and services ---
	httpOpts := httpclient.Options{
		Timeout:           cfg.Scan.VenueTimeout.Duration,
		RequestsPerSecond: cfg.Venues.RequestsPerSecond,
		MaxRetries:        cfg.Venues.MaxRetries,
	}
	deps.CoinGecko = coingecko.NewClient(cfg.Venues.CoinGeckoURL, cfg.Venues.CoinGeckoAPIKey, httpOpts)
	venues := buildVenues(cfg.Venues, httpOpts, deps.CoinGecko)

	deps.Solana = solana.NewClient(cfg.Solana.RPCURL)
	deps.Network = pipeline.NewNetworkSampler(deps.Solana, deps.SignalBus, logger)
	deps.Quotes = service.NewQuoteService(venues, deps.QuoteCache, deps.Metrics, cfg.Scan.VenueTimeout.Duration, logger)
	deps.Scans = service.NewScanService(
		deps.Catalog,
		deps.Quotes,
		deps.SignalBus,
		deps.AuditStore,
		deps.Metrics,
		notify.NewOpportunityAlerter(deps.Notifier, cfg.Notify.MinConfidence),
		scanConfig(cfg.Scan),
		logger,
	)
	closers = append(closers, deps.Scans.Close)

	return deps, cleanup, nil
}

// buildVenues instantiates the enabled venues in configured order. The
// CoinGecko client is shared with the price endpoints.
func buildVenues(cfg config.VenuesConfig, opts httpclient.Options, cg *coingecko.Client) []service.Venue {
	venues := make([]service.Venue, 0, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		switch strings.ToLower(name) {
		case "jupiter":
			venues = append(venues, jupiter.NewClient(cfg.JupiterURL, opts))
		case "coingecko":
			venues = append(venues, cg)
		case "raydium":
			venues = append(venues, raydium.NewClient(cfg.RaydiumURL, opts))
		case "orca":
			venues = append(venues, orca.NewClient(cfg.OrcaURL, opts))
		}
	}
	return venues
}

func scanConfig(cfg config.ScanConfig) service.ScanConfig {
	return service.ScanConfig{
		Params: arbitrage.Params{
			TradeSize:           cfg.TradeSize,
			GasOverhead:         cfg.GasOverhead,
			MinProfitPercent:    cfg.MinProfitPercent,
			LiquidityMultiplier: cfg.LiquidityMultiplier,
		},
		AssetTimeout: cfg.AssetTimeout.Duration,
	}
}
