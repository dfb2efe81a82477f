package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/pipeline"
	"github.com/alanyoungcy/solarb/internal/platform/raydium"
	"github.com/alanyoungcy/solarb/internal/server"
	"github.com/alanyoungcy/solarb/internal/server/handler"
	"github.com/alanyoungcy/solarb/internal/server/ws"
)

const shutdownTimeout = 5 * time.Second

// ServerMode serves the HTTP API and WebSocket hub. Scans run on demand
// inside requests; the network sampler keeps cluster status warm.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)

	if interval := a.cfg.Solana.SampleInterval.Duration; interval > 0 {
		g.Go(func() error {
			err := deps.Network.RunLoop(ctx, interval)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("network sampler: %w", err)
		})
	}

	return g.Wait()
}

// ScanMode runs the continuous scanner and network sampler without an API.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")
	return a.newOrchestrator(deps).Run(ctx)
}

// FullMode runs the background pipeline and, unless disabled, the API in one
// process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	orch := a.newOrchestrator(deps)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	return g.Wait()
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	scanner := pipeline.NewContinuousScanner(deps.Scans, deps.LockManager, a.cfg.Scan.LockTTL.Duration, a.logger)
	return pipeline.NewOrchestrator(
		scanner,
		deps.Network,
		a.cfg.Scan.Interval.Duration,
		a.cfg.Solana.SampleInterval.Duration,
		a.logReport,
		a.logger,
	)
}

func (a *App) logReport(report domain.ScanReport, err error) {
	if err != nil {
		a.logger.Error("continuous scan failed", slog.String("error", err.Error()))
		return
	}
	a.logger.Info("continuous scan complete",
		slog.String("scan_id", report.ID),
		slog.Int("opportunities", len(report.Opportunities)),
		slog.Int("successful", report.SuccessfulScans),
		slog.Int("failed", report.FailedScans),
		slog.Duration("duration", report.Duration),
	)
}

// startHTTPServer builds the API server and adds it, its WebSocket hub and a
// shutdown watcher to g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, deps.Scans, deps.Metrics, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(a.serverConfig(), a.buildHandlers(deps), hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", slog.Int("port", a.cfg.Server.Port))
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func (a *App) serverConfig() server.Config {
	return server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}
}

// buildHandlers constructs every route handler. Snapshots older than two
// sample intervals are considered stale by the network endpoint.
func (a *App) buildHandlers(deps *Dependencies) server.Handlers {
	maxAge := 2 * a.cfg.Solana.SampleInterval.Duration
	h := server.Handlers{
		Health:        handler.NewHealthHandler(),
		Status:        handler.NewStatusHandler(a.cfg.Mode, deps.Quotes.Venues(), deps.Scans, deps.Pingers),
		Opportunities: handler.NewOpportunityHandler(deps.Scans, deps.Catalog, a.logger),
		Network:       handler.NewNetworkHandler(deps.Network, deps.Solana, raydium.AMMProgramID, maxAge, a.logger),
		Prices:        handler.NewPriceHandler(deps.CoinGecko, deps.Catalog, a.logger),
		Catalog:       handler.NewCatalogHandler(deps.Catalog),
		Metrics:       deps.Metrics.Handler(),
	}
	if deps.AuditStore != nil {
		h.Scans = handler.NewScansHandler(deps.AuditStore, a.logger)
	}
	return h
}
