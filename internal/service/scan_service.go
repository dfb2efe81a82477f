package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"

	"github.com/alanyoungcy/solarb/internal/arbitrage"
	"github.com/alanyoungcy/solarb/internal/domain"
)

// Failure reasons recorded on failed asset results.
const (
	FailMissingMint        = "missing_mint"
	FailInsufficientQuotes = "insufficient_quotes"
	FailTimeout            = "timeout"
	FailCanceled           = "canceled"
	FailQuoteSource        = "quote_source_error"
	FailPanic              = "panic"
)

// AssetCatalog supplies the ordered list of assets to scan.
type AssetCatalog interface {
	Assets() []domain.Asset
}

// ScanObserver receives every completed report.
type ScanObserver interface {
	ObserveScan(r domain.ScanReport)
}

// Alerter is told about the opportunities of each completed scan.
type Alerter interface {
	AlertOpportunities(ctx context.Context, opps []domain.Opportunity) error
}

// ScanRequest carries the caller-tunable parameters of one scan. A
// non-positive TradeSize selects the configured default.
type ScanRequest struct {
	TradeSize        float64
	MinProfitPercent float64
}

// ScanConfig holds orchestration settings.
type ScanConfig struct {
	Params       arbitrage.Params
	AssetTimeout time.Duration
}

// ScanService runs the calculator over every catalog asset concurrently and
// assembles the results into a ScanReport.
type ScanService struct {
	catalog  AssetCatalog
	quotes   QuoteSource
	bus      domain.SignalBus
	audit    domain.AuditStore
	observer ScanObserver
	alerter  Alerter
	cfg      ScanConfig
	logger   *slog.Logger
	now      func() time.Time

	inflight sync.WaitGroup
	stats    poolStats

	mu     sync.RWMutex
	latest *domain.ScanReport
}

// poolStats aggregates the counters of every per-scan worker pool.
type poolStats struct {
	activeScans atomic.Int64
	running     atomic.Int64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
}

// NewScanService creates a ScanService. bus, audit, observer and alerter are
// optional and may be nil.
func NewScanService(
	catalog AssetCatalog,
	quotes QuoteSource,
	bus domain.SignalBus,
	audit domain.AuditStore,
	observer ScanObserver,
	alerter Alerter,
	cfg ScanConfig,
	logger *slog.Logger,
) *ScanService {
	if cfg.AssetTimeout <= 0 {
		cfg.AssetTimeout = 15 * time.Second
	}
	if cfg.Params == (arbitrage.Params{}) {
		cfg.Params = arbitrage.DefaultParams()
	}

	return &ScanService{
		catalog:  catalog,
		quotes:   quotes,
		bus:      bus,
		audit:    audit,
		observer: observer,
		alerter:  alerter,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scan_service")),
		now:      time.Now,
	}
}

// Close waits for in-flight scans to complete.
func (s *ScanService) Close() {
	s.inflight.Wait()
}

// DefaultRequest returns the configured trade size and profit threshold.
func (s *ScanService) DefaultRequest() ScanRequest {
	return ScanRequest{
		TradeSize:        s.cfg.Params.TradeSize,
		MinProfitPercent: s.cfg.Params.MinProfitPercent,
	}
}

// Latest returns the most recent report produced by Run.
func (s *ScanService) Latest() (domain.ScanReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return domain.ScanReport{}, false
	}
	return *s.latest, true
}

// PoolStats reports worker counters summed over every scan's pool.
func (s *ScanService) PoolStats() map[string]any {
	return map[string]any{
		"active_scans":     s.stats.activeScans.Load(),
		"running_workers":  s.stats.running.Load(),
		"successful_tasks": s.stats.succeeded.Load(),
		"failed_tasks":     s.stats.failed.Load(),
	}
}

// Reprice projects opp at tradeSize with the configured gas overhead.
func (s *ScanService) Reprice(opp domain.Opportunity, tradeSize float64) (arbitrage.Projection, error) {
	return arbitrage.RepriceWith(opp, tradeSize, s.cfg.Params.GasOverhead)
}

// Run scans the whole catalog and fans the report out to the bus, audit log,
// metrics and alerter. It fails only when the catalog cannot be read, in
// which case the returned report is zeroed.
func (s *ScanService) Run(ctx context.Context, req ScanRequest) (domain.ScanReport, error) {
	if s.catalog == nil {
		return domain.EmptyReport(s.now().UTC()), fmt.Errorf("scan_service: run: %w", domain.ErrCatalogUnavailable)
	}
	assets := s.catalog.Assets()
	if len(assets) == 0 {
		return domain.EmptyReport(s.now().UTC()), fmt.Errorf("scan_service: run: %w", domain.ErrCatalogUnavailable)
	}

	report := s.scanAssets(ctx, assets, req)

	s.mu.Lock()
	s.latest = &report
	s.mu.Unlock()

	s.fanOut(ctx, report)
	return report, nil
}

// Scan evaluates every catalog asset concurrently and returns the report. It
// never fails: per-asset errors, timeouts and panics are counted as failed
// scans. Scan has no side effects beyond logging.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) domain.ScanReport {
	var assets []domain.Asset
	if s.catalog != nil {
		assets = s.catalog.Assets()
	}
	return s.scanAssets(ctx, assets, req)
}

// ScanAsset evaluates a single asset on demand. It returns
// domain.ErrMissingMint for an asset without a mint,
// domain.ErrInsufficientQuotes when fewer than two usable quotes came back,
// and a nil opportunity without error when nothing clears the threshold.
func (s *ScanService) ScanAsset(ctx context.Context, asset domain.Asset, req ScanRequest) (opp *domain.Opportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			opp, err = nil, fmt.Errorf("scan_service: scan %s: %s: %v", asset.Symbol, FailPanic, r)
		}
	}()
	opp, _, err = s.evaluate(ctx, asset, s.params(req))
	if err != nil {
		return nil, fmt.Errorf("scan_service: scan %s: %w", asset.Symbol, err)
	}
	return opp, nil
}

func (s *ScanService) params(req ScanRequest) arbitrage.Params {
	p := s.cfg.Params
	if req.TradeSize > 0 {
		p.TradeSize = req.TradeSize
	}
	p.MinProfitPercent = req.MinProfitPercent
	return p
}

func (s *ScanService) scanAssets(ctx context.Context, assets []domain.Asset, req ScanRequest) domain.ScanReport {
	start := s.now()
	p := s.params(req)

	s.inflight.Add(1)
	defer s.inflight.Done()
	s.stats.activeScans.Add(1)
	defer s.stats.activeScans.Add(-1)

	// One worker per asset so no attempt waits behind another.
	pool := pond.New(
		max(len(assets), 1),
		len(assets),
		pond.Strategy(pond.Eager()),
		pond.PanicHandler(func(p interface{}) {
			s.logger.Error("scan worker panic recovered", slog.Any("panic", p))
		}),
	)
	results := make([]domain.AssetResult, len(assets))
	for i, asset := range assets {
		pool.Submit(func() {
			s.stats.running.Add(1)
			defer s.stats.running.Add(-1)
			results[i] = s.scanOne(ctx, asset, p)
		})
	}
	pool.StopAndWait()
	s.stats.succeeded.Add(pool.SuccessfulTasks())
	s.stats.failed.Add(pool.FailedTasks())

	report := domain.ScanReport{
		ID:          uuid.NewString(),
		TotalAssets: len(assets),
	}
	var opps []domain.Opportunity
	for _, r := range results {
		switch r.Outcome {
		case domain.ScanSucceeded:
			report.SuccessfulScans++
			if r.Opportunity != nil {
				opps = append(opps, *r.Opportunity)
			}
		default:
			report.FailedScans++
			s.logger.WarnContext(ctx, "asset scan failed",
				slog.String("symbol", r.Asset.Symbol),
				slog.String("reason", r.Reason),
			)
		}
	}
	report.Opportunities = arbitrage.SortByProfit(opps)
	if report.Opportunities == nil {
		report.Opportunities = []domain.Opportunity{}
	}
	end := s.now()
	report.Duration = end.Sub(start)
	report.CompletedAt = end.UTC()

	s.logger.InfoContext(ctx, "scan complete",
		slog.String("scan_id", report.ID),
		slog.Int("total", report.TotalAssets),
		slog.Int("successful", report.SuccessfulScans),
		slog.Int("failed", report.FailedScans),
		slog.Int("opportunities", len(report.Opportunities)),
		slog.Int64("duration_ms", report.Duration.Milliseconds()),
	)
	return report
}

// scanOne produces exactly one result for asset, whatever happens.
func (s *ScanService) scanOne(ctx context.Context, asset domain.Asset, p arbitrage.Params) (res domain.AssetResult) {
	res.Asset = asset
	defer func() {
		if r := recover(); r != nil {
			res = domain.AssetResult{
				Asset:   asset,
				Outcome: domain.ScanFailed,
				Reason:  fmt.Sprintf("%s: %v", FailPanic, r),
			}
		}
	}()

	opp, venueErrs, err := s.evaluate(ctx, asset, p)
	res.VenueErrors = venueErrs
	if err != nil {
		res.Outcome = domain.ScanFailed
		res.Reason = failReason(err)
		return res
	}
	res.Outcome = domain.ScanSucceeded
	res.Opportunity = opp
	return res
}

type fetchResult struct {
	set domain.QuoteSet
	err error
}

// evaluate runs fetch and calculation for one asset under the per-asset
// timeout. The timeout holds even if the quote source ignores its context.
func (s *ScanService) evaluate(ctx context.Context, asset domain.Asset, p arbitrage.Params) (*domain.Opportunity, []domain.VenueError, error) {
	if !asset.Tradable() {
		return nil, nil, domain.ErrMissingMint
	}
	if s.quotes == nil {
		return nil, nil, domain.ErrNoVenues
	}

	actx, cancel := context.WithTimeout(ctx, s.cfg.AssetTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("%s: %v", FailPanic, r)}
			}
		}()
		set, err := s.quotes.FetchQuotes(actx, asset)
		done <- fetchResult{set: set, err: err}
	}()

	var fr fetchResult
	select {
	case fr = <-done:
	case <-actx.Done():
		return nil, nil, fmt.Errorf("fetch quotes: %w", actx.Err())
	}
	if fr.err != nil {
		return nil, nil, fr.err
	}

	if len(fr.set.Usable()) < 2 {
		return nil, fr.set.Errors, domain.ErrInsufficientQuotes
	}

	opp, reason := arbitrage.Evaluate(asset, fr.set.Quotes, p)
	if opp == nil && reason != arbitrage.ReasonNone {
		s.logger.DebugContext(ctx, "no opportunity",
			slog.String("symbol", asset.Symbol),
			slog.String("reason", string(reason)),
		)
	}
	return opp, fr.set.Errors, nil
}

func failReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingMint):
		return FailMissingMint
	case errors.Is(err, domain.ErrInsufficientQuotes):
		return FailInsufficientQuotes
	case errors.Is(err, context.DeadlineExceeded):
		return FailTimeout
	case errors.Is(err, context.Canceled):
		return FailCanceled
	default:
		return FailQuoteSource + ": " + err.Error()
	}
}

// fanOut delivers a completed report to the optional collaborators. Failures
// are logged and never affect the report.
func (s *ScanService) fanOut(ctx context.Context, report domain.ScanReport) {
	if s.observer != nil {
		s.observer.ObserveScan(report)
	}

	if s.bus != nil {
		if payload, err := json.Marshal(report); err == nil {
			if pubErr := s.bus.Publish(ctx, domain.ChannelScanReports, payload); pubErr != nil {
				s.logger.WarnContext(ctx, "publish scan report failed",
					slog.String("error", pubErr.Error()),
				)
			}
		}
		for _, o := range report.Opportunities {
			payload, err := json.Marshal(o)
			if err != nil {
				continue
			}
			if pubErr := s.bus.Publish(ctx, domain.ChannelOpportunity, payload); pubErr != nil {
				s.logger.WarnContext(ctx, "publish opportunity failed",
					slog.String("symbol", o.AssetSymbol),
					slog.String("error", pubErr.Error()),
				)
			}
		}
	}

	if s.audit != nil {
		detail := map[string]any{
			"scan_id":         report.ID,
			"totalScanned":    report.TotalAssets,
			"successfulScans": report.SuccessfulScans,
			"failedScans":     report.FailedScans,
			"opportunities":   len(report.Opportunities),
			"scanDuration":    report.Duration.Milliseconds(),
		}
		if err := s.audit.Log(ctx, "scan_completed", detail); err != nil {
			s.logger.WarnContext(ctx, "audit log failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if s.alerter != nil && len(report.Opportunities) > 0 {
		if err := s.alerter.AlertOpportunities(ctx, report.Opportunities); err != nil {
			s.logger.WarnContext(ctx, "opportunity alert failed",
				slog.String("error", err.Error()),
			)
		}
	}
}
