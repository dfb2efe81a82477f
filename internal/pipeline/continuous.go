package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/service"
)

// DefaultScanInterval is used when a non-positive interval is supplied.
const DefaultScanInterval = 30 * time.Second

// scanLockKey serialises continuous scans across replicas.
const scanLockKey = "scan"

// Scanner runs one full scan.
type Scanner interface {
	Run(ctx context.Context, req service.ScanRequest) (domain.ScanReport, error)
	DefaultRequest() service.ScanRequest
}

// ReportFunc receives each completed report. err is non-nil only when the
// scan as a whole failed.
type ReportFunc func(report domain.ScanReport, err error)

// ContinuousScanner repeats a scan on a fixed interval.
type ContinuousScanner struct {
	scanner Scanner
	lock    domain.LockManager
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewContinuousScanner creates a ContinuousScanner. lock is optional; when
// set, a cycle is skipped while another replica holds the scan lock.
func NewContinuousScanner(scanner Scanner, lock domain.LockManager, lockTTL time.Duration, logger *slog.Logger) *ContinuousScanner {
	return &ContinuousScanner{
		scanner: scanner,
		lock:    lock,
		lockTTL: lockTTL,
		logger:  logger.With(slog.String("component", "continuous_scanner")),
	}
}

// Start scans immediately and then on every tick of interval, handing each
// report to cb. The returned stop function prevents further ticks without
// interrupting a scan already in flight. stop is safe to call more than once.
func (c *ContinuousScanner) Start(ctx context.Context, interval time.Duration, cb ReportFunc) (stop func()) {
	stopCh := make(chan struct{})
	var once sync.Once

	go c.loop(ctx, interval, cb, stopCh)

	return func() {
		once.Do(func() { close(stopCh) })
	}
}

// RunLoop is the blocking form of Start. It returns when ctx is cancelled.
func (c *ContinuousScanner) RunLoop(ctx context.Context, interval time.Duration, cb ReportFunc) error {
	c.loop(ctx, interval, cb, nil)
	return ctx.Err()
}

func (c *ContinuousScanner) loop(ctx context.Context, interval time.Duration, cb ReportFunc, stopCh <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultScanInterval
	}

	c.runOnce(ctx, cb)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("continuous scanner stopped")
			return
		case <-stopCh:
			c.logger.Info("continuous scanner stopped")
			return
		case <-ticker.C:
			// A stop that raced with the tick wins.
			select {
			case <-stopCh:
				c.logger.Info("continuous scanner stopped")
				return
			default:
			}
			c.runOnce(ctx, cb)
		}
	}
}

func (c *ContinuousScanner) runOnce(ctx context.Context, cb ReportFunc) {
	if c.lock != nil {
		unlock, err := c.lock.Acquire(ctx, scanLockKey, c.lockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			c.logger.Debug("scan skipped, lock held elsewhere")
			return
		case err != nil:
			c.logger.Warn("scan lock unavailable, scanning anyway", slog.String("error", err.Error()))
		default:
			defer unlock()
		}
	}

	report, err := c.scanner.Run(ctx, c.scanner.DefaultRequest())
	if err != nil {
		c.logger.Error("scan failed", slog.String("error", err.Error()))
	}
	if cb != nil {
		cb(report, err)
	}
}
