package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the background loops: continuous scanning and
// network sampling.
type Orchestrator struct {
	scanner         *ContinuousScanner
	network         *NetworkSampler
	scanInterval    time.Duration
	networkInterval time.Duration
	onReport        ReportFunc
	logger          *slog.Logger
}

// NewOrchestrator creates an Orchestrator. network may be nil.
func NewOrchestrator(
	scanner *ContinuousScanner,
	network *NetworkSampler,
	scanInterval time.Duration,
	networkInterval time.Duration,
	onReport ReportFunc,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scanner:         scanner,
		network:         network,
		scanInterval:    scanInterval,
		networkInterval: networkInterval,
		onReport:        onReport,
		logger:          logger,
	}
}

// Run starts all loops as concurrent goroutines using an errgroup. Each loop
// respects ctx cancellation. If any loop returns a non-context error, the
// errgroup cancels the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("scan_interval", o.scanInterval),
		slog.Duration("network_interval", o.networkInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.logger.Info("starting continuous scan loop")
		err := o.scanner.RunLoop(ctx, o.scanInterval, o.onReport)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("continuous scanner: %w", err)
	})

	if o.network != nil && o.networkInterval > 0 {
		g.Go(func() error {
			o.logger.Info("starting network sampler loop")
			err := o.network.RunLoop(ctx, o.networkInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("network sampler: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
