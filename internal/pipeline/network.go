package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// NetworkSource reads cluster status.
type NetworkSource interface {
	Status(ctx context.Context) (domain.NetworkStatus, error)
	Performance(ctx context.Context) (*domain.PerformanceSample, error)
}

// NetworkSampler polls the cluster and keeps the latest snapshot so the API
// can answer without a round trip per request.
type NetworkSampler struct {
	src    NetworkSource
	bus    domain.SignalBus
	logger *slog.Logger

	mu     sync.RWMutex
	latest *domain.NetworkSnapshot
}

// NewNetworkSampler creates a NetworkSampler. bus is optional.
func NewNetworkSampler(src NetworkSource, bus domain.SignalBus, logger *slog.Logger) *NetworkSampler {
	return &NetworkSampler{
		src:    src,
		bus:    bus,
		logger: logger.With(slog.String("component", "network_sampler")),
	}
}

// Sample reads status and performance once. A performance failure leaves the
// snapshot without a sample.
func (n *NetworkSampler) Sample(ctx context.Context) (domain.NetworkSnapshot, error) {
	status, err := n.src.Status(ctx)
	if err != nil {
		return domain.NetworkSnapshot{}, fmt.Errorf("pipeline: network sample: %w", err)
	}
	snap := domain.NetworkSnapshot{Status: status}

	perf, err := n.src.Performance(ctx)
	if err != nil {
		n.logger.Warn("performance sample failed", slog.String("error", err.Error()))
	} else {
		snap.Performance = perf
	}
	return snap, nil
}

// Run takes one sample, stores it and publishes it.
func (n *NetworkSampler) Run(ctx context.Context) error {
	snap, err := n.Sample(ctx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.latest = &snap
	n.mu.Unlock()

	if n.bus != nil {
		payload, _ := json.Marshal(snap)
		if err := n.bus.Publish(ctx, domain.ChannelNetwork, payload); err != nil {
			n.logger.Warn("publish network snapshot failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Latest returns the most recent snapshot if it is younger than maxAge.
func (n *NetworkSampler) Latest(maxAge time.Duration) (domain.NetworkSnapshot, bool) {
	if n == nil {
		return domain.NetworkSnapshot{}, false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.latest == nil || time.Since(n.latest.Status.ObservedAt) > maxAge {
		return domain.NetworkSnapshot{}, false
	}
	return *n.latest, true
}

// RunLoop samples on a repeating interval until the context is cancelled.
func (n *NetworkSampler) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := n.Run(ctx); err != nil {
		n.logger.Error("network sample failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("network sampler loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := n.Run(ctx); err != nil {
				n.logger.Error("network sample failed", slog.String("error", err.Error()))
			}
		}
	}
}
