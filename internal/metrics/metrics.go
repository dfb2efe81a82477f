// Package metrics exposes scanner instrumentation in Prometheus format. All
// methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/solarb/internal/domain"
)

const namespace = "solarb"

// Metrics owns a private registry so multiple instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal     prometheus.Counter
	assetScans     *prometheus.CounterVec
	opportunities  prometheus.Gauge
	scanDuration   prometheus.Histogram
	bestProfit     *prometheus.GaugeVec
	venueRequests  *prometheus.CounterVec
	venueLatency   *prometheus.HistogramVec
	wsClients      prometheus.Gauge
	lastScanMillis prometheus.Gauge
}

// New creates and registers the scanner collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scan passes over the asset catalog.",
		}),
		assetScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_scans_total",
			Help:      "Per-asset scan attempts by outcome.",
		}, []string{"outcome"}),
		opportunities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "opportunities",
			Help:      "Opportunities found by the most recent scan.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall-clock duration of a scan pass.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		bestProfit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "opportunity_profit_percent",
			Help:      "Estimated net profit percent of the latest opportunity per asset.",
		}, []string{"symbol"}),
		venueRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "venue_requests_total",
			Help:      "Quote requests per venue by result.",
		}, []string{"venue", "result"}),
		venueLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "venue_request_duration_seconds",
			Help:      "Quote request latency per venue.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"venue"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients.",
		}),
		lastScanMillis: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_timestamp_ms",
			Help:      "Completion time of the most recent scan.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scansTotal,
		m.assetScans,
		m.opportunities,
		m.scanDuration,
		m.bestProfit,
		m.venueRequests,
		m.venueLatency,
		m.wsClients,
		m.lastScanMillis,
	)
	return m
}

// ObserveScan records a completed scan report.
func (m *Metrics) ObserveScan(r domain.ScanReport) {
	if m == nil {
		return
	}
	m.scansTotal.Inc()
	m.assetScans.WithLabelValues(string(domain.ScanSucceeded)).Add(float64(r.SuccessfulScans))
	m.assetScans.WithLabelValues(string(domain.ScanFailed)).Add(float64(r.FailedScans))
	m.opportunities.Set(float64(len(r.Opportunities)))
	m.scanDuration.Observe(r.Duration.Seconds())
	m.lastScanMillis.Set(float64(r.CompletedAt.UnixMilli()))

	m.bestProfit.Reset()
	for _, o := range r.Opportunities {
		m.bestProfit.WithLabelValues(o.AssetSymbol).Set(o.EstimatedProfitPercent)
	}
}

// ObserveVenue records one quote request.
func (m *Metrics) ObserveVenue(venue string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRateLimited):
		result = "rate_limited"
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	m.venueRequests.WithLabelValues(venue, result).Inc()
	m.venueLatency.WithLabelValues(venue).Observe(elapsed.Seconds())
}

// SetWSClients records the number of connected WebSocket clients.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
