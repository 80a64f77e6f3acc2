// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the inventory sync service.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "inventory-sync"

// Fetch outcome label values.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds the inventory sync Prometheus metrics.
type Metrics struct {
	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunsInProgress  prometheus.Gauge
	LastSuccess     prometheus.Gauge
	VehicleChanges  *prometheus.CounterVec
	VehiclesScraped prometheus.Gauge

	// Scrape metrics
	PageFetches       *prometheus.CounterVec
	PageFetchDuration *prometheus.HistogramVec
	VehiclesSkipped   *prometheus.CounterVec
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewProvider registers the metrics on reg. A nil reg uses the Prometheus
// default registry.
func NewProvider(reg *prometheus.Registry) *Provider {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(registerer)),
		gatherer: gatherer,
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func initMetrics(factory promauto.Factory) *Metrics {
	m := &Metrics{}
	initRunMetrics(factory, m)
	initScrapeMetrics(factory, m)
	return m
}

func initRunMetrics(factory promauto.Factory, m *Metrics) {
	m.RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_runs_total",
		Help: "Sync runs by final status and trigger",
	}, []string{"status", "trigger"})

	m.RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_sync_run_duration_seconds",
		Help:    "Wall time of a sync run from lock to final log write",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	m.RunsInProgress = factory.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_sync_runs_in_progress",
		Help: "Sync runs currently holding the run lock in this process",
	})

	m.LastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last completed sync run",
	})

	m.VehicleChanges = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_vehicle_changes_total",
		Help: "Vehicles added, updated or marked sold by reconciliation",
	}, []string{"change"})

	m.VehiclesScraped = factory.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_sync_vehicles_scraped",
		Help: "Vehicles extracted by the most recent scrape",
	})
}

func initScrapeMetrics(factory promauto.Factory, m *Metrics) {
	m.PageFetches = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_page_fetches_total",
		Help: "Rendered page fetches by page kind and outcome",
	}, []string{"page", "outcome"})

	m.PageFetchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_sync_page_fetch_duration_seconds",
		Help:    "Time to render one page",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"page"})

	m.VehiclesSkipped = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_vehicles_skipped_total",
		Help: "Detail pages that produced no vehicle, by reason",
	}, []string{"reason"})
}

// ObserveFetch records one page render.
func (p *Provider) ObserveFetch(page string, duration time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	p.Metrics.PageFetches.WithLabelValues(page, outcome).Inc()
	p.Metrics.PageFetchDuration.WithLabelValues(page).Observe(duration.Seconds())
}

// IncSkipped records one skipped detail page.
func (p *Provider) IncSkipped(reason domain.SkipReason) {
	p.Metrics.VehiclesSkipped.WithLabelValues(string(reason)).Inc()
}

// RunStarted marks a run as holding the lock.
func (p *Provider) RunStarted() {
	p.Metrics.RunsInProgress.Inc()
}

// RecordRun records the end of a run. result may be partial on failure.
func (p *Provider) RecordRun(
	status domain.ScrapeStatus,
	trigger domain.Trigger,
	duration time.Duration,
	scraped int,
	result domain.SyncResult,
) {
	p.Metrics.RunsInProgress.Dec()
	p.Metrics.RunsTotal.WithLabelValues(string(status), string(trigger)).Inc()
	p.Metrics.RunDuration.Observe(duration.Seconds())
	p.Metrics.VehiclesScraped.Set(float64(scraped))

	p.Metrics.VehicleChanges.WithLabelValues("added").Add(float64(result.Added))
	p.Metrics.VehicleChanges.WithLabelValues("updated").Add(float64(result.Updated))
	p.Metrics.VehicleChanges.WithLabelValues("removed").Add(float64(result.Removed))

	if status == domain.ScrapeStatusCompleted {
		p.Metrics.LastSuccess.SetToCurrentTime()
	}
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
