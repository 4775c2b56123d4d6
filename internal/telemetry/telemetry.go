// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for traffic-gate.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "traffic-gate"

// Metrics holds all traffic-gate Prometheus metrics.
type Metrics struct {
	ClicksTotal        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	PipelineDuration   prometheus.Histogram
	LedgerSize         prometheus.Gauge

	RateLimited prometheus.Counter

	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	EventsFailed    prometheus.Counter

	CampaignRefreshes *prometheus.CounterVec
	CampaignsLoaded   prometheus.Gauge
}

// Provider wraps the metrics, their registry and the tracer.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewProvider registers all metrics on a fresh registry.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewProviderWithRegistry(reg, reg)
}

// NewProviderWithRegistry registers all metrics on reg and serves them from gatherer.
func NewProviderWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Provider {
	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		gatherer: gatherer,
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func initMetrics(f promauto.Factory) *Metrics {
	m := &Metrics{}
	initClickMetrics(f, m)
	initEventMetrics(f, m)
	initCampaignMetrics(f, m)
	return m
}

func initClickMetrics(f promauto.Factory, m *Metrics) {
	m.ClicksTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_gate_clicks_total",
		Help: "Clicks recorded, by verdict and fraud reason",
	}, []string{"verdict", "reason"})

	m.ValidationFailures = f.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_gate_validation_failures_total",
		Help: "Requests rejected by parameter validation",
	}, []string{"endpoint"})

	m.PipelineDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_gate_pipeline_duration_seconds",
		Help:    "Time to classify and record a single click",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	m.LedgerSize = f.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_gate_ledger_records",
		Help: "Click records currently held in the ledger",
	})

	m.RateLimited = f.NewCounter(prometheus.CounterOpts{
		Name: "traffic_gate_rate_limited_total",
		Help: "Click requests rejected by the per-IP rate limiter",
	})
}

func initEventMetrics(f promauto.Factory, m *Metrics) {
	m.EventsPublished = f.NewCounter(prometheus.CounterOpts{
		Name: "traffic_gate_events_published_total",
		Help: "Click events published to Redis",
	})

	m.EventsDropped = f.NewCounter(prometheus.CounterOpts{
		Name: "traffic_gate_events_dropped_total",
		Help: "Click events dropped because the buffer was full",
	})

	m.EventsFailed = f.NewCounter(prometheus.CounterOpts{
		Name: "traffic_gate_events_failed_total",
		Help: "Click events that failed to publish",
	})
}

func initCampaignMetrics(f promauto.Factory, m *Metrics) {
	m.CampaignRefreshes = f.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_gate_campaign_refreshes_total",
		Help: "Campaign cache refreshes from Redis, by result",
	}, []string{"result"})

	m.CampaignsLoaded = f.NewGauge(prometheus.GaugeOpts{
		Name: "traffic_gate_campaigns_loaded",
		Help: "Campaigns currently held in the cache",
	})
}

// RecordClick records one classified click.
func (p *Provider) RecordClick(_ context.Context, valid bool, reason string, duration time.Duration) {
	verdict := "valid"
	if !valid {
		verdict = "invalid"
	}
	if reason == "" {
		reason = "none"
	}
	p.Metrics.ClicksTotal.WithLabelValues(verdict, reason).Inc()
	p.Metrics.PipelineDuration.Observe(duration.Seconds())
}

// RecordValidationFailure records a rejected request on endpoint.
func (p *Provider) RecordValidationFailure(_ context.Context, endpoint string) {
	p.Metrics.ValidationFailures.WithLabelValues(endpoint).Inc()
}

// SetLedgerSize sets the current ledger record count.
func (p *Provider) SetLedgerSize(size int) {
	p.Metrics.LedgerSize.Set(float64(size))
}

// IncrementRateLimited increments the rate-limited counter.
func (p *Provider) IncrementRateLimited() {
	p.Metrics.RateLimited.Inc()
}

// RecordEventsPublished adds n published events.
func (p *Provider) RecordEventsPublished(n int) {
	p.Metrics.EventsPublished.Add(float64(n))
}

// IncrementEventsDropped increments the dropped event counter.
func (p *Provider) IncrementEventsDropped() {
	p.Metrics.EventsDropped.Inc()
}

// RecordEventsFailed adds n events that could not be published.
func (p *Provider) RecordEventsFailed(n int) {
	p.Metrics.EventsFailed.Add(float64(n))
}

// RecordCampaignRefresh records one cache refresh and the resulting campaign count.
func (p *Provider) RecordCampaignRefresh(success bool, loaded int) {
	if !success {
		p.Metrics.CampaignRefreshes.WithLabelValues("error").Inc()
		return
	}
	p.Metrics.CampaignRefreshes.WithLabelValues("success").Inc()
	p.Metrics.CampaignsLoaded.Set(float64(loaded))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
