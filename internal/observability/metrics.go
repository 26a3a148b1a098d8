package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/clause-watch/internal/usecase"
)

var _ usecase.RefreshRecorder = (*Metrics)(nil)

// Metrics holds the Prometheus collectors for refresh cycles and the HTTP surface.
type Metrics struct {
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	OwnerFetches    *prometheus.CounterVec
	SkippedRecords  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewMetrics creates and registers the collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewMetrics(registerer ...prometheus.Registerer) *Metrics {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	m := &Metrics{
		RefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clause_watch_refresh_runs_total",
			Help: "Refresh cycles by outcome (success, partial, failed).",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clause_watch_refresh_duration_seconds",
			Help:    "Wall time of a refresh cycle.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"outcome"}),
		OwnerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clause_watch_owner_fetches_total",
			Help: "Per-owner player fetches by outcome.",
		}, []string{"outcome"}),
		SkippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clause_watch_skipped_records_total",
			Help: "Provider records dropped during normalization or joining.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clause_watch_http_requests_total",
			Help: "HTTP requests served by route and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clause_watch_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.RefreshRuns,
		m.RefreshDuration,
		m.OwnerFetches,
		m.SkippedRecords,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

func (m *Metrics) ObserveRefresh(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(outcome).Inc()
	m.RefreshDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) ObserveOwnerFetch(outcome string) {
	if m == nil {
		return
	}
	m.OwnerFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSkipped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedRecords.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveHTTP(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}
