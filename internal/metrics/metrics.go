// Package metrics exposes Prometheus collectors for a scrape run.
//
// The scraper is a batch job, so instead of serving /metrics the collected
// values are written once per run to a node_exporter textfile.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors of one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestSeconds   prometheus.Histogram
	cacheLookupsTotal    *prometheus.CounterVec
	museumsTotal         *prometheus.CounterVec
	waypointsTotal       *prometheus.CounterVec
	runDurationSeconds   prometheus.Gauge
	lastSuccessTimestamp prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automuseums_http_requests_total",
				Help: "Total number of HTTP requests sent to the directory site, labeled by status code.",
			},
			[]string{"code"},
		),
		httpRequestSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "automuseums_http_request_duration_seconds",
				Help:    "Histogram of directory site request latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automuseums_cache_lookups_total",
				Help: "Total number of cache lookups, labeled by tier and state.",
			},
			[]string{"tier", "state"},
		),
		museumsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automuseums_museums_total",
				Help: "Total number of museums processed, labeled by outcome.",
			},
			[]string{"status"},
		),
		waypointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automuseums_waypoints_total",
				Help: "Total number of waypoints exported, labeled by country.",
			},
			[]string{"country"},
		),
		runDurationSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "automuseums_run_duration_seconds",
				Help: "Wall-clock duration of the last run.",
			},
		),
		lastSuccessTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "automuseums_last_success_timestamp_seconds",
				Help: "Unix time of the last run that finished without failures.",
			},
		),
	}
}

// Registry exposes the underlying registry as a gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one HTTP request. A code of 0 means a transport error.
func (m *Metrics) ObserveRequest(code int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	m.httpRequestsTotal.WithLabelValues(label).Inc()
	m.httpRequestSeconds.Observe(duration.Seconds())
}

// ObserveCache records a cache lookup for the tier.
func (m *Metrics) ObserveCache(tier, state string) {
	if m == nil {
		return
	}
	m.cacheLookupsTotal.WithLabelValues(tier, state).Inc()
}

// ObserveMuseum records the outcome of loading one museum page.
func (m *Metrics) ObserveMuseum(status string) {
	if m == nil {
		return
	}
	m.museumsTotal.WithLabelValues(status).Inc()
}

// ObserveWaypoints records the waypoints written for a country.
func (m *Metrics) ObserveWaypoints(country string, n int) {
	if m == nil {
		return
	}
	m.waypointsTotal.WithLabelValues(country).Add(float64(n))
}

// ObserveRun records the run duration and, when ok, the success timestamp.
func (m *Metrics) ObserveRun(start, end time.Time, ok bool) {
	if m == nil {
		return
	}
	m.runDurationSeconds.Set(end.Sub(start).Seconds())
	if ok {
		m.lastSuccessTimestamp.Set(float64(end.Unix()))
	}
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
