// Package prometheus exports ledger service metrics to Prometheus.
package prometheus

import (
	"strconv"
	"time"

	"schoolledger/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector with client_golang vectors.
type Collector struct {
	reports       *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	ingests       *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	circuitState  *prometheus.GaugeVec
	circuitOpens  *prometheus.CounterVec
	exports       *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
}

var _ metrics.Collector = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Reports computed, by kind and status",
			},
			[]string{"kind", "status"},
		),
		reportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Time to load rows and compute a report",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_lookups_total",
				Help:      "Report cache lookups, by kind and result",
			},
			[]string{"kind", "result"},
		),
		ingests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingested_rows_total",
				Help:      "Ledger rows written, by entity and status",
			},
			[]string{"entity", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests, by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Times a circuit breaker opened",
			},
			[]string{"name"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_exports_total",
				Help:      "Report exports written to sheets, by kind and status",
			},
			[]string{"kind", "status"},
		),
		exportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_export_duration_seconds",
				Help:      "Time to compute and write an exported report",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
	}
}

// Register registers every vector with the registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.reports,
		c.reportLatency,
		c.cacheLookups,
		c.ingests,
		c.httpRequests,
		c.httpLatency,
		c.circuitState,
		c.circuitOpens,
		c.exports,
		c.exportLatency,
	}
	for _, col := range collectors {
		if err := registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (c *Collector) RecordReport(kind string, success bool, duration time.Duration) {
	c.reports.WithLabelValues(kind, status(success)).Inc()
	c.reportLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (c *Collector) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (c *Collector) RecordIngest(entity string, success bool) {
	c.ingests.WithLabelValues(entity, status(success)).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordCircuitState(name string, state metrics.CircuitState) {
	c.circuitState.WithLabelValues(name).Set(float64(state))
	if state == metrics.CircuitOpen {
		c.circuitOpens.WithLabelValues(name).Inc()
	}
}

func (c *Collector) RecordExport(kind string, success bool, duration time.Duration) {
	c.exports.WithLabelValues(kind, status(success)).Inc()
	c.exportLatency.WithLabelValues(kind).Observe(duration.Seconds())
}
