package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dataward/pushlog/pkg/pipeline"
)

// Collector gathers analysis metrics for the /metrics endpoint.
type Collector struct {
	registry *prometheus.Registry

	runsTotal    prometheus.Counter
	jobsAnalyzed *prometheus.CounterVec
	runDuration  prometheus.Histogram
	successRate  prometheus.Gauge
}

// NewCollector creates a collector with its own registry, so tests and
// repeated server starts never collide on global registration.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pushlog_runs_total",
			Help: "Total number of analysis runs executed",
		}),
		jobsAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pushlog_jobs_analyzed_total",
			Help: "Total number of job records analyzed, by terminal status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pushlog_run_duration_seconds",
			Help:    "Analysis run wall time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pushlog_last_run_success_rate",
			Help: "Fraction of jobs in the most recent run that succeeded",
		}),
	}

	c.registry.MustRegister(c.runsTotal, c.jobsAnalyzed, c.runDuration, c.successRate)
	return c
}

// RecordRun updates all run-level metrics from a completed summary.
func (c *Collector) RecordRun(summary *pipeline.Summary) {
	c.runsTotal.Inc()
	c.jobsAnalyzed.WithLabelValues("success").Add(float64(summary.Successes))
	c.jobsAnalyzed.WithLabelValues("error").Add(float64(summary.Errors))
	c.jobsAnalyzed.WithLabelValues("incomplete").Add(float64(summary.Incompletes))
	c.runDuration.Observe(summary.Duration.Seconds())

	if summary.JobsTotal > 0 {
		c.successRate.Set(float64(summary.Successes) / float64(summary.JobsTotal))
	}
}

// Handler returns the HTTP handler exposing this collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
