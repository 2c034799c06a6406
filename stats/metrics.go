package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of the pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	runsTotal    *prometheus.CounterVec
	taskAttempts *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	rowsTotal    *prometheus.CounterVec
	skippedTicks *prometheus.CounterVec
}

// NewMetrics registers collectors on a registry of their own so tests can create many.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salespipe_runs_total",
			Help: "Finished pipeline runs by final status",
		}, []string{"status"}),
		taskAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salespipe_task_attempts_total",
			Help: "Task attempts by task and outcome",
		}, []string{"task", "outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salespipe_task_duration_seconds",
			Help:    "Duration of task attempts",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"task"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salespipe_rows_total",
			Help: "Rows produced or affected by successful tasks",
		}, []string{"task"}),
		skippedTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salespipe_scheduler_skipped_ticks_total",
			Help: "Scheduler ticks that did not start a run, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) TaskAttempt(task string, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskAttempts.WithLabelValues(task, outcome).Inc()
	m.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (m *Metrics) AddRows(task string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsTotal.WithLabelValues(task).Add(float64(n))
}

func (m *Metrics) TickSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTicks.WithLabelValues(reason).Inc()
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
