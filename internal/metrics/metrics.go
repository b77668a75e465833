// Package metrics provides Prometheus metrics for container command execution
// and filesystem bridge operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exec outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeRemoteError     = "remote_error"
	OutcomeConnectionError = "connection_error"
	OutcomeError           = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	execTotal    *prometheus.CounterVec
	execDuration prometheus.Histogram
	opsTotal     *prometheus.CounterVec
	changesTotal *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		execTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockerws_exec_total",
				Help: "Total number of commands executed inside containers",
			},
			[]string{"outcome"},
		),
		execDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dockerws_exec_duration_seconds",
				Help:    "Container command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		opsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockerws_fs_operations_total",
				Help: "Total number of filesystem bridge operations",
			},
			[]string{"op", "outcome"},
		),
		changesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockerws_fs_changes_total",
				Help: "Total number of change events emitted",
			},
			[]string{"type"},
		),
	}
}

// ObserveExec records one container command.
func (m *Metrics) ObserveExec(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.execTotal.WithLabelValues(outcome).Inc()
	m.execDuration.Observe(d.Seconds())
}

// ObserveOp records one bridge operation.
func (m *Metrics) ObserveOp(op, outcome string) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveChange records one emitted change event.
func (m *Metrics) ObserveChange(changeType string) {
	if m == nil {
		return
	}
	m.changesTotal.WithLabelValues(changeType).Inc()
}

// Handler returns the HTTP handler exposing the gathered metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
