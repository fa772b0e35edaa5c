package loadtest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes live run counters so long soak tests can be watched from
// the outside instead of waiting for the final report.
type Metrics struct {
	registry *prometheus.Registry

	ops      *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics builds a self-contained registry; nothing is registered on the
// process-global default.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmxbench",
			Name:      "ops_total",
			Help:      "Completed operations, by workload and outcome.",
		}, []string{"workload", "outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmxbench",
			Name:      "failures_total",
			Help:      "Failed operations, by workload and failure kind.",
		}, []string{"workload", "kind"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dmxbench",
			Name:      "op_latency_ms",
			Help:      "Per-operation round-trip latency in milliseconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"workload"}),
	}
}

// ObserveSuccess records one successful operation and its latency.
func (m *Metrics) ObserveSuccess(workload string, latencyMs float64) {
	m.ops.WithLabelValues(workload, "ok").Inc()
	m.latency.WithLabelValues(workload).Observe(latencyMs)
}

// AddFailures records n failed operations of the given kind.
func (m *Metrics) AddFailures(workload string, kind Kind, n int) {
	m.ops.WithLabelValues(workload, "error").Add(float64(n))
	m.failures.WithLabelValues(workload, kind.String()).Add(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
