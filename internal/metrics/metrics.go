package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a node.
type Metrics struct {
	registry *prometheus.Registry

	CallsApplied  *prometheus.CounterVec
	CallsRejected *prometheus.CounterVec
	Blocks        prometheus.Counter
	Height        prometheus.Gauge
	Pending       prometheus.Gauge
	BlockDuration prometheus.Histogram
}

// New creates the collectors on a private registry, so several nodes can
// live in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CallsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claimchain_calls_applied_total",
			Help: "Registry calls applied successfully, by kind",
		}, []string{"kind"}),
		CallsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "claimchain_calls_rejected_total",
			Help: "Registry calls that failed, by kind and error code",
		}, []string{"kind", "code"}),
		Blocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "claimchain_blocks_total",
			Help: "Blocks produced since start",
		}),
		Height: factory.NewGauge(prometheus.GaugeOpts{
			Name: "claimchain_height",
			Help: "Last committed block height",
		}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "claimchain_mempool_pending",
			Help: "Calls waiting for the next block",
		}),
		BlockDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimchain_block_duration_seconds",
			Help:    "Time to apply and commit a block",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}

// ObserveCall records the outcome of one call. An empty code means success.
func (m *Metrics) ObserveCall(kind, code string) {
	if code == "" {
		m.CallsApplied.WithLabelValues(kind).Inc()
		return
	}

	m.CallsRejected.WithLabelValues(kind, code).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
