package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records per-operation counters and latency histograms
// for cluster requests issued by the SDK.
type ClientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewClientMetrics creates client metrics registered in reg. Collectors
// already present in the registry are reused, so several clients can
// share one registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmap",
			Name:      "operations_total",
			Help:      "Total number of cluster operations",
		},
		[]string{"operation", "index", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esmap",
			Name:      "operation_duration_seconds",
			Help:      "Cluster operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "index"},
	)

	return &ClientMetrics{
		operations: registerOrReuse(reg, operations).(*prometheus.CounterVec),
		duration:   registerOrReuse(reg, duration).(*prometheus.HistogramVec),
	}
}

// Observe records one completed operation.
func (m *ClientMetrics) Observe(operation, index string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, index, status).Inc()
	m.duration.WithLabelValues(operation, index).Observe(time.Since(start).Seconds())
}

// registerOrReuse registers c, or returns the collector already
// registered under the same descriptor.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
