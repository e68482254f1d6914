package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector provides Prometheus metrics for catalog operations.
type PrometheusCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	indexFailures     *prometheus.CounterVec
	storageCount      *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewCollector creates a Prometheus collector on its own registry.
func NewCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_operations_total",
			Help: "Total number of dispatched operations by name and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appstore_operation_duration_seconds",
			Help:    "Duration of dispatched operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_errors_total",
			Help: "Total number of failed operations by error kind",
		},
		[]string{"operation", "error_kind"},
	)

	indexFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appstore_index_anchor_failures_total",
			Help: "Anchors that could not be written while indexing a new entity",
		},
		[]string{"kind"},
	)

	storageCount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appstore_storage_count",
			Help: "Current count of stored items by type",
		},
		[]string{"type"},
	)

	registry.MustRegister(operationsTotal, operationDuration, errorsTotal, indexFailures, storageCount)

	return &PrometheusCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		errorsTotal:       errorsTotal,
		indexFailures:     indexFailures,
		storageCount:      storageCount,
		registry:          registry,
	}
}

// RecordOperation records the completion of an operation.
func (m *PrometheusCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(durationMs) / 1000.0)
}

// RecordError records a failed operation by error kind.
func (m *PrometheusCollector) RecordError(ctx context.Context, operation string, errorKind string) {
	m.errorsTotal.WithLabelValues(operation, errorKind).Inc()
}

// RecordIndexFailure counts anchors left unwritten by a partial index.
func (m *PrometheusCollector) RecordIndexFailure(ctx context.Context, kind string, anchors int) {
	m.indexFailures.WithLabelValues(kind).Add(float64(anchors))
}

// SetStorageCount sets the current count for a storage type.
func (m *PrometheusCollector) SetStorageCount(ctx context.Context, storageType string, count int64) {
	m.storageCount.WithLabelValues(storageType).Set(float64(count))
}

// Registry returns the Prometheus registry for HTTP exposure.
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}
