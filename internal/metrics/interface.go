// Package metrics records dispatch and storage metrics.
package metrics

import "context"

// Collector is the interface for metrics collection.
// Implementations are the Prometheus-backed collector and the no-op
// collector used when metrics are disabled.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	RecordError(ctx context.Context, operation string, errorKind string)
	RecordIndexFailure(ctx context.Context, kind string, anchors int)
	SetStorageCount(ctx context.Context, storageType string, count int64)
}
