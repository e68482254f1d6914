package metrics

import "context"

// NoopCollector discards everything.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (n *NoopCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
}

func (n *NoopCollector) RecordError(ctx context.Context, operation string, errorKind string) {}

func (n *NoopCollector) RecordIndexFailure(ctx context.Context, kind string, anchors int) {}

func (n *NoopCollector) SetStorageCount(ctx context.Context, storageType string, count int64) {}
