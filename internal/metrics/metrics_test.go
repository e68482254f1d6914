package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector_RecordOperation(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordOperation(ctx, "create_app", "success", 12)
	collector.RecordOperation(ctx, "create_app", "success", 8)
	collector.RecordOperation(ctx, "create_app", "failure", 3)
	collector.RecordOperation(ctx, "get_app", "success", 1)

	assert.Equal(t, 3, testutil.CollectAndCount(collector.operationsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.operationsTotal.WithLabelValues("create_app", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.operationsTotal.WithLabelValues("create_app", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.operationDuration))
}

func TestPrometheusCollector_RecordError(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordError(ctx, "update_app", "Unauthorized")
	collector.RecordError(ctx, "update_app", "Unauthorized")
	collector.RecordError(ctx, "get_app", "NotFound")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.errorsTotal.WithLabelValues("update_app", "Unauthorized")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.errorsTotal.WithLabelValues("get_app", "NotFound")))
}

func TestPrometheusCollector_IndexFailuresAndStorage(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordIndexFailure(ctx, "app", 2)
	collector.RecordIndexFailure(ctx, "app", 1)
	collector.SetStorageCount(ctx, "records", 10)
	collector.SetStorageCount(ctx, "records", 12)

	assert.Equal(t, float64(3), testutil.ToFloat64(collector.indexFailures.WithLabelValues("app")))
	assert.Equal(t, float64(12), testutil.ToFloat64(collector.storageCount.WithLabelValues("records")))
}

func TestPrometheusCollector_Registry(t *testing.T) {
	collector := NewCollector()
	collector.RecordOperation(context.Background(), "whoami", "success", 0)

	families, err := collector.Registry().Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "appstore_operations_total")
}

func TestCollectorsImplementInterface(t *testing.T) {
	var _ Collector = NewCollector()
	var _ Collector = NewNoopCollector()

	n := NewNoopCollector()
	n.RecordOperation(context.Background(), "x", "success", 1)
	n.RecordIndexFailure(context.Background(), "app", 1)
}
