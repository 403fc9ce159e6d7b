package port

import (
	"context"
	"time"
)

// MetricDatum is a single KPI sample for external metric stores.
type MetricDatum struct {
	Name       string
	Value      float64
	Unit       string
	Timestamp  time.Time
	Dimensions map[string]string
}

// MetricsPublisher defines the interface for publishing KPI samples to external observability platforms.
type MetricsPublisher interface {
	// PublishBatch buffers samples; implementations handle batching limits.
	PublishBatch(ctx context.Context, data []MetricDatum) error

	// Flush forces immediate publication of any buffered samples.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
