package port

import (
	"context"

	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// LogEntry represents a structured log entry for publishing to external log systems.
type LogEntry = logger.Entry

// LogPublisher defines the interface for publishing logs to external observability platforms.
type LogPublisher interface {
	// Publish sends a single log entry to the external system.
	Publish(ctx context.Context, entry LogEntry) error

	// PublishBatch sends multiple log entries in a single operation.
	PublishBatch(ctx context.Context, entries []LogEntry) error

	// Flush forces immediate publication of any buffered log entries.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
