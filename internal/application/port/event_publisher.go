package port

import (
	"context"
)

// Subjects for console domain events.
const (
	SubjectReadingAppended    = "compressor.telemetry.reading"
	SubjectAnomalyActivated   = "compressor.anomaly.activated"
	SubjectAnomalyResolved    = "compressor.anomaly.resolved"
	SubjectConsoleReset       = "compressor.console.reset"
	SubjectDirectiveExecuted  = "compressor.directive.executed"
	SubjectNarrativeCompleted = "compressor.narrative.completed"
	SubjectHandoverGenerated  = "compressor.handover.generated"
)

// EventPublisher defines the interface for publishing events to a message broker
type EventPublisher interface {
	// PublishEvent publishes an event to the specified subject
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close closes the connection to the message broker
	Close() error
}
