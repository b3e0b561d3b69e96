// Package events handles event emission for import run lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/magnolia/pkg/kafka"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

// Emitter publishes import lifecycle events. Emission failures are logged
// and swallowed: events are advisory and must never fail an import run.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// ImportStarted emits an import.started event for the whole batch.
func (e *Emitter) ImportStarted(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ImportStarted")
	defer span.End()

	e.publish(ctx, &kafka.ImportEvent{EventType: "import.started"})
}

// ImportFinished emits an import.finished event with the batch outcome.
func (e *Emitter) ImportFinished(ctx context.Context, changed bool, failedModels []string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ImportFinished")
	defer span.End()

	e.publish(ctx, &kafka.ImportEvent{
		EventType:    "import.finished",
		Changed:      changed,
		FailedModels: failedModels,
	})
}

// ImportFailed emits an import.failed event when the batch could not run.
func (e *Emitter) ImportFailed(ctx context.Context, err error) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ImportFailed")
	defer span.End()

	e.publish(ctx, &kafka.ImportEvent{
		EventType:    "import.failed",
		ErrorMessage: err.Error(),
	})
}

func (e *Emitter) publish(ctx context.Context, event *kafka.ImportEvent) {
	if err := e.producer.PublishImportEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"event_type": event.EventType}).Error("Failed to emit import event")
	}
}
