// Package events emits entry lifecycle events after mutations commit
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// EventType names an entry lifecycle transition
type EventType string

const (
	EventTypeEntryCreated EventType = "entry.created"
	EventTypeEntryUpdated EventType = "entry.updated"
)

type entryPublisher interface {
	PublishEntryEvent(ctx context.Context, event *kafka.EntryEvent) error
}

// Emitter publishes lifecycle events. Emission failures are logged and
// reported but must not roll back the committed mutation, so callers treat
// the returned error as advisory.
type Emitter struct {
	producer entryPublisher
	logger   ectologger.Logger
}

func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitEntryCreated emits an entry created event
func (e *Emitter) EmitEntryCreated(ctx context.Context, entryType, uid, uniqueName string, actor models.Actor, data models.Entry) error {
	return e.emit(ctx, EventTypeEntryCreated, entryType, uid, uniqueName, actor, data)
}

// EmitEntryUpdated emits an entry updated event
func (e *Emitter) EmitEntryUpdated(ctx context.Context, entryType, uid string, actor models.Actor, data models.Entry) error {
	return e.emit(ctx, EventTypeEntryUpdated, entryType, uid, "", actor, data)
}

func (e *Emitter) emit(ctx context.Context, eventType EventType, entryType, uid, uniqueName string, actor models.Actor, data models.Entry) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	var payload json.RawMessage
	if data != nil {
		var err error
		if payload, err = json.Marshal(data); err != nil {
			// The event still goes out with its identifying fields; only
			// the data snapshot is lost.
			e.logger.WithContext(ctx).WithError(err).Errorf("Failed to marshal %s event data for %s", eventType, uid)
			payload = nil
		}
	}

	event := &kafka.EntryEvent{
		Version:    SchemaVersion,
		EventType:  string(eventType),
		EntryID:    uid,
		EntryType:  entryType,
		UniqueName: uniqueName,
		ActorUID:   actor.UID,
		Data:       payload,
	}
	if err := e.producer.PublishEntryEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}
	return nil
}
