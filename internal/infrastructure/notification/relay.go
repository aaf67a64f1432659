package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bazaar/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventRelay subscribes to the event bus and forwards every domain event
// to the configured sinks. A failing sink is logged and does not block
// the others; delivery is best-effort by design of the in-process bus.
type EventRelay struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewEventRelay creates a relay over the given sinks.
func NewEventRelay(logger *zap.Logger, sinks ...Sink) *EventRelay {
	return &EventRelay{
		sinks:  sinks,
		logger: logger,
	}
}

// Handle serializes the event once and fans it out to all sinks.
func (r *EventRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
	}

	envelope := Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}

	for _, sink := range r.sinks {
		if err := sink.Deliver(ctx, envelope); err != nil {
			r.logger.Error("event delivery failed",
				zap.String("event_type", envelope.EventType),
				zap.String("event_id", envelope.EventID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// EventTypes returns nil so the relay receives every event type.
func (r *EventRelay) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*EventRelay)(nil)
