package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event handed to delivery sinks.
// Payload carries the full event JSON so consumers can decode the
// concrete type from EventType.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Sink delivers event envelopes to an external channel.
type Sink interface {
	Deliver(ctx context.Context, envelope Envelope) error
}
