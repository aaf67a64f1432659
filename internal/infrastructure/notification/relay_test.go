package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/infrastructure/notification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSink struct {
	envelopes []notification.Envelope
	err       error
}

func (s *captureSink) Deliver(_ context.Context, envelope notification.Envelope) error {
	if s.err != nil {
		return s.err
	}
	s.envelopes = append(s.envelopes, envelope)
	return nil
}

type stockEvent struct {
	shared.BaseDomainEvent
	Quantity int64 `json:"quantity"`
}

func newStockEvent(aggID uuid.UUID, qty int64) *stockEvent {
	return &stockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("inventory.reserved", "VariantStock", aggID),
		Quantity:        qty,
	}
}

func TestEventRelay_DeliversEnvelopeToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	relay := notification.NewEventRelay(zap.NewNop(), first, second)

	aggID := uuid.New()
	event := newStockEvent(aggID, 5)
	require.NoError(t, relay.Handle(context.Background(), event))

	require.Len(t, first.envelopes, 1)
	require.Len(t, second.envelopes, 1)

	env := first.envelopes[0]
	assert.Equal(t, "inventory.reserved", env.EventType)
	assert.Equal(t, aggID, env.AggregateID)
	assert.Equal(t, "VariantStock", env.AggregateType)
	assert.Equal(t, event.EventID(), env.EventID)

	var decoded stockEvent
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, int64(5), decoded.Quantity)
}

func TestEventRelay_FailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := &captureSink{err: errors.New("broker down")}
	healthy := &captureSink{}
	relay := notification.NewEventRelay(zap.NewNop(), failing, healthy)

	require.NoError(t, relay.Handle(context.Background(), newStockEvent(uuid.New(), 1)))
	assert.Len(t, healthy.envelopes, 1)
}

func TestEventRelay_SubscribesToAllTypes(t *testing.T) {
	relay := notification.NewEventRelay(zap.NewNop())
	assert.Nil(t, relay.EventTypes())
}
