package event

import (
	"context"
	"errors"
	"testing"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *captureHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *captureHandler) EventTypes() []string { return h.types }

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "test", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	orders := &captureHandler{types: []string{"order.confirmed"}}
	all := &captureHandler{}
	bus.Subscribe(orders)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(), testEvent("order.confirmed"), testEvent("payout.completed"))
	require.NoError(t, err)

	assert.Len(t, orders.received, 1)
	assert.Equal(t, "order.confirmed", orders.received[0].EventType())
	assert.Len(t, all.received, 2)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	h := &captureHandler{types: []string{"order.confirmed"}}
	bus.Subscribe(h, "earning.available")

	require.NoError(t, bus.Publish(context.Background(), testEvent("order.confirmed")))
	assert.Empty(t, h.received)

	require.NoError(t, bus.Publish(context.Background(), testEvent("earning.available")))
	assert.Len(t, h.received, 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &captureHandler{types: []string{"order.confirmed"}, err: errors.New("db down")}
	healthy := &captureHandler{types: []string{"order.confirmed"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), testEvent("order.confirmed"))
	require.NoError(t, err)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	panicking := &captureHandler{types: []string{"order.confirmed"}, panics: true}
	healthy := &captureHandler{types: []string{"order.confirmed"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), testEvent("order.confirmed"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	h := &captureHandler{types: []string{"order.confirmed"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), testEvent("order.confirmed")))
	assert.Empty(t, h.received)
}
