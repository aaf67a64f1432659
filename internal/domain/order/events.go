package order

import (
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderCancelled     = "order.cancelled"
	EventTypeOrderPaid          = "order.paid"
	EventTypeOrderDelivered     = "order.delivered"
	EventTypeOrderRefunded      = "order.refunded"
	EventTypeCodCollected       = "order.cod_collected"
)

// OrderCreatedEvent fires when an order is placed at checkout
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string
	Total         valueobject.Money
	PaymentMethod PaymentMethod
	ItemCount     int
}

// NewOrderCreatedEvent creates an order created event
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		ItemCount:       len(o.Items),
	}
}

// OrderStatusChangedEvent fires on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	From        OrderStatus
	To          OrderStatus
	Actor       string
}

// NewOrderStatusChangedEvent creates a status changed event
func NewOrderStatusChangedEvent(o *Order, from, to OrderStatus, actor string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              to,
		Actor:           actor,
	}
}

// RestoreLine tells inventory how much stock a cancellation gives back
type RestoreLine struct {
	VariantID uuid.UUID
	Quantity  int64
}

// OrderCancelledEvent fires when an order is cancelled. RestoreLines lists
// the unshipped quantities whose stock must be returned.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string
	From         OrderStatus
	Reason       string
	RefundNeeded bool
	RestoreLines []RestoreLine
}

// NewOrderCancelledEvent creates an order cancelled event
func NewOrderCancelledEvent(o *Order, from OrderStatus, reason string, refundNeeded bool, restore []RestoreLine) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		From:            from,
		Reason:          reason,
		RefundNeeded:    refundNeeded,
		RestoreLines:    restore,
	}
}

// OrderPaidEvent fires when payment is captured
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	Total       valueobject.Money
	PaymentRef  string
}

// NewOrderPaidEvent creates an order paid event
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		Total:           o.Total,
		PaymentRef:      o.PaymentRef,
	}
}

// OrderDeliveredEvent fires when the whole order reaches delivered, which
// starts the earning holdback clock
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
}

// NewOrderDeliveredEvent creates an order delivered event
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
	}
}

// OrderRefundedEvent fires when a refund is issued, full or partial
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	Amount      valueobject.Money
	Full        bool
}

// NewOrderRefundedEvent creates an order refunded event
func NewOrderRefundedEvent(o *Order, amount valueobject.Money, full bool) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefunded, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		Amount:          amount,
		Full:            full,
	}
}

// CodCollectedEvent fires when a delivery agent records cash collection
type CodCollectedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	Amount      valueobject.Money
	CollectedBy uuid.UUID
}

// NewCodCollectedEvent creates a COD collected event
func NewCodCollectedEvent(o *Order, amount valueobject.Money, collectedBy uuid.UUID) *CodCollectedEvent {
	return &CodCollectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodCollected, "Order", o.ID),
		OrderNumber:     o.OrderNumber,
		Amount:          amount,
		CollectedBy:     collectedBy,
	}
}
