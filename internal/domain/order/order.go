package order

import (
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents the overall lifecycle state of an order
type OrderStatus string

const (
	StatusPending           OrderStatus = "pending"
	StatusConfirmed         OrderStatus = "confirmed"
	StatusProcessing        OrderStatus = "processing"
	StatusReadyToShip       OrderStatus = "ready_to_ship"
	StatusShipped           OrderStatus = "shipped"
	StatusDelivered         OrderStatus = "delivered"
	StatusCancelled         OrderStatus = "cancelled"
	StatusRefunded          OrderStatus = "refunded"
	StatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// CanTransitionTo checks if a status transition is valid. Refund states are
// guarded separately because they also require the order to have been paid.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		StatusPending:           {StatusConfirmed, StatusCancelled},
		StatusConfirmed:         {StatusProcessing, StatusCancelled, StatusRefunded, StatusPartiallyRefunded},
		StatusProcessing:        {StatusReadyToShip, StatusCancelled, StatusRefunded, StatusPartiallyRefunded},
		StatusReadyToShip:       {StatusShipped, StatusRefunded, StatusPartiallyRefunded},
		StatusShipped:           {StatusDelivered, StatusRefunded, StatusPartiallyRefunded},
		StatusDelivered:         {StatusRefunded, StatusPartiallyRefunded},
		StatusPartiallyRefunded: {StatusRefunded},
		StatusCancelled:         {},
		StatusRefunded:          {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsCancellable reports whether the order may still be cancelled outright
func (s OrderStatus) IsCancellable() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusProcessing
}

// PaymentStatus is the independent payment axis of an order
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
)

// PaymentMethod identifies how an order is settled
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCod  PaymentMethod = "cod"
)

// Address is a point-in-time snapshot embedded on the order. Orders keep
// their own copy so later address-book edits never change a placed order.
type Address struct {
	Name       string `gorm:"type:varchar(100)"`
	Line1      string `gorm:"type:varchar(200)"`
	Line2      string `gorm:"type:varchar(200)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(2)"`
	Phone      string `gorm:"type:varchar(30)"`
}

// IsValid checks the fields required to ship an order
func (a Address) IsValid() bool {
	return a.Name != "" && a.Line1 != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

// Order is the central aggregate of the settlement pipeline. It is created
// atomically with its items at checkout and afterwards only its status
// fields mutate; every transition appends a StatusEntry audit row.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string  `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          *uuid.UUID `gorm:"type:uuid;index"`
	CustomerEmail   string  `gorm:"type:varchar(200);not null"`
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_"`

	CouponCode     *string           `gorm:"type:varchar(50)"`
	Subtotal       valueobject.Money `gorm:"type:bigint;not null"`
	Discount       valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Tax            valueobject.Money `gorm:"type:bigint;not null;default:0"`
	ShippingCost   valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Total          valueobject.Money `gorm:"type:bigint;not null"`
	RefundedAmount valueobject.Money `gorm:"type:bigint;not null;default:0"`

	Status        OrderStatus   `gorm:"type:varchar(30);not null;default:'pending';index"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(30);not null;default:'unpaid';index"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentRef    string        `gorm:"type:varchar(100)"`
	PaidAt        *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time

	// COD tracking, only meaningful when PaymentMethod == cod
	CodVerificationRequired bool              `gorm:"not null;default:false"`
	CodFee                  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	CodAmountCollected      valueobject.Money `gorm:"type:bigint;not null;default:0"`
	CodCollectedAt          *time.Time        `gorm:"index"`
	CodCollectedBy          *uuid.UUID        `gorm:"type:uuid;index"`
	DeliveryPersonID        *uuid.UUID        `gorm:"type:uuid;index"`

	Items         []OrderItem   `gorm:"foreignKey:OrderID"`
	StatusHistory []StatusEntry `gorm:"foreignKey:OrderID"`
	HistorySeq    int           `gorm:"not null;default:0"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrderParams carries everything needed to create an order atomically
// with its items
type NewOrderParams struct {
	OrderNumber     string
	UserID          *uuid.UUID
	CustomerEmail   string
	ShippingAddress Address
	BillingAddress  Address
	CouponCode      *string
	Subtotal        valueobject.Money
	Discount        valueobject.Money
	Tax             valueobject.Money
	ShippingCost    valueobject.Money
	CodFee          valueobject.Money
	PaymentMethod   PaymentMethod
	Items           []OrderItem
}

// NewOrder creates an order in pending status with its first audit row.
// Total = subtotal - discount + tax + shipping (+ COD fee for COD orders).
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.OrderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number is required")
	}
	if len(p.Items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if !p.ShippingAddress.IsValid() {
		return nil, shared.ErrInvalidAddress
	}
	if p.PaymentMethod != PaymentMethodCard && p.PaymentMethod != PaymentMethodCod {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}

	afterDiscount, err := p.Subtotal.SubtractNonNegative(p.Discount)
	if err != nil {
		return nil, err
	}
	total := afterDiscount.Add(p.Tax).Add(p.ShippingCost)
	if p.PaymentMethod == PaymentMethodCod {
		total = total.Add(p.CodFee)
	}

	o := &Order{
		BaseAggregateRoot:       shared.NewBaseAggregateRoot(),
		OrderNumber:             p.OrderNumber,
		UserID:                  p.UserID,
		CustomerEmail:           p.CustomerEmail,
		ShippingAddress:         p.ShippingAddress,
		BillingAddress:          p.BillingAddress,
		CouponCode:              p.CouponCode,
		Subtotal:                p.Subtotal,
		Discount:                p.Discount,
		Tax:                     p.Tax,
		ShippingCost:            p.ShippingCost,
		CodFee:                  p.CodFee,
		Total:                   total,
		Status:                  StatusPending,
		PaymentStatus:           PaymentUnpaid,
		PaymentMethod:           p.PaymentMethod,
		CodVerificationRequired: p.PaymentMethod == PaymentMethodCod,
		Items:                   p.Items,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if o.Items[i].FulfillmentStatus == "" {
			o.Items[i].FulfillmentStatus = FulfillmentPending
		}
	}
	o.appendHistory(StatusPending, "system", "Order created")
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

func (o *Order) appendHistory(status OrderStatus, actor, comment string) {
	o.HistorySeq++
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		Sequence:   o.HistorySeq,
		Status:     status,
		Actor:      actor,
		Comment:    comment,
		At:         time.Now().UTC(),
	})
}

// TransitionTo moves the order to the target status, appending an audit row
// and emitting a status-changed event
func (o *Order) TransitionTo(target OrderStatus, actor, comment string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	from := o.Status
	now := time.Now().UTC()
	o.Status = target
	if target == StatusDelivered {
		o.DeliveredAt = &now
	}
	o.appendHistory(target, actor, comment)
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target, actor))
	if target == StatusDelivered {
		o.AddDomainEvent(NewOrderDeliveredEvent(o))
	}
	return nil
}

// Cancel cancels the order. Only pending, confirmed and processing orders
// can be cancelled; the caller releases reservations and refunds payment
// based on the emitted event.
func (o *Order) Cancel(actor, reason string) error {
	if !o.Status.IsCancellable() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot cancel order in status %s", o.Status))
	}
	now := time.Now().UTC()
	from := o.Status
	restore := make([]RestoreLine, 0, len(o.Items))
	for i := range o.Items {
		if !o.Items[i].FulfillmentStatus.IsShippedOrLater() {
			restore = append(restore, RestoreLine{
				VariantID: o.Items[i].VariantID,
				Quantity:  o.Items[i].Quantity,
			})
		}
	}
	o.Status = StatusCancelled
	o.CancelledAt = &now
	for i := range o.Items {
		if !o.Items[i].FulfillmentStatus.IsShippedOrLater() && o.Items[i].FulfillmentStatus != FulfillmentCancelled {
			o.Items[i].FulfillmentStatus = FulfillmentCancelled
			o.Items[i].UpdatedAt = now
		}
	}
	o.appendHistory(StatusCancelled, actor, reason)
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCancelledEvent(o, from, reason, o.PaymentStatus == PaymentPaid, restore))
	return nil
}

// MarkPaid records a successful payment capture
func (o *Order) MarkPaid(paymentRef string) error {
	if o.PaymentStatus != PaymentUnpaid {
		return shared.NewDomainError("INVALID_PAYMENT_STATE", "Order is already paid")
	}
	now := time.Now().UTC()
	o.PaymentStatus = PaymentPaid
	o.PaymentRef = paymentRef
	o.PaidAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// MarkCodCollected records cash collection by a delivery agent. It is
// idempotent-guarded: returns false without error when the order is not COD
// or the cash was already recorded, so retried delivery-app calls are safe.
func (o *Order) MarkCodCollected(amount valueobject.Money, collectedBy uuid.UUID) bool {
	if o.PaymentMethod != PaymentMethodCod {
		return false
	}
	if o.CodCollectedAt != nil {
		return false
	}
	now := time.Now().UTC()
	o.CodAmountCollected = amount
	o.CodCollectedAt = &now
	o.CodCollectedBy = &collectedBy
	o.CodVerificationRequired = false
	o.PaymentStatus = PaymentPaid
	o.PaidAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewCodCollectedEvent(o, amount, collectedBy))
	return true
}

// AssignDeliveryPerson sets the agent responsible for a COD delivery
func (o *Order) AssignDeliveryPerson(agentID uuid.UUID) {
	o.DeliveryPersonID = &agentID
	o.UpdatedAt = time.Now().UTC()
}

// RemainingRefundable returns how much of the paid total is still refundable
func (o *Order) RemainingRefundable() valueobject.Money {
	remaining, err := o.Total.SubtractNonNegative(o.RefundedAmount)
	if err != nil {
		return valueobject.Zero()
	}
	return remaining
}

// Refund refunds part or all of the order. A refund covering the full
// remaining amount moves both axes to refunded; anything less marks them
// partially refunded.
func (o *Order) Refund(amount valueobject.Money, actor, reason string) error {
	if o.PaymentStatus != PaymentPaid && o.PaymentStatus != PaymentPartiallyRefunded {
		return shared.NewDomainError("INVALID_PAYMENT_STATE", "Only paid orders can be refunded")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	remaining := o.RemainingRefundable()
	if amount.GreaterThan(remaining) {
		return shared.NewDomainError("REFUND_EXCEEDS_TOTAL", "Refund amount exceeds refundable balance")
	}

	full := amount.Equals(remaining)
	target := StatusPartiallyRefunded
	if full {
		target = StatusRefunded
	}
	// cancelled orders keep their status; the refund moves the payment axis only
	moveStatus := o.Status != StatusCancelled
	if moveStatus && o.Status != target && !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot refund order in status %s", o.Status))
	}

	now := time.Now().UTC()
	o.RefundedAmount = o.RefundedAmount.Add(amount)
	if full {
		o.PaymentStatus = PaymentRefunded
	} else {
		o.PaymentStatus = PaymentPartiallyRefunded
	}
	if moveStatus && o.Status != target {
		o.Status = target
	}
	o.appendHistory(o.Status, actor, reason)
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderRefundedEvent(o, amount, full))
	return nil
}

// UpdateItemFulfillment moves one item along its fulfillment lifecycle and
// rolls the aggregate status forward when every active item has reached the
// same milestone.
func (o *Order) UpdateItemFulfillment(itemID uuid.UUID, target FulfillmentStatus, actor string) error {
	var item *OrderItem
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			item = &o.Items[i]
			break
		}
	}
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}
	if err := item.UpdateFulfillment(target); err != nil {
		return err
	}
	o.UpdatedAt = time.Now().UTC()
	o.syncStatusFromItems(actor)
	return nil
}

// syncStatusFromItems advances the order status when all non-cancelled items
// agree on a milestone
func (o *Order) syncStatusFromItems(actor string) {
	milestones := []struct {
		item  FulfillmentStatus
		order OrderStatus
	}{
		{FulfillmentDelivered, StatusDelivered},
		{FulfillmentShipped, StatusShipped},
		{FulfillmentReadyToShip, StatusReadyToShip},
	}
	for _, m := range milestones {
		if o.allActiveItemsReached(m.item) {
			if o.Status != m.order && o.Status.CanTransitionTo(m.order) {
				// errors cannot occur here, transition was just validated
				_ = o.TransitionTo(m.order, actor, "All items "+string(m.item))
			}
			return
		}
	}
}

func (o *Order) allActiveItemsReached(target FulfillmentStatus) bool {
	rank := map[FulfillmentStatus]int{
		FulfillmentPending:     0,
		FulfillmentProcessing:  1,
		FulfillmentReadyToShip: 2,
		FulfillmentShipped:     3,
		FulfillmentDelivered:   4,
	}
	active := 0
	for i := range o.Items {
		if o.Items[i].FulfillmentStatus == FulfillmentCancelled {
			continue
		}
		active++
		if rank[o.Items[i].FulfillmentStatus] < rank[target] {
			return false
		}
	}
	return active > 0
}

// ItemsForVendor returns the order items belonging to one vendor
func (o *Order) ItemsForVendor(vendorID uuid.UUID) []OrderItem {
	var items []OrderItem
	for i := range o.Items {
		if o.Items[i].VendorID == vendorID {
			items = append(items, o.Items[i])
		}
	}
	return items
}

// UnshippedItems returns items whose stock has not left the warehouse,
// used to restore inventory on cancellation
func (o *Order) UnshippedItems() []OrderItem {
	var items []OrderItem
	for i := range o.Items {
		if !o.Items[i].FulfillmentStatus.IsShippedOrLater() {
			items = append(items, o.Items[i])
		}
	}
	return items
}

// IsCod reports whether this order settles by cash on delivery
func (o *Order) IsCod() bool {
	return o.PaymentMethod == PaymentMethodCod
}
