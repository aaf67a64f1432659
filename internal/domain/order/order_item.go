package order

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentStatus tracks how far along a single order item is. Vendors
// fulfill independently, so each item carries its own status while the order
// keeps the overall picture.
type FulfillmentStatus string

const (
	FulfillmentPending     FulfillmentStatus = "pending"
	FulfillmentProcessing  FulfillmentStatus = "processing"
	FulfillmentReadyToShip FulfillmentStatus = "ready_to_ship"
	FulfillmentShipped     FulfillmentStatus = "shipped"
	FulfillmentDelivered   FulfillmentStatus = "delivered"
	FulfillmentCancelled   FulfillmentStatus = "cancelled"
)

// CanTransitionTo checks if a fulfillment status transition is valid
func (s FulfillmentStatus) CanTransitionTo(target FulfillmentStatus) bool {
	transitions := map[FulfillmentStatus][]FulfillmentStatus{
		FulfillmentPending:     {FulfillmentProcessing, FulfillmentCancelled},
		FulfillmentProcessing:  {FulfillmentReadyToShip, FulfillmentCancelled},
		FulfillmentReadyToShip: {FulfillmentShipped, FulfillmentCancelled},
		FulfillmentShipped:     {FulfillmentDelivered},
		FulfillmentDelivered:   {},
		FulfillmentCancelled:   {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsShippedOrLater reports whether stock for this item has already left the
// warehouse, which decides whether a cancellation restores it.
func (s FulfillmentStatus) IsShippedOrLater() bool {
	return s == FulfillmentShipped || s == FulfillmentDelivered
}

// OrderItem is one vendor's line within an order. Product name, price and
// commission rate are snapshots taken at order time so later catalog or
// vendor changes never alter a placed order.
type OrderItem struct {
	shared.BaseEntity
	OrderID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	VendorID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	VariantID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName       string            `gorm:"type:varchar(200);not null"`
	VariantName       string            `gorm:"type:varchar(200)"`
	Quantity          int64             `gorm:"not null"`
	UnitPrice         valueobject.Money `gorm:"type:bigint;not null"`
	Subtotal          valueobject.Money `gorm:"type:bigint;not null"`
	DiscountShare     valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxShare          valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Total             valueobject.Money `gorm:"type:bigint;not null"`
	CommissionRate    decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	FulfillmentStatus FulfillmentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// UpdateFulfillment moves the item along its fulfillment lifecycle
func (i *OrderItem) UpdateFulfillment(target FulfillmentStatus) error {
	if !i.FulfillmentStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			"Cannot move item from "+string(i.FulfillmentStatus)+" to "+string(target))
	}
	now := time.Now().UTC()
	i.FulfillmentStatus = target
	switch target {
	case FulfillmentShipped:
		i.ShippedAt = &now
	case FulfillmentDelivered:
		i.DeliveredAt = &now
	}
	i.UpdatedAt = now
	return nil
}
