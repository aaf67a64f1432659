package inventory

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// HolderType identifies what kind of record holds a reservation
type HolderType string

const (
	HolderCartItem  HolderType = "cart_item"
	HolderOrderItem HolderType = "order_item"
)

// Reservation is a temporary claim on variant stock preventing oversell
// before an order is finalized. Cart-scoped reservations carry a TTL and are
// reclaimed by the sweep; at checkout the reservation is converted (not
// re-created) to an order-scoped one, and consumed on fulfillment commit.
type Reservation struct {
	shared.BaseEntity
	VariantStockID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Quantity       int64      `gorm:"not null"`
	HolderType     HolderType `gorm:"type:varchar(20);not null;index:idx_reservation_holder"`
	HolderID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_reservation_holder"`
	ExpiresAt      time.Time  `gorm:"not null;index"`
	Released       bool       `gorm:"not null;default:false"`
	Committed      bool       `gorm:"not null;default:false"`
	ClosedAt       *time.Time
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "inventory_reservations"
}

// NewReservation creates an active reservation
func NewReservation(variantStockID, variantID uuid.UUID, qty int64, holderType HolderType, holderID uuid.UUID, expiresAt time.Time) *Reservation {
	return &Reservation{
		BaseEntity:     shared.NewBaseEntity(),
		VariantStockID: variantStockID,
		VariantID:      variantID,
		Quantity:       qty,
		HolderType:     holderType,
		HolderID:       holderID,
		ExpiresAt:      expiresAt,
	}
}

// IsActive returns true if the reservation still claims stock
func (r *Reservation) IsActive() bool {
	return !r.Released && !r.Committed
}

// IsExpired returns true if the reservation has passed its TTL
func (r *Reservation) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Release marks the reservation as released (cart abandonment, cancellation)
func (r *Reservation) Release() {
	now := time.Now().UTC()
	r.Released = true
	r.ClosedAt = &now
	r.UpdatedAt = now
}

// Commit marks the reservation as consumed by a fulfillment commit
func (r *Reservation) Commit() {
	now := time.Now().UTC()
	r.Committed = true
	r.ClosedAt = &now
	r.UpdatedAt = now
}

// ConvertToOrderHolder re-points a cart-scoped reservation at an order item
// and extends its lifetime. The reservation row survives checkout; only the
// holder changes.
func (r *Reservation) ConvertToOrderHolder(orderItemID uuid.UUID, expiresAt time.Time) error {
	if !r.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot convert an inactive reservation")
	}
	if r.HolderType != HolderCartItem {
		return shared.NewDomainError("INVALID_STATE", "Only cart reservations can be converted")
	}
	r.HolderType = HolderOrderItem
	r.HolderID = orderItemID
	r.ExpiresAt = expiresAt
	r.UpdatedAt = time.Now().UTC()
	return nil
}
