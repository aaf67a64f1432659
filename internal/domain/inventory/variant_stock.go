package inventory

import (
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VariantStock is the aggregate root for a product variant's stock ledger.
// OnHand is the physical quantity; Reserved is the sum of active reservation
// quantities. Available stock is OnHand - Reserved and must never go
// negative under any interleaving of checkouts.
type VariantStock struct {
	shared.BaseAggregateRoot
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	VendorID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OnHand    int64     `gorm:"not null;default:0"`
	Reserved  int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (VariantStock) TableName() string {
	return "variant_stocks"
}

// NewVariantStock creates a stock ledger row for a variant
func NewVariantStock(variantID, vendorID uuid.UUID, onHand int64) (*VariantStock, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if onHand < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial stock cannot be negative")
	}
	return &VariantStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VariantID:         variantID,
		VendorID:          vendorID,
		OnHand:            onHand,
	}, nil
}

// Available returns the quantity not claimed by active reservations
func (s *VariantStock) Available() int64 {
	return s.OnHand - s.Reserved
}

// CanFulfill returns true if the available stock covers the quantity
func (s *VariantStock) CanFulfill(qty int64) bool {
	return qty > 0 && s.Available() >= qty
}

// Reserve claims stock for a holder and returns the reservation. The caller
// persists both the aggregate (with optimistic lock) and the reservation in
// one transaction; the conditional-update path in the repository is the
// equivalent hot-path guard.
func (s *VariantStock) Reserve(qty int64, holderType HolderType, holderID uuid.UUID, expireAt time.Time) (*Reservation, error) {
	if qty <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if !s.CanFulfill(qty) {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock: available=%d, requested=%d", s.Available(), qty))
	}

	res := NewReservation(s.ID, s.VariantID, qty, holderType, holderID, expireAt)
	s.Reserved += qty
	s.IncrementVersion()
	s.UpdatedAt = time.Now().UTC()

	s.AddDomainEvent(NewStockReservedEvent(s, res))
	return res, nil
}

// Release returns a reservation's quantity to the available pool.
// Releasing an already released or committed reservation is a no-op.
func (s *VariantStock) Release(res *Reservation) {
	if !res.IsActive() {
		return
	}
	res.Release()
	s.Reserved -= res.Quantity
	if s.Reserved < 0 {
		s.Reserved = 0
	}
	s.IncrementVersion()
	s.UpdatedAt = time.Now().UTC()

	s.AddDomainEvent(NewReservationReleasedEvent(s, res))
}

// Commit converts a reservation into a permanent deduction: on-hand stock
// decreases and the reservation is consumed. Must run inside the same
// transaction as order-item creation.
func (s *VariantStock) Commit(res *Reservation) error {
	if !res.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Reservation is no longer active")
	}
	if s.OnHand < res.Quantity || s.Reserved < res.Quantity {
		return shared.NewDomainError("INVARIANT_VIOLATION",
			fmt.Sprintf("Stock ledger out of balance for variant %s: on_hand=%d reserved=%d commit=%d",
				s.VariantID, s.OnHand, s.Reserved, res.Quantity))
	}

	res.Commit()
	s.OnHand -= res.Quantity
	s.Reserved -= res.Quantity
	s.IncrementVersion()
	s.UpdatedAt = time.Now().UTC()

	s.AddDomainEvent(NewReservationCommittedEvent(s, res))
	return nil
}

// Restock returns quantity to on-hand stock (cancellation of unshipped
// items, refunds of unshipped units)
func (s *VariantStock) Restock(qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	s.OnHand += qty
	s.IncrementVersion()
	s.UpdatedAt = time.Now().UTC()
	return nil
}
