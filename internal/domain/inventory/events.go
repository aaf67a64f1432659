package inventory

import (
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants for the inventory context
const (
	EventStockReserved        = "inventory.stock_reserved"
	EventReservationReleased  = "inventory.reservation_released"
	EventReservationCommitted = "inventory.reservation_committed"
	EventReservationExpired   = "inventory.reservation_expired"
)

// StockReservedEvent is emitted when stock is claimed by a reservation
type StockReservedEvent struct {
	shared.BaseDomainEvent
	VariantID     uuid.UUID `json:"variant_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Quantity      int64     `json:"quantity"`
	Available     int64     `json:"available"`
}

// NewStockReservedEvent creates a StockReservedEvent
func NewStockReservedEvent(s *VariantStock, r *Reservation) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventStockReserved, "VariantStock", s.ID),
		VariantID:       s.VariantID,
		ReservationID:   r.ID,
		Quantity:        r.Quantity,
		Available:       s.Available(),
	}
}

// ReservationReleasedEvent is emitted when a reservation returns stock to the pool
type ReservationReleasedEvent struct {
	shared.BaseDomainEvent
	VariantID     uuid.UUID `json:"variant_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Quantity      int64     `json:"quantity"`
}

// NewReservationReleasedEvent creates a ReservationReleasedEvent
func NewReservationReleasedEvent(s *VariantStock, r *Reservation) *ReservationReleasedEvent {
	return &ReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReservationReleased, "VariantStock", s.ID),
		VariantID:       s.VariantID,
		ReservationID:   r.ID,
		Quantity:        r.Quantity,
	}
}

// ReservationCommittedEvent is emitted when a reservation becomes a permanent deduction
type ReservationCommittedEvent struct {
	shared.BaseDomainEvent
	VariantID     uuid.UUID `json:"variant_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Quantity      int64     `json:"quantity"`
	OnHand        int64     `json:"on_hand"`
}

// NewReservationCommittedEvent creates a ReservationCommittedEvent
func NewReservationCommittedEvent(s *VariantStock, r *Reservation) *ReservationCommittedEvent {
	return &ReservationCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReservationCommitted, "VariantStock", s.ID),
		VariantID:       s.VariantID,
		ReservationID:   r.ID,
		Quantity:        r.Quantity,
		OnHand:          s.OnHand,
	}
}

// ReservationExpiredEvent is emitted by the sweep when a TTL'd reservation is reclaimed
type ReservationExpiredEvent struct {
	shared.BaseDomainEvent
	VariantID     uuid.UUID  `json:"variant_id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Quantity      int64      `json:"quantity"`
	HolderType    HolderType `json:"holder_type"`
	HolderID      uuid.UUID  `json:"holder_id"`
}

// NewReservationExpiredEvent creates a ReservationExpiredEvent
func NewReservationExpiredEvent(r *Reservation) *ReservationExpiredEvent {
	return &ReservationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReservationExpired, "Reservation", r.ID),
		VariantID:       r.VariantID,
		ReservationID:   r.ID,
		Quantity:        r.Quantity,
		HolderType:      r.HolderType,
		HolderID:        r.HolderID,
	}
}
