package settlement

import (
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const (
	EventTypeEarningCreated         = "settlement.earning_created"
	EventTypeEarningPromoted        = "settlement.earning_promoted"
	EventTypeEarningWithheld        = "settlement.earning_withheld"
	EventTypeEarningAdjusted        = "settlement.earning_adjusted"
	EventTypePayoutCreated          = "settlement.payout_created"
	EventTypePayoutCompleted        = "settlement.payout_completed"
	EventTypePayoutFailed           = "settlement.payout_failed"
	EventTypePayoutCancelled        = "settlement.payout_cancelled"
	EventTypeReconciliationCreated  = "settlement.reconciliation_created"
	EventTypeReconciliationVerified = "settlement.reconciliation_verified"
	EventTypeReconciliationDisputed = "settlement.reconciliation_disputed"
)

// EarningCreatedEvent fires when a vendor earning enters the ledger
type EarningCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
	OrderID  uuid.UUID
	Net      valueobject.Money
}

// NewEarningCreatedEvent creates an earning created event
func NewEarningCreatedEvent(e *Earning) *EarningCreatedEvent {
	return &EarningCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningCreated, "Earning", e.ID),
		VendorID:        e.VendorID,
		OrderID:         e.OrderID,
		Net:             e.Net,
	}
}

// EarningPromotedEvent fires when a pending earning becomes available
type EarningPromotedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
	Net      valueobject.Money
}

// NewEarningPromotedEvent creates an earning promoted event
func NewEarningPromotedEvent(e *Earning) *EarningPromotedEvent {
	return &EarningPromotedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningPromoted, "Earning", e.ID),
		VendorID:        e.VendorID,
		Net:             e.Net,
	}
}

// EarningWithheldEvent fires when an earning is frozen over a refund or dispute
type EarningWithheldEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
	Reason   string
}

// NewEarningWithheldEvent creates an earning withheld event
func NewEarningWithheldEvent(e *Earning, reason string) *EarningWithheldEvent {
	return &EarningWithheldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningWithheld, "Earning", e.ID),
		VendorID:        e.VendorID,
		Reason:          reason,
	}
}

// EarningAdjustedEvent fires when a pending earning is reduced by a refund
type EarningAdjustedEvent struct {
	shared.BaseDomainEvent
	VendorID  uuid.UUID
	Reduction valueobject.Money
	NewNet    valueobject.Money
}

// NewEarningAdjustedEvent creates an earning adjusted event
func NewEarningAdjustedEvent(e *Earning, reduction valueobject.Money) *EarningAdjustedEvent {
	return &EarningAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningAdjusted, "Earning", e.ID),
		VendorID:        e.VendorID,
		Reduction:       reduction,
		NewNet:          e.Net,
	}
}

// PayoutCreatedEvent fires when a payout batch is assembled
type PayoutCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID   uuid.UUID
	ItemsCount int
	Net        valueobject.Money
}

// NewPayoutCreatedEvent creates a payout created event
func NewPayoutCreatedEvent(p *Payout) *PayoutCreatedEvent {
	return &PayoutCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutCreated, "Payout", p.ID),
		VendorID:        p.VendorID,
		ItemsCount:      p.ItemsCount,
		Net:             p.Net,
	}
}

// PayoutCompletedEvent fires when a payout settles
type PayoutCompletedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
	Net      valueobject.Money
}

// NewPayoutCompletedEvent creates a payout completed event
func NewPayoutCompletedEvent(p *Payout) *PayoutCompletedEvent {
	return &PayoutCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutCompleted, "Payout", p.ID),
		VendorID:        p.VendorID,
		Net:             p.Net,
	}
}

// PayoutFailedEvent fires when a settlement attempt fails
type PayoutFailedEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
	Reason   string
}

// NewPayoutFailedEvent creates a payout failed event
func NewPayoutFailedEvent(p *Payout, reason string) *PayoutFailedEvent {
	return &PayoutFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutFailed, "Payout", p.ID),
		VendorID:        p.VendorID,
		Reason:          reason,
	}
}

// PayoutCancelledEvent fires when a payout is abandoned
type PayoutCancelledEvent struct {
	shared.BaseDomainEvent
	VendorID uuid.UUID
}

// NewPayoutCancelledEvent creates a payout cancelled event
func NewPayoutCancelledEvent(p *Payout) *PayoutCancelledEvent {
	return &PayoutCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutCancelled, "Payout", p.ID),
		VendorID:        p.VendorID,
	}
}

// ReconciliationCreatedEvent fires when a day's COD collections are aggregated
type ReconciliationCreatedEvent struct {
	shared.BaseDomainEvent
	DeliveryPersonID uuid.UUID
	Discrepancy      valueobject.Money
}

// NewReconciliationCreatedEvent creates a reconciliation created event
func NewReconciliationCreatedEvent(r *Reconciliation) *ReconciliationCreatedEvent {
	return &ReconciliationCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReconciliationCreated, "Reconciliation", r.ID),
		DeliveryPersonID: r.DeliveryPersonID,
		Discrepancy:      r.Discrepancy,
	}
}

// ReconciliationVerifiedEvent fires when a reconciliation is signed off
type ReconciliationVerifiedEvent struct {
	shared.BaseDomainEvent
	DeliveryPersonID uuid.UUID
	Discrepancy      valueobject.Money
}

// NewReconciliationVerifiedEvent creates a reconciliation verified event
func NewReconciliationVerifiedEvent(r *Reconciliation) *ReconciliationVerifiedEvent {
	return &ReconciliationVerifiedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReconciliationVerified, "Reconciliation", r.ID),
		DeliveryPersonID: r.DeliveryPersonID,
		Discrepancy:      r.Discrepancy,
	}
}

// ReconciliationDisputedEvent fires when a reconciliation goes to investigation
type ReconciliationDisputedEvent struct {
	shared.BaseDomainEvent
	DeliveryPersonID uuid.UUID
	Discrepancy      valueobject.Money
}

// NewReconciliationDisputedEvent creates a reconciliation disputed event
func NewReconciliationDisputedEvent(r *Reconciliation) *ReconciliationDisputedEvent {
	return &ReconciliationDisputedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReconciliationDisputed, "Reconciliation", r.ID),
		DeliveryPersonID: r.DeliveryPersonID,
		Discrepancy:      r.Discrepancy,
	}
}
