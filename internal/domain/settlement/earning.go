package settlement

import (
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// EarningStatus is the ledger state of a vendor earning
type EarningStatus string

const (
	// EarningPending waits out the refund holdback window
	EarningPending EarningStatus = "pending"
	// EarningAvailable is eligible for the next payout batch
	EarningAvailable EarningStatus = "available"
	// EarningWithheld is frozen because of a refund or dispute and will be
	// netted against a future payout
	EarningWithheld EarningStatus = "withheld"
	// EarningHeldForPayout is claimed by a payout batch in flight
	EarningHeldForPayout EarningStatus = "held_for_payout"
	// EarningPaid was settled by a completed payout
	EarningPaid EarningStatus = "paid"
)

// CanTransitionTo checks if an earning status transition is valid
func (s EarningStatus) CanTransitionTo(target EarningStatus) bool {
	transitions := map[EarningStatus][]EarningStatus{
		EarningPending:       {EarningAvailable, EarningWithheld},
		EarningAvailable:     {EarningHeldForPayout, EarningWithheld},
		EarningHeldForPayout: {EarningPaid, EarningAvailable, EarningWithheld},
		EarningWithheld:      {EarningAvailable},
		EarningPaid:          {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Earning is one vendor's net revenue from one order, held back for a
// configurable window after delivery before it can be paid out. Amount is
// the gross item revenue, CommissionAmount the platform cut, Net what the
// vendor ultimately receives. AvailableAt stays nil until the order is
// delivered, when the holdback clock starts.
type Earning struct {
	shared.BaseAggregateRoot
	VendorID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount           valueobject.Money `gorm:"type:bigint;not null"`
	CommissionAmount valueobject.Money `gorm:"type:bigint;not null"`
	Net              valueobject.Money `gorm:"type:bigint;not null"`
	Status           EarningStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	AvailableAt      *time.Time        `gorm:"index"`
	PayoutID         *uuid.UUID        `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Earning) TableName() string {
	return "vendor_earnings"
}

// NewEarning creates a pending earning for a vendor's share of an order
func NewEarning(vendorID, orderID uuid.UUID, amount, commission valueobject.Money) (*Earning, error) {
	net, err := amount.SubtractNonNegative(commission)
	if err != nil {
		return nil, err
	}
	e := &Earning{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorID:          vendorID,
		OrderID:           orderID,
		Amount:            amount,
		CommissionAmount:  commission,
		Net:               net,
		Status:            EarningPending,
	}
	e.AddDomainEvent(NewEarningCreatedEvent(e))
	return e, nil
}

// ScheduleAvailability starts the holdback clock once the order is
// delivered: availableAt is the delivery date plus the configured holdback
func (e *Earning) ScheduleAvailability(availableAt time.Time) error {
	if e.Status != EarningPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending earnings can be scheduled")
	}
	at := availableAt.UTC()
	e.AvailableAt = &at
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// transition moves the earning along its lifecycle, guarding the state machine
func (e *Earning) transition(target EarningStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot move earning from %s to %s", e.Status, target))
	}
	e.Status = target
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Promote makes a pending earning available once its holdback has passed
func (e *Earning) Promote(now time.Time) error {
	if e.AvailableAt == nil || now.Before(*e.AvailableAt) {
		return shared.NewDomainError("HOLDBACK_ACTIVE", "Earning holdback has not elapsed")
	}
	if err := e.transition(EarningAvailable); err != nil {
		return err
	}
	e.AddDomainEvent(NewEarningPromotedEvent(e))
	return nil
}

// Withhold freezes the earning over a refund or dispute. Already-paid
// earnings cannot be withheld; the payout engine nets them instead.
func (e *Earning) Withhold(reason string) error {
	if err := e.transition(EarningWithheld); err != nil {
		return err
	}
	// Withholding pulls the earning out of any pending payout batch.
	e.PayoutID = nil
	e.AddDomainEvent(NewEarningWithheldEvent(e, reason))
	return nil
}

// ReleaseWithheld returns a withheld earning to available once the dispute
// resolves in the vendor's favor
func (e *Earning) ReleaseWithheld() error {
	return e.transition(EarningAvailable)
}

// HoldForPayout claims the earning for a payout batch
func (e *Earning) HoldForPayout(payoutID uuid.UUID) error {
	if err := e.transition(EarningHeldForPayout); err != nil {
		return err
	}
	e.PayoutID = &payoutID
	return nil
}

// MarkPaid settles the earning after its payout completes
func (e *Earning) MarkPaid() error {
	return e.transition(EarningPaid)
}

// ReleaseFromPayout frees the earning after its payout failed or was
// cancelled so it can be picked up by the next batch
func (e *Earning) ReleaseFromPayout() error {
	if err := e.transition(EarningAvailable); err != nil {
		return err
	}
	e.PayoutID = nil
	return nil
}

// AdjustForRefund reduces a not-yet-promoted earning by the vendor's share
// of a refund. Refunding the full amount zeroes the earning. Promoted
// earnings go through Withhold instead so they can be netted later.
func (e *Earning) AdjustForRefund(refundNet valueobject.Money) error {
	if e.Status != EarningPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending earnings can be adjusted in place")
	}
	if refundNet.GreaterThan(e.Net) {
		refundNet = e.Net
	}
	newNet, err := e.Net.SubtractNonNegative(refundNet)
	if err != nil {
		return err
	}
	e.Net = newNet
	e.UpdatedAt = time.Now().UTC()
	e.AddDomainEvent(NewEarningAdjustedEvent(e, refundNet))
	return nil
}
