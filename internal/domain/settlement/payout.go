package settlement

import (
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PayoutStatus is the lifecycle state of a payout batch
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
	PayoutCancelled  PayoutStatus = "cancelled"
)

// CanTransitionTo checks if a payout status transition is valid
func (s PayoutStatus) CanTransitionTo(target PayoutStatus) bool {
	transitions := map[PayoutStatus][]PayoutStatus{
		PayoutPending:    {PayoutProcessing, PayoutCancelled},
		PayoutProcessing: {PayoutCompleted, PayoutFailed},
		PayoutFailed:     {PayoutProcessing, PayoutCancelled},
		PayoutCompleted:  {},
		PayoutCancelled:  {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PayoutMethod identifies the rail the payout travels over
type PayoutMethod string

const (
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
	PayoutMethodStripe       PayoutMethod = "stripe"
)

// Payout is a batch settlement of a vendor's available earnings over a
// period. Amount is the gross sum of the held earnings' net amounts; Net is
// that minus the processing fee. The held earnings are released back to
// available if the payout fails or is cancelled.
type Payout struct {
	shared.BaseAggregateRoot
	VendorID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	PeriodStart   time.Time         `gorm:"not null"`
	PeriodEnd     time.Time         `gorm:"not null"`
	ItemsCount    int               `gorm:"not null"`
	Amount        valueobject.Money `gorm:"type:bigint;not null"`
	ProcessingFee valueobject.Money `gorm:"type:bigint;not null"`
	Net           valueobject.Money `gorm:"type:bigint;not null"`
	Status        PayoutStatus      `gorm:"type:varchar(20);not null;default:'pending';index"`
	Method        PayoutMethod      `gorm:"type:varchar(30);not null"`
	TransferRef   string            `gorm:"type:varchar(100)"`
	FailureReason string            `gorm:"type:varchar(500)"`
	ProcessedAt   *time.Time
}

// TableName returns the table name for GORM
func (Payout) TableName() string {
	return "payouts"
}

// NewPayout creates a pending payout over the given earnings sum. The
// processing fee may not eat the whole amount.
func NewPayout(vendorID uuid.UUID, periodStart, periodEnd time.Time, itemsCount int, amount, fee valueobject.Money, method PayoutMethod) (*Payout, error) {
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}
	if itemsCount < 1 {
		return nil, shared.NewDomainError("EMPTY_PAYOUT", "Payout requires at least one earning")
	}
	net, err := amount.SubtractNonNegative(fee)
	if err != nil {
		return nil, shared.NewDomainError("FEE_EXCEEDS_AMOUNT", "Processing fee exceeds payout amount")
	}
	p := &Payout{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorID:          vendorID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		ItemsCount:        itemsCount,
		Amount:            amount,
		ProcessingFee:     fee,
		Net:               net,
		Status:            PayoutPending,
		Method:            method,
	}
	p.AddDomainEvent(NewPayoutCreatedEvent(p))
	return p, nil
}

func (p *Payout) transition(target PayoutStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot move payout from %s to %s", p.Status, target))
	}
	p.Status = target
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Reprice recomputes the payout totals from the earnings still held for it.
// Earnings can be withheld out of a batch between creation and processing,
// so the batch is recounted before the transfer goes out. Only a payout that
// has not started processing can be repriced.
func (p *Payout) Reprice(itemsCount int, amount, fee valueobject.Money) error {
	if p.Status != PayoutPending && p.Status != PayoutFailed {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reprice payout in status %s", p.Status))
	}
	if itemsCount < 1 {
		return shared.NewDomainError("EMPTY_PAYOUT", "Payout requires at least one earning")
	}
	net, err := amount.SubtractNonNegative(fee)
	if err != nil {
		return shared.NewDomainError("FEE_EXCEEDS_AMOUNT", "Processing fee exceeds payout amount")
	}
	p.ItemsCount = itemsCount
	p.Amount = amount
	p.ProcessingFee = fee
	p.Net = net
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// StartProcessing moves the payout to processing, from pending or as a
// retry after failure
func (p *Payout) StartProcessing() error {
	return p.transition(PayoutProcessing)
}

// Complete marks the payout settled, recording the processor's transfer
// reference
func (p *Payout) Complete(transferRef string) error {
	if err := p.transition(PayoutCompleted); err != nil {
		return err
	}
	p.TransferRef = transferRef
	now := time.Now().UTC()
	p.ProcessedAt = &now
	p.AddDomainEvent(NewPayoutCompletedEvent(p))
	return nil
}

// Fail records a failed settlement attempt. The caller must release the
// held earnings in the same transaction.
func (p *Payout) Fail(reason string) error {
	if err := p.transition(PayoutFailed); err != nil {
		return err
	}
	p.FailureReason = reason
	p.AddDomainEvent(NewPayoutFailedEvent(p, reason))
	return nil
}

// Cancel abandons a pending or failed payout. The caller must release the
// held earnings in the same transaction.
func (p *Payout) Cancel() error {
	if err := p.transition(PayoutCancelled); err != nil {
		return err
	}
	p.AddDomainEvent(NewPayoutCancelledEvent(p))
	return nil
}
