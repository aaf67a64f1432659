package settlement

import (
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ReconciliationStatus is the verification state of a COD reconciliation row
type ReconciliationStatus string

const (
	ReconciliationPending  ReconciliationStatus = "pending"
	ReconciliationVerified ReconciliationStatus = "verified"
	ReconciliationDisputed ReconciliationStatus = "disputed"
)

// Reconciliation matches the cash a delivery agent collected against what
// their COD orders say they should have collected. One row per (agent, date);
// Discrepancy = collected - expected, so a short drawer is negative.
type Reconciliation struct {
	shared.BaseAggregateRoot
	Date             time.Time            `gorm:"type:date;not null;index:idx_reconciliations_agent_date,unique"`
	DeliveryPersonID uuid.UUID            `gorm:"type:uuid;not null;index:idx_reconciliations_agent_date,unique"`
	TotalOrdersCount int                  `gorm:"not null"`
	TotalCodAmount   valueobject.Money    `gorm:"type:bigint;not null"`
	CollectedAmount  valueobject.Money    `gorm:"type:bigint;not null"`
	Discrepancy      valueobject.Money    `gorm:"type:bigint;not null"`
	Status           ReconciliationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes            string               `gorm:"type:varchar(1000)"`
	VerifiedBy       *uuid.UUID           `gorm:"type:uuid"`
	VerifiedAt       *time.Time
}

// TableName returns the table name for GORM
func (Reconciliation) TableName() string {
	return "cod_reconciliations"
}

// ReconciliationLine is one COD order's contribution to a reconciliation
type ReconciliationLine struct {
	OrderID   uuid.UUID
	Expected  valueobject.Money
	Collected valueobject.Money
}

// NewReconciliation aggregates an agent's COD collections for one calendar
// day into a pending reconciliation row
func NewReconciliation(agentID uuid.UUID, date time.Time, lines []ReconciliationLine) (*Reconciliation, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_COD_ORDERS", "No COD collections for this agent and date")
	}
	r := &Reconciliation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              truncateToDay(date),
		DeliveryPersonID:  agentID,
		Status:            ReconciliationPending,
	}
	r.applyLines(lines)
	r.AddDomainEvent(NewReconciliationCreatedEvent(r))
	return r, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *Reconciliation) applyLines(lines []ReconciliationLine) {
	total := valueobject.Zero()
	collected := valueobject.Zero()
	for _, line := range lines {
		total = total.Add(line.Expected)
		collected = collected.Add(line.Collected)
	}
	r.TotalOrdersCount = len(lines)
	r.TotalCodAmount = total
	r.CollectedAmount = collected
	r.Discrepancy = collected.Subtract(total)
	r.UpdatedAt = time.Now().UTC()
}

// Reaggregate recomputes the totals from a fresh set of lines. Only pending
// rows can be re-aggregated; verified and disputed rows are settled history.
// Running it twice with the same lines yields the same result.
func (r *Reconciliation) Reaggregate(lines []ReconciliationLine) error {
	if r.Status != ReconciliationPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot re-aggregate a %s reconciliation", r.Status))
	}
	if len(lines) == 0 {
		return shared.NewDomainError("NO_COD_ORDERS", "No COD collections for this agent and date")
	}
	r.applyLines(lines)
	return nil
}

// IsBalanced reports whether collected cash matches the expected total
func (r *Reconciliation) IsBalanced() bool {
	return r.Discrepancy.IsZero()
}

// Verify signs off the reconciliation. Verifying a row with a discrepancy
// requires a note explaining it.
func (r *Reconciliation) Verify(verifiedBy uuid.UUID, notes string) error {
	if r.Status != ReconciliationPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot verify a %s reconciliation", r.Status))
	}
	if !r.IsBalanced() && notes == "" {
		return shared.NewDomainError("NOTES_REQUIRED", "Verifying a discrepancy requires an explanation")
	}
	now := time.Now().UTC()
	r.Status = ReconciliationVerified
	r.Notes = notes
	r.VerifiedBy = &verifiedBy
	r.VerifiedAt = &now
	r.UpdatedAt = now
	r.AddDomainEvent(NewReconciliationVerifiedEvent(r))
	return nil
}

// Dispute flags the reconciliation for investigation
func (r *Reconciliation) Dispute(raisedBy uuid.UUID, notes string) error {
	if r.Status != ReconciliationPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot dispute a %s reconciliation", r.Status))
	}
	if notes == "" {
		return shared.NewDomainError("NOTES_REQUIRED", "Disputing requires an explanation")
	}
	now := time.Now().UTC()
	r.Status = ReconciliationDisputed
	r.Notes = notes
	r.VerifiedBy = &raisedBy
	r.UpdatedAt = now
	r.AddDomainEvent(NewReconciliationDisputedEvent(r))
	return nil
}
