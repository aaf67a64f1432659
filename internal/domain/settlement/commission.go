package settlement

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionStatus tracks whether a commission row has been rolled into a
// vendor earning
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionProcessed CommissionStatus = "processed"
)

// Commission is the platform's cut of one order item. It is created
// synchronously with the item using the vendor's rate at order time and is
// an immutable snapshot: later rate changes never touch existing rows.
type Commission struct {
	shared.BaseEntity
	OrderItemID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex"`
	OrderID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	VendorID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Rate        decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	Amount      valueobject.Money `gorm:"type:bigint;not null"`
	Net         valueobject.Money `gorm:"type:bigint;not null"`
	Status      CommissionStatus  `gorm:"type:varchar(20);not null;default:'pending'"`
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (Commission) TableName() string {
	return "commissions"
}

// NewCommission computes the platform commission for one order item.
// Amount is round-half-up of itemTotal * rate / 100; Net is the remainder,
// so Amount + Net always equals the item total exactly.
func NewCommission(orderID, orderItemID, vendorID uuid.UUID, itemTotal valueobject.Money, rate decimal.Decimal) (*Commission, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 100")
	}
	if itemTotal.IsNegative() {
		return nil, shared.ErrNegativeAmount
	}

	amount := itemTotal.ApplyRate(rate)
	net, err := itemTotal.SubtractNonNegative(amount)
	if err != nil {
		return nil, err
	}

	return &Commission{
		BaseEntity:  shared.NewBaseEntity(),
		OrderItemID: orderItemID,
		OrderID:     orderID,
		VendorID:    vendorID,
		Rate:        rate,
		Amount:      amount,
		Net:         net,
		Status:      CommissionPending,
	}, nil
}

// MarkProcessed records that this commission was folded into an earning
func (c *Commission) MarkProcessed() {
	if c.Status == CommissionProcessed {
		return
	}
	now := time.Now().UTC()
	c.Status = CommissionProcessed
	c.ProcessedAt = &now
	c.UpdatedAt = now
}
