package order

import (
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CouponType identifies how a coupon computes its discount
type CouponType string

const (
	CouponTypePercent CouponType = "percent"
	CouponTypeFixed   CouponType = "fixed"
)

// Coupon is a marketplace-wide discount. Percent coupons take a percentage
// of the order subtotal; fixed coupons subtract a flat amount capped at the
// subtotal so an order total never goes negative.
type Coupon struct {
	shared.BaseAggregateRoot
	Code        string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type        CouponType        `gorm:"type:varchar(20);not null"`
	Percent     decimal.Decimal   `gorm:"type:decimal(5,2)"`
	Amount      valueobject.Money `gorm:"type:bigint"`
	MinSubtotal valueobject.Money `gorm:"type:bigint"`
	MaxUses     int               `gorm:"not null;default:0"`
	UsedCount   int               `gorm:"not null;default:0"`
	Active      bool              `gorm:"not null;default:true"`
	ExpiresAt   *time.Time
}

// TableName returns the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}

// NewPercentCoupon creates a percentage coupon, e.g. 10 for 10% off
func NewPercentCoupon(code string, percent decimal.Decimal, minSubtotal valueobject.Money) (*Coupon, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Coupon code is required")
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_PERCENT", "Percent must be between 0 and 100")
	}
	return &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Type:              CouponTypePercent,
		Percent:           percent,
		MinSubtotal:       minSubtotal,
		Active:            true,
	}, nil
}

// NewFixedCoupon creates a flat-amount coupon
func NewFixedCoupon(code string, amount, minSubtotal valueobject.Money) (*Coupon, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Coupon code is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Coupon amount must be positive")
	}
	return &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Type:              CouponTypeFixed,
		Amount:            amount,
		MinSubtotal:       minSubtotal,
		Active:            true,
	}, nil
}

// Validate checks whether this coupon can be applied to the given subtotal
func (c *Coupon) Validate(subtotal valueobject.Money) error {
	if !c.Active {
		return shared.ErrInvalidCoupon
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return shared.ErrInvalidCoupon
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return shared.ErrInvalidCoupon
	}
	if subtotal.LessThan(c.MinSubtotal) {
		return shared.ErrCouponMinimumNotMet
	}
	return nil
}

// DiscountFor computes the discount for the given subtotal. The result is
// never larger than the subtotal itself.
func (c *Coupon) DiscountFor(subtotal valueobject.Money) valueobject.Money {
	var discount valueobject.Money
	switch c.Type {
	case CouponTypePercent:
		discount = subtotal.ApplyRate(c.Percent)
	case CouponTypeFixed:
		discount = c.Amount
	default:
		return valueobject.Zero()
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// MarkUsed records one redemption
func (c *Coupon) MarkUsed() {
	c.UsedCount++
	c.UpdatedAt = time.Now().UTC()
}

// Deactivate turns the coupon off
func (c *Coupon) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now().UTC()
}
