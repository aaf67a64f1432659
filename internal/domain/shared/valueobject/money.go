package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Money is a value object representing a monetary amount in integer minor
// units (cents). It is immutable - all operations return new Money instances.
// Floating point never enters the arithmetic; fractional rates are applied
// through decimal math and rounded half-up back to whole cents.
type Money struct {
	cents int64
}

// NewMoney creates Money from an amount in cents
func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

// Zero returns a zero-value Money
func Zero() Money {
	return Money{}
}

// NewMoneyFromDecimal creates Money from a decimal major-unit amount,
// rounding half-up to whole cents
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{cents: amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()}
}

// Cents returns the amount in minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Decimal returns the amount in major units as a decimal
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.cents).Div(decimal.NewFromInt(100))
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Subtract returns a new Money with the difference; the result may be negative
func (m Money) Subtract(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// SubtractNonNegative returns the difference, failing if the result would be
// negative. Used where the domain forbids negative balances (stock value,
// vendor earnings).
func (m Money) SubtractNonNegative(other Money) (Money, error) {
	if other.cents > m.cents {
		return Money{}, shared.ErrNegativeAmount
	}
	return Money{cents: m.cents - other.cents}, nil
}

// MultiplyByInt returns a new Money multiplied by an integer factor
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{cents: m.cents * factor}
}

// ApplyRate returns the given percentage of this Money, rounded half-up to
// whole cents. A rate of decimal 10 means 10%.
func (m Money) ApplyRate(rate decimal.Decimal) Money {
	amount := decimal.NewFromInt(m.cents).Mul(rate).Div(decimal.NewFromInt(100))
	return Money{cents: amount.Round(0).IntPart()}
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{cents: -m.cents}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	if m.cents < 0 {
		return Money{cents: -m.cents}
	}
	return m
}

// Equals returns true if both Money values are equal
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.cents >= other.cents
}

// SplitProportionally divides this Money across the given weights so that the
// parts sum back to the original amount exactly. Each part gets the floor of
// its proportional share; the leftover cents go to the largest weight (first
// of the largest on ties), keeping the allocation deterministic.
//
// This is how order-level discounts, taxes and fees are distributed across
// vendor groups without rounding leakage.
func (m Money) SplitProportionally(weights []int64) ([]Money, error) {
	if len(weights) == 0 {
		return nil, shared.NewDomainError("INVALID_SPLIT", "At least one weight is required")
	}

	var totalWeight int64
	largest := 0
	for i, w := range weights {
		if w < 0 {
			return nil, shared.NewDomainError("INVALID_SPLIT", "Weights cannot be negative")
		}
		totalWeight += w
		if w > weights[largest] {
			largest = i
		}
	}
	if totalWeight == 0 {
		if m.cents == 0 {
			return make([]Money, len(weights)), nil
		}
		return nil, shared.NewDomainError("INVALID_SPLIT", "Total weight cannot be zero")
	}

	parts := make([]Money, len(weights))
	var allocated int64
	for i, w := range weights {
		share := m.cents * w / totalWeight
		parts[i] = Money{cents: share}
		allocated += share
	}

	// Remainder cents go to the largest share so sum(parts) == total exactly.
	parts[largest] = Money{cents: parts[largest].cents + (m.cents - allocated)}

	return parts, nil
}

// Allocate divides money into n equal parts, handling remainders.
// The first parts receive one extra cent each until the remainder is used up.
func (m Money) Allocate(parts int) ([]Money, error) {
	if parts <= 0 {
		return nil, shared.NewDomainError("INVALID_SPLIT", "Parts must be positive")
	}
	base := m.cents / int64(parts)
	remainder := m.cents - base*int64(parts)

	result := make([]Money, parts)
	for i := range result {
		result[i] = Money{cents: base}
		if int64(i) < remainder {
			result[i].cents++
		}
	}
	return result, nil
}

// String returns the amount formatted in major units, e.g. "25.00"
func (m Money) String() string {
	sign := ""
	cents := m.cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON implements json.Marshaler; Money serializes as integer cents
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.cents)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("invalid money value: %w", err)
	}
	m.cents = cents
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	if value == nil {
		m.cents = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		m.cents = v
	case int:
		m.cents = int64(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

// Sum adds up a slice of Money values
func Sum(values []Money) Money {
	total := Money{}
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
