package gateway

import (
	"context"
	"strings"

	appgateway "github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FlatRateTaxCalculator applies a percentage rate from a per-country
// table, falling back to a default rate. Rates are percentages, so 7.5
// means 7.5%.
type FlatRateTaxCalculator struct {
	defaultRate decimal.Decimal
	byCountry   map[string]decimal.Decimal
}

// NewFlatRateTaxCalculator creates a calculator with the given default
// rate and optional per-country overrides keyed by ISO country code.
func NewFlatRateTaxCalculator(defaultRate decimal.Decimal, byCountry map[string]decimal.Decimal) *FlatRateTaxCalculator {
	normalized := make(map[string]decimal.Decimal, len(byCountry))
	for code, rate := range byCountry {
		normalized[strings.ToUpper(code)] = rate
	}
	return &FlatRateTaxCalculator{
		defaultRate: defaultRate,
		byCountry:   normalized,
	}
}

// TaxFor returns the tax on the vendor group's discounted total for the
// destination country, rounded half-up to whole cents.
func (c *FlatRateTaxCalculator) TaxFor(_ context.Context, group order.VendorGroup, destination order.Address) (valueobject.Money, error) {
	rate := c.defaultRate
	if override, ok := c.byCountry[strings.ToUpper(destination.Country)]; ok {
		rate = override
	}
	return group.Total().ApplyRate(rate), nil
}

var _ appgateway.TaxCalculator = (*FlatRateTaxCalculator)(nil)
