package gateway

import (
	"context"

	appgateway "github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
)

// TableShippingResolver prices delivery as a base fee per vendor
// shipment, waived for groups whose total clears the free-shipping
// threshold. Each vendor ships its own parcel.
type TableShippingResolver struct {
	perVendorFee      valueobject.Money
	freeShippingAbove valueobject.Money
}

// NewTableShippingResolver creates a resolver. A zero freeShippingAbove
// disables the waiver.
func NewTableShippingResolver(perVendorFee, freeShippingAbove valueobject.Money) *TableShippingResolver {
	return &TableShippingResolver{
		perVendorFee:      perVendorFee,
		freeShippingAbove: freeShippingAbove,
	}
}

// RateFor sums the per-shipment fee over the vendor groups.
func (r *TableShippingResolver) RateFor(_ context.Context, groups []order.VendorGroup, _ order.Address) (valueobject.Money, error) {
	total := valueobject.Zero()
	for _, g := range groups {
		if r.freeShippingAbove.IsPositive() && g.Total().GreaterThanOrEqual(r.freeShippingAbove) {
			continue
		}
		total = total.Add(r.perVendorFee)
	}
	return total, nil
}

var _ appgateway.ShippingRateResolver = (*TableShippingResolver)(nil)
