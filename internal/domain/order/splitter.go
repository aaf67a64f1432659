package order

import (
	"sort"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorGroup is one vendor's slice of a multi-vendor cart: the items they
// will fulfill plus their share of the order-level discount.
type VendorGroup struct {
	VendorID uuid.UUID
	Items    []OrderItem
	Subtotal valueobject.Money
	Discount valueobject.Money
}

// Total returns the group's subtotal minus its discount share
func (g VendorGroup) Total() valueobject.Money {
	total, err := g.Subtotal.SubtractNonNegative(g.Discount)
	if err != nil {
		return valueobject.Zero()
	}
	return total
}

// Splitter turns a cart into per-vendor order items. An order-level coupon
// discount is distributed across vendor groups in proportion to each
// group's subtotal so that the shares sum exactly to the discount, then
// across each group's items the same way.
type Splitter struct {
	rates map[uuid.UUID]decimal.Decimal
}

// NewSplitter creates a splitter with commission rates per vendor, snapshot
// at order time
func NewSplitter(rates map[uuid.UUID]decimal.Decimal) *Splitter {
	return &Splitter{rates: rates}
}

// Split groups cart items by vendor and allocates the discount. Vendor
// groups come back sorted by vendor ID so the allocation is deterministic
// for the same cart regardless of item insertion order.
func (s *Splitter) Split(items []CartItem, discount valueobject.Money) ([]VendorGroup, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	byVendor := make(map[uuid.UUID][]CartItem)
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		byVendor[item.VendorID] = append(byVendor[item.VendorID], item)
	}

	vendorIDs := make([]uuid.UUID, 0, len(byVendor))
	for id := range byVendor {
		vendorIDs = append(vendorIDs, id)
	}
	sort.Slice(vendorIDs, func(i, j int) bool {
		return vendorIDs[i].String() < vendorIDs[j].String()
	})

	subtotal := valueobject.Zero()
	groupSubtotals := make([]valueobject.Money, len(vendorIDs))
	for i, id := range vendorIDs {
		gs := valueobject.Zero()
		for _, item := range byVendor[id] {
			gs = gs.Add(item.Subtotal())
		}
		groupSubtotals[i] = gs
		subtotal = subtotal.Add(gs)
	}
	if discount.GreaterThan(subtotal) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount exceeds cart subtotal")
	}

	weights := make([]int64, len(groupSubtotals))
	for i, gs := range groupSubtotals {
		weights[i] = gs.Cents()
	}
	groupDiscounts, err := discount.SplitProportionally(weights)
	if err != nil {
		return nil, err
	}

	groups := make([]VendorGroup, 0, len(vendorIDs))
	for i, vendorID := range vendorIDs {
		rate, ok := s.rates[vendorID]
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_VENDOR", "No commission rate for vendor "+vendorID.String())
		}
		group, err := s.buildGroup(vendorID, byVendor[vendorID], groupSubtotals[i], groupDiscounts[i], rate)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Splitter) buildGroup(vendorID uuid.UUID, items []CartItem, subtotal, discount valueobject.Money, rate decimal.Decimal) (VendorGroup, error) {
	weights := make([]int64, len(items))
	for i, item := range items {
		weights[i] = item.Subtotal().Cents()
	}
	itemDiscounts, err := discount.SplitProportionally(weights)
	if err != nil {
		return VendorGroup{}, err
	}

	orderItems := make([]OrderItem, 0, len(items))
	for i, item := range items {
		lineSubtotal := item.Subtotal()
		lineTotal, err := lineSubtotal.SubtractNonNegative(itemDiscounts[i])
		if err != nil {
			return VendorGroup{}, err
		}
		orderItems = append(orderItems, OrderItem{
			BaseEntity:        shared.NewBaseEntity(),
			VendorID:          vendorID,
			VariantID:         item.VariantID,
			ProductName:       item.ProductName,
			VariantName:       item.VariantName,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Subtotal:          lineSubtotal,
			DiscountShare:     itemDiscounts[i],
			Total:             lineTotal,
			CommissionRate:    rate,
			FulfillmentStatus: FulfillmentPending,
		})
	}

	return VendorGroup{
		VendorID: vendorID,
		Items:    orderItems,
		Subtotal: subtotal,
		Discount: discount,
	}, nil
}

// FlattenItems collects all order items across groups in group order
func FlattenItems(groups []VendorGroup) []OrderItem {
	var items []OrderItem
	for _, g := range groups {
		items = append(items, g.Items...)
	}
	return items
}
