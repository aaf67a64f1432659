package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	svc          *CartService
	carts        *memCartRepo
	coupons      *memCouponRepo
	stocks       *memStockRepo
	reservations *memReservationRepo
	catalog      *fakeCatalog
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	f := &cartFixture{
		carts:        newMemCartRepo(),
		coupons:      newMemCouponRepo(),
		stocks:       newMemStockRepo(),
		reservations: newMemReservationRepo(),
		catalog:      &fakeCatalog{variants: make(map[uuid.UUID]gateway.VariantInfo)},
	}
	scope := NewNoOpTransactionScope(
		f.carts, f.coupons, newMemOrderRepo(), f.stocks, f.reservations,
		newMemCommissionRepo(), newMemEarningRepo(),
	)
	f.svc = NewCartService(scope, f.catalog, time.Hour, 30*time.Minute)
	return f
}

// seedVariant registers a variant in the catalog and its stock ledger
func (f *cartFixture) seedVariant(t *testing.T, vendorID uuid.UUID, priceCents, onHand int64) uuid.UUID {
	t.Helper()
	variantID := uuid.New()
	f.catalog.variants[variantID] = gateway.VariantInfo{
		VariantID:   variantID,
		VendorID:    vendorID,
		ProductName: "Widget",
		VariantName: "Blue",
		UnitPrice:   valueobject.NewMoney(priceCents),
	}
	stock, err := inventory.NewVariantStock(variantID, vendorID, onHand)
	require.NoError(t, err)
	f.stocks.add(stock)
	return variantID
}

func userOwner() CartOwner {
	id := uuid.New()
	return CartOwner{UserID: &id}
}

func TestCartService_GetOrCreate(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()

	first, err := f.svc.GetOrCreate(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, first.Items)

	second, err := f.svc.GetOrCreate(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCartService_GetOrCreate_NoOwner(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.GetOrCreate(context.Background(), CartOwner{})
	assert.Error(t, err)
}

func TestCartService_AddItem_ReservesStock(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1500, 10)

	resp, err := f.svc.AddItem(context.Background(), owner, variantID, 3)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(3), resp.Items[0].Quantity)
	assert.Equal(t, int64(4500), resp.SubtotalCents)

	stock, err := f.stocks.FindByVariantID(context.Background(), variantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.Reserved)
	assert.Equal(t, int64(7), stock.Available())

	res, err := f.reservations.FindByHolder(context.Background(), inventory.HolderCartItem, resp.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, res.IsActive())
	assert.Equal(t, int64(3), res.Quantity)
}

func TestCartService_AddItem_MergesSameVariant(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1000, 10)

	_, err := f.svc.AddItem(context.Background(), owner, variantID, 2)
	require.NoError(t, err)
	resp, err := f.svc.AddItem(context.Background(), owner, variantID, 3)
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(5), resp.Items[0].Quantity)

	// still one reservation, covering the merged quantity
	res, err := f.reservations.FindByHolder(context.Background(), inventory.HolderCartItem, resp.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Quantity)

	stock, _ := f.stocks.FindByVariantID(context.Background(), variantID)
	assert.Equal(t, int64(5), stock.Reserved)
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1000, 2)

	_, err := f.svc.AddItem(context.Background(), owner, variantID, 5)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	stock, _ := f.stocks.FindByVariantID(context.Background(), variantID)
	assert.Equal(t, int64(0), stock.Reserved)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), userOwner(), uuid.New(), 0)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_QUANTITY", derr.Code)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1000, 10)

	resp, err := f.svc.AddItem(context.Background(), owner, variantID, 2)
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	resp, err = f.svc.UpdateQuantity(context.Background(), owner, itemID, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), resp.Items[0].Quantity)
	stock, _ := f.stocks.FindByVariantID(context.Background(), variantID)
	assert.Equal(t, int64(6), stock.Reserved)

	resp, err = f.svc.UpdateQuantity(context.Background(), owner, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Items[0].Quantity)
	stock, _ = f.stocks.FindByVariantID(context.Background(), variantID)
	assert.Equal(t, int64(1), stock.Reserved)
}

func TestCartService_UpdateQuantity_InsufficientStock(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1000, 5)

	resp, err := f.svc.AddItem(context.Background(), owner, variantID, 3)
	require.NoError(t, err)

	_, err = f.svc.UpdateQuantity(context.Background(), owner, resp.Items[0].ID, 9)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestCartService_RemoveItem_ReleasesReservation(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 1000, 10)

	resp, err := f.svc.AddItem(context.Background(), owner, variantID, 4)
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	resp, err = f.svc.RemoveItem(context.Background(), owner, itemID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	stock, _ := f.stocks.FindByVariantID(context.Background(), variantID)
	assert.Equal(t, int64(0), stock.Reserved)
	assert.Equal(t, int64(10), stock.Available())
}

func TestCartService_ApplyCoupon(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 2000, 10)
	_, err := f.svc.AddItem(context.Background(), owner, variantID, 2)
	require.NoError(t, err)

	coupon, err := order.NewPercentCoupon("SAVE10", decimal.NewFromInt(10), valueobject.NewMoney(1000))
	require.NoError(t, err)
	require.NoError(t, f.coupons.Save(context.Background(), coupon))

	resp, err := f.svc.ApplyCoupon(context.Background(), owner, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, resp.CouponCode)
	assert.Equal(t, "SAVE10", *resp.CouponCode)
}

func TestCartService_ApplyCoupon_Unknown(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 2000, 10)
	_, err := f.svc.AddItem(context.Background(), owner, variantID, 1)
	require.NoError(t, err)

	_, err = f.svc.ApplyCoupon(context.Background(), owner, "NOPE")
	assert.ErrorIs(t, err, shared.ErrInvalidCoupon)
}

func TestCartService_ApplyCoupon_BelowMinimum(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 500, 10)
	_, err := f.svc.AddItem(context.Background(), owner, variantID, 1)
	require.NoError(t, err)

	coupon, err := order.NewPercentCoupon("BIG", decimal.NewFromInt(10), valueobject.NewMoney(10000))
	require.NoError(t, err)
	require.NoError(t, f.coupons.Save(context.Background(), coupon))

	_, err = f.svc.ApplyCoupon(context.Background(), owner, "BIG")
	assert.ErrorIs(t, err, shared.ErrCouponMinimumNotMet)
}

func TestCartService_RemoveCoupon(t *testing.T) {
	f := newCartFixture(t)
	owner := userOwner()
	variantID := f.seedVariant(t, uuid.New(), 2000, 10)
	_, err := f.svc.AddItem(context.Background(), owner, variantID, 1)
	require.NoError(t, err)

	coupon, err := order.NewFixedCoupon("FLAT5", valueobject.NewMoney(500), valueobject.Zero())
	require.NoError(t, err)
	require.NoError(t, f.coupons.Save(context.Background(), coupon))
	_, err = f.svc.ApplyCoupon(context.Background(), owner, "FLAT5")
	require.NoError(t, err)

	resp, err := f.svc.RemoveCoupon(context.Background(), owner)
	require.NoError(t, err)
	assert.Nil(t, resp.CouponCode)
}
