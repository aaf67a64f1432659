package order

import (
	"testing"
	"time"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCart(t *testing.T) {
	userID := uuid.New()
	cart, err := NewCart(&userID, "", time.Hour)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.False(t, cart.IsExpired())

	anon, err := NewCart(nil, "sess-abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", anon.SessionToken)

	_, err = NewCart(nil, "", time.Hour)
	assert.Error(t, err)
}

func TestCartAddItemMergesQuantities(t *testing.T) {
	userID := uuid.New()
	cart, err := NewCart(&userID, "", time.Hour)
	require.NoError(t, err)

	variantID := uuid.New()
	vendorID := uuid.New()
	_, err = cart.AddItem(variantID, vendorID, "Widget", "Blue", 2, valueobject.NewMoney(2500))
	require.NoError(t, err)
	_, err = cart.AddItem(variantID, vendorID, "Widget", "Blue", 1, valueobject.NewMoney(2500))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)
	assert.Equal(t, int64(7500), cart.Subtotal().Cents())
}

func TestCartItemLifecycle(t *testing.T) {
	userID := uuid.New()
	cart, err := NewCart(&userID, "", time.Hour)
	require.NoError(t, err)

	item, err := cart.AddItem(uuid.New(), uuid.New(), "Widget", "", 2, valueobject.NewMoney(1000))
	require.NoError(t, err)

	_, err = cart.UpdateItemQuantity(item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cart.Subtotal().Cents())

	_, err = cart.UpdateItemQuantity(item.ID, 0)
	assert.Error(t, err)

	removed, err := cart.RemoveItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, removed.ID)
	assert.True(t, cart.IsEmpty())

	_, err = cart.RemoveItem(item.ID)
	assert.Error(t, err)
}

func TestCouponValidate(t *testing.T) {
	coupon, err := NewPercentCoupon("SAVE10", decimal.NewFromInt(10), valueobject.NewMoney(2000))
	require.NoError(t, err)

	assert.NoError(t, coupon.Validate(valueobject.NewMoney(5000)))
	assert.ErrorIs(t, coupon.Validate(valueobject.NewMoney(1999)), shared.ErrCouponMinimumNotMet)

	coupon.Deactivate()
	assert.ErrorIs(t, coupon.Validate(valueobject.NewMoney(5000)), shared.ErrInvalidCoupon)
}

func TestCouponExpiryAndUsage(t *testing.T) {
	coupon, err := NewFixedCoupon("FLAT5", valueobject.NewMoney(500), valueobject.Zero())
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	coupon.ExpiresAt = &past
	assert.ErrorIs(t, coupon.Validate(valueobject.NewMoney(5000)), shared.ErrInvalidCoupon)

	coupon.ExpiresAt = nil
	coupon.MaxUses = 1
	coupon.MarkUsed()
	assert.ErrorIs(t, coupon.Validate(valueobject.NewMoney(5000)), shared.ErrInvalidCoupon)
}

func TestCouponDiscountFor(t *testing.T) {
	percent, err := NewPercentCoupon("SAVE10", decimal.NewFromInt(10), valueobject.Zero())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), percent.DiscountFor(valueobject.NewMoney(10000)).Cents())
	// 10% of 1050 = 105
	assert.Equal(t, int64(105), percent.DiscountFor(valueobject.NewMoney(1050)).Cents())

	fixed, err := NewFixedCoupon("FLAT5", valueobject.NewMoney(500), valueobject.Zero())
	require.NoError(t, err)
	assert.Equal(t, int64(500), fixed.DiscountFor(valueobject.NewMoney(10000)).Cents())
	assert.Equal(t, int64(300), fixed.DiscountFor(valueobject.NewMoney(300)).Cents(), "capped at subtotal")
}
