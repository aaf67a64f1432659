package persistence

import (
	"context"
	"errors"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCouponRepository implements order.CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByCode finds a coupon by its code
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*order.Coupon, error) {
	var coupon order.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// Save creates or updates a coupon
func (r *GormCouponRepository) Save(ctx context.Context, coupon *order.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// IncrementUsage bumps used_count with a guard against exceeding max_uses.
// The conditional UPDATE makes concurrent checkouts race safely: only
// max_uses of them can win.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Coupon{}).
		Where("code = ? AND (max_uses = 0 OR used_count < max_uses)", code).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// No row updated: either the coupon is exhausted or it does not exist
	var count int64
	if err := r.db.WithContext(ctx).Model(&order.Coupon{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, shared.ErrNotFound
	}
	return false, nil
}

var _ order.CouponRepository = (*GormCouponRepository)(nil)
