package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEarningRepository implements settlement.EarningRepository using GORM.
// The claim/release/pay methods are conditional bulk UPDATEs keyed on the
// current status, so two concurrent payout batches can never claim the
// same earning row.
type GormEarningRepository struct {
	db *gorm.DB
}

// NewGormEarningRepository creates a new GormEarningRepository
func NewGormEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// FindByID finds an earning by its ID
func (r *GormEarningRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Earning, error) {
	var e settlement.Earning
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// FindByOrderID finds all earnings for an order
func (r *GormEarningRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*settlement.Earning, error) {
	var earnings []*settlement.Earning
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&earnings).Error; err != nil {
		return nil, err
	}
	return earnings, nil
}

// FindByVendorID returns a page of the vendor's earnings, newest first
func (r *GormEarningRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Earning, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&settlement.Earning{}).
		Where("vendor_id = ?", vendorID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var earnings []*settlement.Earning
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&earnings).Error; err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// FindPromotable returns pending earnings whose holdback elapsed before now
func (r *GormEarningRepository) FindPromotable(ctx context.Context, now time.Time, limit int) ([]*settlement.Earning, error) {
	var earnings []*settlement.Earning
	if err := r.db.WithContext(ctx).
		Where("status = ? AND available_at IS NOT NULL AND available_at <= ?", settlement.EarningPending, now).
		Order("available_at ASC").
		Limit(limit).
		Find(&earnings).Error; err != nil {
		return nil, err
	}
	return earnings, nil
}

// Save creates or updates an earning
func (r *GormEarningRepository) Save(ctx context.Context, earning *settlement.Earning) error {
	return r.db.WithContext(ctx).Save(earning).Error
}

// SaveAll creates or updates multiple earnings
func (r *GormEarningRepository) SaveAll(ctx context.Context, earnings []*settlement.Earning) error {
	if len(earnings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(earnings).Error
}

// SaveWithLock saves an earning with an optimistic version check
func (r *GormEarningRepository) SaveWithLock(ctx context.Context, earning *settlement.Earning) error {
	earning.IncrementVersion()
	result := r.db.WithContext(ctx).Model(&settlement.Earning{}).
		Where("id = ? AND version = ?", earning.ID, earning.Version-1).
		Updates(map[string]any{
			"amount":            earning.Amount,
			"commission_amount": earning.CommissionAmount,
			"net":               earning.Net,
			"status":            earning.Status,
			"available_at":      earning.AvailableAt,
			"payout_id":         earning.PayoutID,
			"version":           earning.Version,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ClaimForPayout atomically flips the vendor's available earnings inside
// the period to held_for_payout and returns the claimed rows
func (r *GormEarningRepository) ClaimForPayout(ctx context.Context, vendorID, payoutID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.Earning, error) {
	result := r.db.WithContext(ctx).Model(&settlement.Earning{}).
		Where("vendor_id = ? AND status = ? AND available_at >= ? AND available_at < ?",
			vendorID, settlement.EarningAvailable, periodStart, periodEnd).
		Updates(map[string]any{
			"status":     settlement.EarningHeldForPayout,
			"payout_id":  payoutID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return []*settlement.Earning{}, nil
	}

	var claimed []*settlement.Earning
	if err := r.db.WithContext(ctx).
		Where("payout_id = ? AND status = ?", payoutID, settlement.EarningHeldForPayout).
		Find(&claimed).Error; err != nil {
		return nil, err
	}
	return claimed, nil
}

// FindHeldByPayout returns the earnings still held for the payout
func (r *GormEarningRepository) FindHeldByPayout(ctx context.Context, payoutID uuid.UUID) ([]*settlement.Earning, error) {
	var held []*settlement.Earning
	if err := r.db.WithContext(ctx).
		Where("payout_id = ? AND status = ?", payoutID, settlement.EarningHeldForPayout).
		Find(&held).Error; err != nil {
		return nil, err
	}
	return held, nil
}

// ReleaseFromPayout flips a payout's held earnings back to available
func (r *GormEarningRepository) ReleaseFromPayout(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&settlement.Earning{}).
		Where("payout_id = ? AND status = ?", payoutID, settlement.EarningHeldForPayout).
		Updates(map[string]any{
			"status":     settlement.EarningAvailable,
			"payout_id":  nil,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// MarkPaidByPayout flips a payout's held earnings to paid
func (r *GormEarningRepository) MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&settlement.Earning{}).
		Where("payout_id = ? AND status = ?", payoutID, settlement.EarningHeldForPayout).
		Updates(map[string]any{
			"status":     settlement.EarningPaid,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

var _ settlement.EarningRepository = (*GormEarningRepository)(nil)
