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

// GormPayoutRepository implements settlement.PayoutRepository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// FindByID finds a payout by its ID
func (r *GormPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Payout, error) {
	var p settlement.Payout
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByVendorID returns a page of the vendor's payouts, newest first
func (r *GormPayoutRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Payout, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&settlement.Payout{}).
		Where("vendor_id = ?", vendorID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payouts []*settlement.Payout
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// FindByStatus finds payouts in a given status, oldest first
func (r *GormPayoutRepository) FindByStatus(ctx context.Context, status settlement.PayoutStatus, limit int) ([]*settlement.Payout, error) {
	var payouts []*settlement.Payout
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// Save creates or updates a payout
func (r *GormPayoutRepository) Save(ctx context.Context, payout *settlement.Payout) error {
	return r.db.WithContext(ctx).Save(payout).Error
}

// SaveWithLock saves a payout with an optimistic version check
func (r *GormPayoutRepository) SaveWithLock(ctx context.Context, payout *settlement.Payout) error {
	payout.IncrementVersion()
	result := r.db.WithContext(ctx).Model(&settlement.Payout{}).
		Where("id = ? AND version = ?", payout.ID, payout.Version-1).
		Updates(map[string]any{
			"items_count":    payout.ItemsCount,
			"amount":         payout.Amount,
			"processing_fee": payout.ProcessingFee,
			"net":            payout.Net,
			"status":         payout.Status,
			"transfer_ref":   payout.TransferRef,
			"failure_reason": payout.FailureReason,
			"processed_at":   payout.ProcessedAt,
			"version":        payout.Version,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ settlement.PayoutRepository = (*GormPayoutRepository)(nil)
