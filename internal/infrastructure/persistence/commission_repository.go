package persistence

import (
	"context"
	"errors"

	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommissionRepository implements settlement.CommissionRepository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// FindByID finds a commission by its ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Commission, error) {
	var c settlement.Commission
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByOrderID finds all commissions for an order
func (r *GormCommissionRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*settlement.Commission, error) {
	var commissions []*settlement.Commission
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

// FindByVendorID returns a page of the vendor's commissions, newest first
func (r *GormCommissionRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Commission, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&settlement.Commission{}).
		Where("vendor_id = ?", vendorID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var commissions []*settlement.Commission
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}

// Save creates or updates a commission
func (r *GormCommissionRepository) Save(ctx context.Context, commission *settlement.Commission) error {
	return r.db.WithContext(ctx).Save(commission).Error
}

// SaveAll creates or updates multiple commissions
func (r *GormCommissionRepository) SaveAll(ctx context.Context, commissions []*settlement.Commission) error {
	if len(commissions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(commissions).Error
}

var _ settlement.CommissionRepository = (*GormCommissionRepository)(nil)
