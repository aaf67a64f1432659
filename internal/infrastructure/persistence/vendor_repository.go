package persistence

import (
	"context"
	"errors"

	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/vendor"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVendorRepository implements vendor.Repository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor by its ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	var v vendor.Vendor
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// FindByIDs finds multiple vendors by their IDs
func (r *GormVendorRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]vendor.Vendor, error) {
	if len(ids) == 0 {
		return []vendor.Vendor{}, nil
	}
	var vendors []vendor.Vendor
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// Save creates or updates a vendor
func (r *GormVendorRepository) Save(ctx context.Context, v *vendor.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

var _ vendor.Repository = (*GormVendorRepository)(nil)
