package gateway

import (
	"context"
	"errors"
	"fmt"

	appgateway "github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// catalogVariant is the read model for the catalog's variant table. The
// catalog is owned by another service; this is a read-only projection.
type catalogVariant struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	VendorID    uuid.UUID         `gorm:"type:uuid;not null"`
	ProductName string            `gorm:"type:varchar(200);not null"`
	VariantName string            `gorm:"type:varchar(200)"`
	UnitPrice   valueobject.Money `gorm:"type:bigint;not null"`
	Active      bool              `gorm:"not null;default:true"`
}

func (catalogVariant) TableName() string {
	return "product_variants"
}

// GormProductCatalog reads variant pricing and ownership from the
// shared database.
type GormProductCatalog struct {
	db *gorm.DB
}

// NewGormProductCatalog creates a catalog reader.
func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// VariantByID returns the sellable snapshot for one variant. Inactive
// and unknown variants are both reported as not found.
func (c *GormProductCatalog) VariantByID(ctx context.Context, variantID uuid.UUID) (*appgateway.VariantInfo, error) {
	var row catalogVariant
	err := c.db.WithContext(ctx).
		Where("id = ? AND active = ?", variantID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load variant %s: %w", variantID, err)
	}

	return &appgateway.VariantInfo{
		VariantID:   row.ID,
		VendorID:    row.VendorID,
		ProductName: row.ProductName,
		VariantName: row.VariantName,
		UnitPrice:   row.UnitPrice,
	}, nil
}

var _ appgateway.ProductCatalog = (*GormProductCatalog)(nil)
