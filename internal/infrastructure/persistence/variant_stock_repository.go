package persistence

import (
	"context"
	"errors"

	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVariantStockRepository implements inventory.VariantStockRepository
// using GORM. The quantity mutators are single conditional UPDATEs; the
// WHERE clause is the oversell guard, so correctness does not depend on
// isolation level.
type GormVariantStockRepository struct {
	db *gorm.DB
}

// NewGormVariantStockRepository creates a new GormVariantStockRepository
func NewGormVariantStockRepository(db *gorm.DB) *GormVariantStockRepository {
	return &GormVariantStockRepository{db: db}
}

// FindByID finds a stock ledger row by its ID
func (r *GormVariantStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.VariantStock, error) {
	var stock inventory.VariantStock
	if err := r.db.WithContext(ctx).First(&stock, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByVariantID finds the ledger row for a variant
func (r *GormVariantStockRepository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*inventory.VariantStock, error) {
	var stock inventory.VariantStock
	if err := r.db.WithContext(ctx).First(&stock, "variant_id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByVariantIDs finds ledger rows for multiple variants
func (r *GormVariantStockRepository) FindByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]inventory.VariantStock, error) {
	if len(variantIDs) == 0 {
		return []inventory.VariantStock{}, nil
	}
	var stocks []inventory.VariantStock
	if err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// Save creates or updates a stock ledger row
func (r *GormVariantStockRepository) Save(ctx context.Context, stock *inventory.VariantStock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

// SaveWithLock saves with an optimistic version check
func (r *GormVariantStockRepository) SaveWithLock(ctx context.Context, stock *inventory.VariantStock) error {
	stock.IncrementVersion()
	result := r.db.WithContext(ctx).Model(&inventory.VariantStock{}).
		Where("id = ? AND version = ?", stock.ID, stock.Version-1).
		Updates(map[string]any{
			"on_hand":  stock.OnHand,
			"reserved": stock.Reserved,
			"version":  stock.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// TryReserve increments reserved iff available stock covers the quantity
func (r *GormVariantStockRepository) TryReserve(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&inventory.VariantStock{}).
		Where("variant_id = ? AND on_hand - reserved >= ?", variantID, qty).
		Update("reserved", gorm.Expr("reserved + ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseQuantity returns reserved quantity to the available pool
func (r *GormVariantStockRepository) ReleaseQuantity(ctx context.Context, variantID uuid.UUID, qty int64) error {
	result := r.db.WithContext(ctx).Model(&inventory.VariantStock{}).
		Where("variant_id = ? AND reserved >= ?", variantID, qty).
		Update("reserved", gorm.Expr("reserved - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CommitQuantity converts reserved quantity into an on-hand deduction
func (r *GormVariantStockRepository) CommitQuantity(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&inventory.VariantStock{}).
		Where("variant_id = ? AND reserved >= ? AND on_hand >= ?", variantID, qty, qty).
		Updates(map[string]any{
			"reserved": gorm.Expr("reserved - ?", qty),
			"on_hand":  gorm.Expr("on_hand - ?", qty),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestockQuantity adds quantity back to on-hand stock
func (r *GormVariantStockRepository) RestockQuantity(ctx context.Context, variantID uuid.UUID, qty int64) error {
	result := r.db.WithContext(ctx).Model(&inventory.VariantStock{}).
		Where("variant_id = ?", variantID).
		Update("on_hand", gorm.Expr("on_hand + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ inventory.VariantStockRepository = (*GormVariantStockRepository)(nil)
