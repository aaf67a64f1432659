package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCartRepository implements order.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID finds a cart with its items
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Cart, error) {
	var cart order.Cart
	if err := r.db.WithContext(ctx).Preload("Items").First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindByUserID finds the user's cart
func (r *GormCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*order.Cart, error) {
	var cart order.Cart
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindBySessionToken finds an anonymous session's cart
func (r *GormCartRepository) FindBySessionToken(ctx context.Context, token string) (*order.Cart, error) {
	var cart order.Cart
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("session_token = ?", token).
		Order("created_at DESC").
		First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindExpired finds carts whose TTL lapsed
func (r *GormCartRepository) FindExpired(ctx context.Context, limit int) ([]*order.Cart, error) {
	var carts []*order.Cart
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("expires_at < ?", time.Now().UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// Save creates or updates a cart with its items. Items removed from the
// aggregate are deleted so the row set mirrors the in-memory state.
func (r *GormCartRepository) Save(ctx context.Context, cart *order.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(cart.Items))
		for _, item := range cart.Items {
			keep = append(keep, item.ID)
		}

		orphans := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			orphans = orphans.Where("id NOT IN ?", keep)
		}
		return orphans.Delete(&order.CartItem{}).Error
	})
}

// Delete removes the cart and its items
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&order.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order.Cart{}, "id = ?", id).Error
	})
}

var _ order.CartRepository = (*GormCartRepository)(nil)
