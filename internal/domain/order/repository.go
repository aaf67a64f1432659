package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartRepository handles cart persistence
type CartRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	FindBySessionToken(ctx context.Context, token string) (*Cart, error)
	FindExpired(ctx context.Context, limit int) ([]*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponRepository handles coupon persistence
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, coupon *Coupon) error
	// IncrementUsage bumps used_count only while under max_uses, returning
	// false when the coupon is exhausted
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

// OrderRepository handles order persistence. Orders are soft-deleted only.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int64, error)
	// FindCodCollectedOn returns COD orders whose cash was collected by the
	// given agent on the given calendar day, for reconciliation
	FindCodCollectedOn(ctx context.Context, agentID uuid.UUID, day time.Time) ([]*Order, error)
	// FindCodAgentsOn returns the distinct agents who collected COD cash on
	// the given day
	FindCodAgentsOn(ctx context.Context, day time.Time) ([]uuid.UUID, error)
	Save(ctx context.Context, order *Order) error
	// SaveWithLock persists the order with optimistic locking on Version
	SaveWithLock(ctx context.Context, order *Order) error
	// NextOrderNumber issues a unique, human-readable order number
	NextOrderNumber(ctx context.Context) (string, error)
}
