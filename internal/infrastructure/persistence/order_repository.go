package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withOrderAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})
}

// FindByID finds an order with its items and status history
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := withOrderAssociations(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its human-readable number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	var o order.Order
	if err := withOrderAssociations(r.db.WithContext(ctx)).
		First(&o, "order_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByUserID returns a page of the user's orders, newest first
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*order.Order
	if err := withOrderAssociations(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindCodCollectedOn returns COD orders whose cash the agent collected on
// the given calendar day
func (r *GormOrderRepository) FindCodCollectedOn(ctx context.Context, agentID uuid.UUID, day time.Time) ([]*order.Order, error) {
	start, end := dayBounds(day)
	var orders []*order.Order
	if err := withOrderAssociations(r.db.WithContext(ctx)).
		Where("payment_method = ? AND cod_collected_by = ? AND cod_collected_at >= ? AND cod_collected_at < ?",
			order.PaymentMethodCod, agentID, start, end).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindCodAgentsOn returns the distinct agents who collected COD cash on the
// given day
func (r *GormOrderRepository) FindCodAgentsOn(ctx context.Context, day time.Time) ([]uuid.UUID, error) {
	start, end := dayBounds(day)
	var agents []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&order.Order{}).
		Distinct("cod_collected_by").
		Where("payment_method = ? AND cod_collected_by IS NOT NULL AND cod_collected_at >= ? AND cod_collected_at < ?",
			order.PaymentMethodCod, start, end).
		Pluck("cod_collected_by", &agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// Save creates or updates an order with its items and status history
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
}

// SaveWithLock persists the order's mutable fields with an optimistic
// version check, then upserts items and status history. Items and history
// rows are never removed, only added or updated, so an upsert suffices.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	o.IncrementVersion()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, o.Version-1).
			Updates(map[string]any{
				"status":               o.Status,
				"payment_status":       o.PaymentStatus,
				"payment_ref":          o.PaymentRef,
				"paid_at":              o.PaidAt,
				"delivered_at":         o.DeliveredAt,
				"cancelled_at":         o.CancelledAt,
				"refunded_amount":      o.RefundedAmount,
				"cod_amount_collected": o.CodAmountCollected,
				"cod_collected_at":     o.CodCollectedAt,
				"cod_collected_by":     o.CodCollectedBy,
				"delivery_person_id":   o.DeliveryPersonID,
				"history_seq":          o.HistorySeq,
				"version":              o.Version,
				"updated_at":           time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(o.Items) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&o.Items).Error; err != nil {
				return err
			}
		}
		if len(o.StatusHistory) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&o.StatusHistory).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// NextOrderNumber issues a unique order number from a database sequence
func (r *GormOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.WithContext(ctx).Raw("SELECT nextval('order_number_seq')").Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)
