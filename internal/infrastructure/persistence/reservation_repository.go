package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReservationRepository implements inventory.ReservationRepository
// using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	var res inventory.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// FindByHolder finds the newest reservation held by the given holder
func (r *GormReservationRepository) FindByHolder(ctx context.Context, holderType inventory.HolderType, holderID uuid.UUID) (*inventory.Reservation, error) {
	var res inventory.Reservation
	if err := r.db.WithContext(ctx).
		Where("holder_type = ? AND holder_id = ?", holderType, holderID).
		Order("created_at DESC").
		First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// FindActiveByHolders finds open reservations held by any of the holders
func (r *GormReservationRepository) FindActiveByHolders(ctx context.Context, holderType inventory.HolderType, holderIDs []uuid.UUID) ([]inventory.Reservation, error) {
	if len(holderIDs) == 0 {
		return []inventory.Reservation{}, nil
	}
	var reservations []inventory.Reservation
	if err := r.db.WithContext(ctx).
		Where("holder_type = ? AND holder_id IN ? AND released = false AND committed = false", holderType, holderIDs).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// FindExpired finds open reservations past their expiry
func (r *GormReservationRepository) FindExpired(ctx context.Context, limit int) ([]inventory.Reservation, error) {
	var reservations []inventory.Reservation
	if err := r.db.WithContext(ctx).
		Where("released = false AND committed = false AND expires_at < ?", time.Now().UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, res *inventory.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

// MarkReleased flips an active reservation to released. The conditional
// UPDATE makes concurrent sweep and checkout writes race safely: only one
// of them closes the row.
func (r *GormReservationRepository) MarkReleased(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.closeReservation(ctx, id, "released")
}

// MarkCommitted flips an active reservation to committed
func (r *GormReservationRepository) MarkCommitted(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.closeReservation(ctx, id, "committed")
}

func (r *GormReservationRepository) closeReservation(ctx context.Context, id uuid.UUID, column string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&inventory.Reservation{}).
		Where("id = ? AND released = false AND committed = false", id).
		Updates(map[string]any{
			column:      true,
			"closed_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
