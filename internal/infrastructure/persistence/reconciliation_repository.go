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

// GormReconciliationRepository implements settlement.ReconciliationRepository
// using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByID finds a reconciliation by its ID
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Reconciliation, error) {
	var rec settlement.Reconciliation
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByAgentAndDate finds the agent's reconciliation row for a calendar day
func (r *GormReconciliationRepository) FindByAgentAndDate(ctx context.Context, agentID uuid.UUID, date time.Time) (*settlement.Reconciliation, error) {
	start, end := dayBounds(date)
	var rec settlement.Reconciliation
	if err := r.db.WithContext(ctx).
		Where("delivery_person_id = ? AND date >= ? AND date < ?", agentID, start, end).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByDate finds all reconciliations for a calendar day
func (r *GormReconciliationRepository) FindByDate(ctx context.Context, date time.Time) ([]*settlement.Reconciliation, error) {
	start, end := dayBounds(date)
	var recs []*settlement.Reconciliation
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// FindByStatus returns a page of reconciliations in a given status
func (r *GormReconciliationRepository) FindByStatus(ctx context.Context, status settlement.ReconciliationStatus, limit, offset int) ([]*settlement.Reconciliation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&settlement.Reconciliation{}).
		Where("status = ?", status).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []*settlement.Reconciliation
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("date DESC").
		Limit(limit).Offset(offset).
		Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Save creates or updates a reconciliation
func (r *GormReconciliationRepository) Save(ctx context.Context, reconciliation *settlement.Reconciliation) error {
	return r.db.WithContext(ctx).Save(reconciliation).Error
}

// SaveWithLock saves a reconciliation with an optimistic version check
func (r *GormReconciliationRepository) SaveWithLock(ctx context.Context, reconciliation *settlement.Reconciliation) error {
	reconciliation.IncrementVersion()
	result := r.db.WithContext(ctx).Model(&settlement.Reconciliation{}).
		Where("id = ? AND version = ?", reconciliation.ID, reconciliation.Version-1).
		Updates(map[string]any{
			"total_orders_count": reconciliation.TotalOrdersCount,
			"total_cod_amount":   reconciliation.TotalCodAmount,
			"collected_amount":   reconciliation.CollectedAmount,
			"discrepancy":        reconciliation.Discrepancy,
			"status":             reconciliation.Status,
			"notes":              reconciliation.Notes,
			"verified_by":        reconciliation.VerifiedBy,
			"verified_at":        reconciliation.VerifiedAt,
			"version":            reconciliation.Version,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ settlement.ReconciliationRepository = (*GormReconciliationRepository)(nil)
