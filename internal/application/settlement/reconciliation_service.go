package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serializes work on a named resource across processes. The
// reconciliation generator locks per (agent, date) so two app instances
// running the nightly job cannot write conflicting rows.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// ReconciliationService aggregates COD cash collections into per-agent,
// per-day reconciliation rows and carries them through verification
type ReconciliationService struct {
	scope          TransactionScope
	locker         Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	lockTTL        time.Duration
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(scope TransactionScope, locker Locker, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		scope:   scope,
		locker:  locker,
		logger:  logger,
		lockTTL: 30 * time.Second,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GenerationStats contains statistics about one generation run
type GenerationStats struct {
	Agents      int       `json:"agents"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// GenerateForDate builds or refreshes the reconciliation rows for every
// agent who collected COD cash on the given day. Re-running the job is
// safe: pending rows are re-aggregated from scratch, verified and disputed
// rows are left untouched.
func (s *ReconciliationService) GenerateForDate(ctx context.Context, date time.Time) (*GenerationStats, error) {
	stats := &GenerationStats{ProcessedAt: time.Now().UTC()}
	day := date.UTC().Truncate(24 * time.Hour)

	var agents []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		agents, err = repos.Orders().FindCodAgentsOn(ctx, day)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list COD agents", zap.Error(err))
		return nil, err
	}
	stats.Agents = len(agents)

	for _, agentID := range agents {
		created, err := s.generateForAgent(ctx, agentID, day)
		if err != nil {
			s.logger.Error("Failed to reconcile agent",
				zap.String("agent_id", agentID.String()),
				zap.Time("date", day),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	s.logger.Info("Completed COD reconciliation generation",
		zap.Time("date", day),
		zap.Int("agents", stats.Agents),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// GenerateForAgent builds or refreshes one agent's reconciliation row for a
// day, serialized by a distributed lock
func (s *ReconciliationService) GenerateForAgent(ctx context.Context, agentID uuid.UUID, date time.Time) (*ReconciliationResponse, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	if _, err := s.generateForAgent(ctx, agentID, day); err != nil {
		return nil, err
	}

	var resp *ReconciliationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		row, err := repos.Reconciliations().FindByAgentAndDate(ctx, agentID, day)
		if err != nil {
			return err
		}
		r := ToReconciliationResponse(row)
		resp = &r
		return nil
	})
	return resp, err
}

func (s *ReconciliationService) generateForAgent(ctx context.Context, agentID uuid.UUID, day time.Time) (bool, error) {
	key := fmt.Sprintf("reconciliation:%s:%s", agentID, day.Format("2006-01-02"))
	var created bool
	err := s.locker.WithLock(ctx, key, s.lockTTL, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			orders, err := repos.Orders().FindCodCollectedOn(ctx, agentID, day)
			if err != nil {
				return err
			}
			lines := make([]settlement.ReconciliationLine, 0, len(orders))
			for _, o := range orders {
				lines = append(lines, settlement.ReconciliationLine{
					OrderID:   o.ID,
					Expected:  o.Total,
					Collected: o.CodAmountCollected,
				})
			}

			existing, err := repos.Reconciliations().FindByAgentAndDate(ctx, agentID, day)
			if err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				row, err := settlement.NewReconciliation(agentID, day, lines)
				if err != nil {
					return err
				}
				created = true
				if err := repos.Reconciliations().Save(ctx, row); err != nil {
					return err
				}
				s.publishRowEvents(ctx, row)
				return nil
			}

			if existing.Status != settlement.ReconciliationPending {
				// settled history; a late collection needs manual handling
				return nil
			}
			if err := existing.Reaggregate(lines); err != nil {
				return err
			}
			return repos.Reconciliations().SaveWithLock(ctx, existing)
		})
	})
	return created, err
}

// Verify signs off a reconciliation row
func (s *ReconciliationService) Verify(ctx context.Context, reconciliationID, verifiedBy uuid.UUID, notes string) (*ReconciliationResponse, error) {
	var updated *settlement.Reconciliation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		row, err := repos.Reconciliations().FindByID(ctx, reconciliationID)
		if err != nil {
			return err
		}
		if err := row.Verify(verifiedBy, notes); err != nil {
			return err
		}
		if err := repos.Reconciliations().SaveWithLock(ctx, row); err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishRowEvents(ctx, updated)
	resp := ToReconciliationResponse(updated)
	return &resp, nil
}

// Dispute flags a reconciliation row for investigation
func (s *ReconciliationService) Dispute(ctx context.Context, reconciliationID, raisedBy uuid.UUID, notes string) (*ReconciliationResponse, error) {
	var updated *settlement.Reconciliation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		row, err := repos.Reconciliations().FindByID(ctx, reconciliationID)
		if err != nil {
			return err
		}
		if err := row.Dispute(raisedBy, notes); err != nil {
			return err
		}
		if err := repos.Reconciliations().SaveWithLock(ctx, row); err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishRowEvents(ctx, updated)
	resp := ToReconciliationResponse(updated)
	return &resp, nil
}

// ListByStatus retrieves reconciliation rows by verification state
func (s *ReconciliationService) ListByStatus(ctx context.Context, status settlement.ReconciliationStatus, limit, offset int) ([]ReconciliationResponse, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	var responses []ReconciliationResponse
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rows, count, err := repos.Reconciliations().FindByStatus(ctx, status, limit, offset)
		if err != nil {
			return err
		}
		total = count
		responses = make([]ReconciliationResponse, 0, len(rows))
		for _, row := range rows {
			responses = append(responses, ToReconciliationResponse(row))
		}
		return nil
	})
	return responses, total, err
}

func (s *ReconciliationService) publishRowEvents(ctx context.Context, r *settlement.Reconciliation) {
	if s.eventPublisher == nil || r == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, r.GetDomainEvents()...)
	r.ClearDomainEvents()
}
