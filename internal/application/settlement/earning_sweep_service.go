package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EarningSweepService promotes pending vendor earnings to available once
// their post-delivery holdback has elapsed
type EarningSweepService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	batchSize      int
}

// NewEarningSweepService creates an EarningSweepService
func NewEarningSweepService(scope TransactionScope, logger *zap.Logger, batchSize int) *EarningSweepService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &EarningSweepService{
		scope:     scope,
		logger:    logger,
		batchSize: batchSize,
	}
}

// SetEventPublisher sets the event publisher for promotion notifications
func (s *EarningSweepService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// PromotionStats contains statistics about one promotion run
type PromotionStats struct {
	TotalDue    int       `json:"total_due"`
	Promoted    int       `json:"promoted"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// PromoteDue finds pending earnings whose holdback elapsed and makes them
// available for payout. An earning whose order is inside an open refund
// window is skipped and retried on the next run; optimistic lock conflicts
// with a concurrent refund are also skipped, not failed.
func (s *EarningSweepService) PromoteDue(ctx context.Context) (*PromotionStats, error) {
	now := time.Now().UTC()
	stats := &PromotionStats{ProcessedAt: now}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		due, err := repos.Earnings().FindPromotable(ctx, now, s.batchSize)
		if err != nil {
			s.logger.Error("Failed to find promotable earnings", zap.Error(err))
			return err
		}
		stats.TotalDue = len(due)
		if stats.TotalDue == 0 {
			s.logger.Debug("No earnings due for promotion")
			return nil
		}

		for _, earning := range due {
			ok, err := s.promoteOne(ctx, repos, earning, now)
			if err != nil {
				s.logger.Error("Failed to promote earning",
					zap.String("earning_id", earning.ID.String()),
					zap.String("vendor_id", earning.VendorID.String()),
					zap.Error(err),
				)
				stats.Failed++
				continue
			}
			if ok {
				stats.Promoted++
			} else {
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalDue > 0 {
		s.logger.Info("Completed earning promotion sweep",
			zap.Int("due", stats.TotalDue),
			zap.Int("promoted", stats.Promoted),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats, nil
}

func (s *EarningSweepService) promoteOne(ctx context.Context, repos TransactionalRepositories, earning *settlement.Earning, now time.Time) (bool, error) {
	o, err := repos.Orders().FindByID(ctx, earning.OrderID)
	if err != nil {
		return false, err
	}
	if s.inRefundWindow(o) {
		s.logger.Debug("Skipping earning with open refund window",
			zap.String("earning_id", earning.ID.String()),
			zap.String("order_number", o.OrderNumber),
		)
		return false, nil
	}

	if err := earning.Promote(now); err != nil {
		return false, err
	}
	if err := repos.Earnings().SaveWithLock(ctx, earning); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return false, nil
		}
		return false, err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, earning.GetDomainEvents()...)
		earning.ClearDomainEvents()
	}
	return true, nil
}

// inRefundWindow reports whether the order still carries refund exposure
// that should block promotion
func (s *EarningSweepService) inRefundWindow(o *order.Order) bool {
	return o.PaymentStatus == order.PaymentPartiallyRefunded ||
		o.PaymentStatus == order.PaymentRefunded ||
		o.Status == order.StatusCancelled
}
