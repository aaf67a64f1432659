package scheduler

import (
	"context"
	"time"

	appinventory "github.com/bazaar/backend/internal/application/inventory"
	appsettlement "github.com/bazaar/backend/internal/application/settlement"
	"go.uber.org/zap"
)

// NewReservationSweepJob releases expired stock reservations so
// abandoned carts stop blocking inventory.
func NewReservationSweepJob(svc *appinventory.ReservationSweepService, interval time.Duration, logger *zap.Logger) IntervalJob {
	return IntervalJob{
		Name:     "reservation-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			stats, err := svc.ReleaseExpired(ctx)
			if err != nil {
				return err
			}
			if stats.Released > 0 {
				logger.Info("expired reservations released",
					zap.Int("released", stats.Released),
					zap.Int("failed", stats.Failed))
			}
			return nil
		},
	}
}

// NewEarningPromotionJob moves earnings whose holdback has elapsed from
// pending to available.
func NewEarningPromotionJob(svc *appsettlement.EarningSweepService, interval time.Duration, logger *zap.Logger) IntervalJob {
	return IntervalJob{
		Name:     "earning-promotion",
		Interval: interval,
		Run: func(ctx context.Context) error {
			stats, err := svc.PromoteDue(ctx)
			if err != nil {
				return err
			}
			if stats.Promoted > 0 {
				logger.Info("earnings promoted",
					zap.Int("promoted", stats.Promoted),
					zap.Int("failed", stats.Failed))
			}
			return nil
		},
	}
}

// NewReconciliationTrigger builds the nightly trigger that closes out
// the previous day's COD collections, one reconciliation row per agent.
func NewReconciliationTrigger(svc *appsettlement.ReconciliationService, config DailyTriggerConfig, logger *zap.Logger) *DailyTrigger {
	return NewDailyTrigger(config, "cod-reconciliation", func(ctx context.Context, now time.Time) error {
		stats, err := svc.GenerateForDate(ctx, now.AddDate(0, 0, -1))
		if err != nil {
			return err
		}
		logger.Info("cod reconciliation generated",
			zap.Int("agents", stats.Agents),
			zap.Int("created", stats.Created),
			zap.Int("updated", stats.Updated))
		return nil
	}, logger)
}
