package inventory

import (
	"context"
	"time"

	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReservationSweepService reclaims stock from expired reservations.
// Abandoned carts hold real stock; without the sweep that stock would stay
// unsellable forever.
type ReservationSweepService struct {
	reservationRepo inventory.ReservationRepository
	stockRepo       inventory.VariantStockRepository
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	batchSize       int
}

// NewReservationSweepService creates a ReservationSweepService
func NewReservationSweepService(
	reservationRepo inventory.ReservationRepository,
	stockRepo inventory.VariantStockRepository,
	logger *zap.Logger,
	batchSize int,
) *ReservationSweepService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ReservationSweepService{
		reservationRepo: reservationRepo,
		stockRepo:       stockRepo,
		logger:          logger,
		batchSize:       batchSize,
	}
}

// SetEventPublisher sets the event publisher for expiry notifications
func (s *ReservationSweepService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SweepStats contains statistics about one sweep run
type SweepStats struct {
	TotalExpired int       `json:"total_expired"`
	Released     int       `json:"released"`
	Failed       int       `json:"failed"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ReleaseExpired finds expired reservations and returns their quantities to
// the available pool. The conditional MarkReleased keeps the sweep safe
// against a concurrent checkout converting the same reservation: whichever
// write lands first wins and the other becomes a no-op.
func (s *ReservationSweepService) ReleaseExpired(ctx context.Context) (*SweepStats, error) {
	stats := &SweepStats{ProcessedAt: time.Now().UTC()}

	expired, err := s.reservationRepo.FindExpired(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to find expired reservations", zap.Error(err))
		return nil, err
	}
	stats.TotalExpired = len(expired)
	if stats.TotalExpired == 0 {
		s.logger.Debug("No expired reservations found")
		return stats, nil
	}

	s.logger.Info("Found expired reservations", zap.Int("count", stats.TotalExpired))

	for i := range expired {
		res := &expired[i]
		released, err := s.reservationRepo.MarkReleased(ctx, res.ID)
		if err != nil {
			s.logger.Error("Failed to release expired reservation",
				zap.String("reservation_id", res.ID.String()),
				zap.String("variant_id", res.VariantID.String()),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		if !released {
			// closed by checkout or an explicit removal in the meantime
			continue
		}
		if err := s.stockRepo.ReleaseQuantity(ctx, res.VariantID, res.Quantity); err != nil {
			s.logger.Error("Failed to return reserved quantity",
				zap.String("variant_id", res.VariantID.String()),
				zap.Int64("quantity", res.Quantity),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		stats.Released++

		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, inventory.NewReservationExpiredEvent(res))
		}
	}

	s.logger.Info("Completed reservation sweep",
		zap.Int("total", stats.TotalExpired),
		zap.Int("released", stats.Released),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
