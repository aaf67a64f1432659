package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommissionRepository handles commission persistence
type CommissionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Commission, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Commission, error)
	FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*Commission, int64, error)
	Save(ctx context.Context, commission *Commission) error
	SaveAll(ctx context.Context, commissions []*Commission) error
}

// EarningRepository handles vendor earning persistence. The status-flipping
// methods perform conditional updates so concurrent sweeps and payout
// batches cannot double-claim a row.
type EarningRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Earning, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Earning, error)
	FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*Earning, int64, error)
	// FindPromotable returns pending earnings whose holdback elapsed before now
	FindPromotable(ctx context.Context, now time.Time, limit int) ([]*Earning, error)
	Save(ctx context.Context, earning *Earning) error
	SaveAll(ctx context.Context, earnings []*Earning) error
	// SaveWithLock persists the earning with optimistic locking on Version
	SaveWithLock(ctx context.Context, earning *Earning) error
	// ClaimForPayout atomically flips the vendor's available earnings inside
	// the period to held_for_payout and returns the claimed rows. A row
	// claimed by a concurrent batch is skipped, never claimed twice.
	ClaimForPayout(ctx context.Context, vendorID, payoutID uuid.UUID, periodStart, periodEnd time.Time) ([]*Earning, error)
	// FindHeldByPayout returns the earnings still held for the payout. Rows
	// withheld after the batch was cut no longer appear here.
	FindHeldByPayout(ctx context.Context, payoutID uuid.UUID) ([]*Earning, error)
	// ReleaseFromPayout flips a payout's held earnings back to available,
	// returning how many rows reverted
	ReleaseFromPayout(ctx context.Context, payoutID uuid.UUID) (int64, error)
	// MarkPaidByPayout flips a payout's held earnings to paid
	MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID) (int64, error)
}

// PayoutRepository handles payout persistence
type PayoutRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payout, error)
	FindByVendorID(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]*Payout, int64, error)
	FindByStatus(ctx context.Context, status PayoutStatus, limit int) ([]*Payout, error)
	Save(ctx context.Context, payout *Payout) error
	SaveWithLock(ctx context.Context, payout *Payout) error
}

// ReconciliationRepository handles COD reconciliation persistence
type ReconciliationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	FindByAgentAndDate(ctx context.Context, agentID uuid.UUID, date time.Time) (*Reconciliation, error)
	FindByDate(ctx context.Context, date time.Time) ([]*Reconciliation, error)
	FindByStatus(ctx context.Context, status ReconciliationStatus, limit, offset int) ([]*Reconciliation, int64, error)
	Save(ctx context.Context, reconciliation *Reconciliation) error
	SaveWithLock(ctx context.Context, reconciliation *Reconciliation) error
}
