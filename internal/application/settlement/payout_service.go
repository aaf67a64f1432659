package settlement

import (
	"context"
	"time"

	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutProcessor moves money to the vendor over an external rail. The
// settlement core only cares whether the transfer landed.
type PayoutProcessor interface {
	Transfer(ctx context.Context, payout *settlement.Payout) (string, error)
}

// PayoutConfig carries the fee schedule for payout batches
type PayoutConfig struct {
	FeeRate decimal.Decimal
	FeeFlat valueobject.Money
}

// PayoutService assembles and settles payout batches. Earning selection is
// a conditional bulk update keyed on the payout ID, so two concurrent batch
// runs for the same vendor can never claim the same earning row.
type PayoutService struct {
	scope          TransactionScope
	processor      PayoutProcessor
	eventPublisher shared.EventPublisher
	cfg            PayoutConfig
}

// NewPayoutService creates a PayoutService
func NewPayoutService(scope TransactionScope, processor PayoutProcessor, cfg PayoutConfig) *PayoutService {
	return &PayoutService{
		scope:     scope,
		processor: processor,
		cfg:       cfg,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PayoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateBatch claims the vendor's available earnings inside the period and
// creates a pending payout over them. The claim and the payout row commit
// atomically; on any failure the claim rolls back with the transaction.
func (s *PayoutService) CreateBatch(ctx context.Context, vendorID uuid.UUID, periodStart, periodEnd time.Time, method settlement.PayoutMethod) (*PayoutResponse, error) {
	// the payout ID is issued up front so the claiming update can stamp it
	// onto the earning rows before the payout row itself exists
	payoutID := uuid.New()

	var created *settlement.Payout
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		claimed, err := repos.Earnings().ClaimForPayout(ctx, vendorID, payoutID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return shared.NewDomainError("NO_PAYABLE_EARNINGS", "No available earnings in the period")
		}

		amount := valueobject.Zero()
		for _, e := range claimed {
			amount = amount.Add(e.Net)
		}
		fee := amount.ApplyRate(s.cfg.FeeRate).Add(s.cfg.FeeFlat)

		payout, err := settlement.NewPayout(vendorID, periodStart, periodEnd, len(claimed), amount, fee, method)
		if err != nil {
			return err
		}
		payout.ID = payoutID
		if err := repos.Payouts().Save(ctx, payout); err != nil {
			return err
		}
		created = payout
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, created)
	resp := ToPayoutResponse(created)
	return &resp, nil
}

// Process runs a pending or failed payout through the external rail. The
// batch is recounted first: earnings withheld since the batch was cut are
// dropped and the totals repriced, and a batch left empty is cancelled
// instead of transferred. On success the held earnings are marked paid; on
// failure they revert to available in the same transaction so the next
// batch can pick them up.
func (s *PayoutService) Process(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error) {
	var processed *settlement.Payout
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payout, err := repos.Payouts().FindByID(ctx, payoutID)
		if err != nil {
			return err
		}

		held, err := repos.Earnings().FindHeldByPayout(ctx, payout.ID)
		if err != nil {
			return err
		}
		if len(held) == 0 {
			if err := payout.Cancel(); err != nil {
				return err
			}
			if err := repos.Payouts().SaveWithLock(ctx, payout); err != nil {
				return err
			}
			processed = payout
			return nil
		}
		if len(held) != payout.ItemsCount {
			amount := valueobject.Zero()
			for _, e := range held {
				amount = amount.Add(e.Net)
			}
			fee := amount.ApplyRate(s.cfg.FeeRate).Add(s.cfg.FeeFlat)
			if err := payout.Reprice(len(held), amount, fee); err != nil {
				return err
			}
		}

		if err := payout.StartProcessing(); err != nil {
			return err
		}

		if ref, transferErr := s.processor.Transfer(ctx, payout); transferErr != nil {
			if err := payout.Fail(transferErr.Error()); err != nil {
				return err
			}
			if _, err := repos.Earnings().ReleaseFromPayout(ctx, payout.ID); err != nil {
				return err
			}
		} else {
			if err := payout.Complete(ref); err != nil {
				return err
			}
			if _, err := repos.Earnings().MarkPaidByPayout(ctx, payout.ID); err != nil {
				return err
			}
		}

		if err := repos.Payouts().SaveWithLock(ctx, payout); err != nil {
			return err
		}
		processed = payout
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, processed)
	resp := ToPayoutResponse(processed)
	return &resp, nil
}

// Cancel abandons a pending or failed payout and returns its earnings to
// the available pool
func (s *PayoutService) Cancel(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error) {
	var cancelled *settlement.Payout
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payout, err := repos.Payouts().FindByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if err := payout.Cancel(); err != nil {
			return err
		}
		if _, err := repos.Earnings().ReleaseFromPayout(ctx, payout.ID); err != nil {
			return err
		}
		if err := repos.Payouts().SaveWithLock(ctx, payout); err != nil {
			return err
		}
		cancelled = payout
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, cancelled)
	resp := ToPayoutResponse(cancelled)
	return &resp, nil
}

// GetByID retrieves a payout
func (s *PayoutService) GetByID(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error) {
	var resp *PayoutResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payout, err := repos.Payouts().FindByID(ctx, payoutID)
		if err != nil {
			return err
		}
		r := ToPayoutResponse(payout)
		resp = &r
		return nil
	})
	return resp, err
}

// ListForVendor retrieves a vendor's payouts, newest first
func (s *PayoutService) ListForVendor(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]PayoutResponse, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	var responses []PayoutResponse
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payouts, count, err := repos.Payouts().FindByVendorID(ctx, vendorID, limit, offset)
		if err != nil {
			return err
		}
		total = count
		responses = make([]PayoutResponse, 0, len(payouts))
		for _, p := range payouts {
			responses = append(responses, ToPayoutResponse(p))
		}
		return nil
	})
	return responses, total, err
}

// ListEarningsForVendor retrieves a vendor's earnings ledger, newest first
func (s *PayoutService) ListEarningsForVendor(ctx context.Context, vendorID uuid.UUID, limit, offset int) ([]EarningResponse, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	var responses []EarningResponse
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		earnings, count, err := repos.Earnings().FindByVendorID(ctx, vendorID, limit, offset)
		if err != nil {
			return err
		}
		total = count
		responses = make([]EarningResponse, 0, len(earnings))
		for _, e := range earnings {
			responses = append(responses, ToEarningResponse(e))
		}
		return nil
	})
	return responses, total, err
}

func (s *PayoutService) publishEvents(ctx context.Context, p *settlement.Payout) {
	if s.eventPublisher == nil || p == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, p.GetDomainEvents()...)
	p.ClearDomainEvents()
}
