package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// in-memory repositories backing the service tests

type memEarningRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*settlement.Earning
}

func newMemEarningRepo() *memEarningRepo {
	return &memEarningRepo{rows: make(map[uuid.UUID]*settlement.Earning)}
}

func (r *memEarningRepo) FindByID(_ context.Context, id uuid.UUID) (*settlement.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memEarningRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]*settlement.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Earning
	for _, e := range r.rows {
		if e.OrderID == orderID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memEarningRepo) FindByVendorID(_ context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Earning, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Earning
	for _, e := range r.rows {
		if e.VendorID == vendorID {
			result = append(result, e)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memEarningRepo) FindPromotable(_ context.Context, now time.Time, limit int) ([]*settlement.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Earning
	for _, e := range r.rows {
		if e.Status == settlement.EarningPending && e.AvailableAt != nil && !now.Before(*e.AvailableAt) && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memEarningRepo) Save(_ context.Context, e *settlement.Earning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.ID] = e
	return nil
}

func (r *memEarningRepo) SaveAll(ctx context.Context, earnings []*settlement.Earning) error {
	for _, e := range earnings {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memEarningRepo) SaveWithLock(_ context.Context, e *settlement.Earning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.IncrementVersion()
	r.rows[e.ID] = e
	return nil
}

func (r *memEarningRepo) ClaimForPayout(_ context.Context, vendorID, payoutID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*settlement.Earning
	for _, e := range r.rows {
		if e.VendorID == vendorID && e.Status == settlement.EarningAvailable &&
			e.AvailableAt != nil && !e.AvailableAt.Before(periodStart) && e.AvailableAt.Before(periodEnd) {
			if err := e.HoldForPayout(payoutID); err != nil {
				return nil, err
			}
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (r *memEarningRepo) FindHeldByPayout(_ context.Context, payoutID uuid.UUID) ([]*settlement.Earning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var held []*settlement.Earning
	for _, e := range r.rows {
		if e.PayoutID != nil && *e.PayoutID == payoutID && e.Status == settlement.EarningHeldForPayout {
			held = append(held, e)
		}
	}
	return held, nil
}

func (r *memEarningRepo) ReleaseFromPayout(_ context.Context, payoutID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.rows {
		if e.PayoutID != nil && *e.PayoutID == payoutID && e.Status == settlement.EarningHeldForPayout {
			if err := e.ReleaseFromPayout(); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func (r *memEarningRepo) MarkPaidByPayout(_ context.Context, payoutID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.rows {
		if e.PayoutID != nil && *e.PayoutID == payoutID && e.Status == settlement.EarningHeldForPayout {
			if err := e.MarkPaid(); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

type memPayoutRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*settlement.Payout
}

func newMemPayoutRepo() *memPayoutRepo {
	return &memPayoutRepo{rows: make(map[uuid.UUID]*settlement.Payout)}
}

func (r *memPayoutRepo) FindByID(_ context.Context, id uuid.UUID) (*settlement.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPayoutRepo) FindByVendorID(_ context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Payout, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Payout
	for _, p := range r.rows {
		if p.VendorID == vendorID {
			result = append(result, p)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memPayoutRepo) FindByStatus(_ context.Context, status settlement.PayoutStatus, limit int) ([]*settlement.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Payout
	for _, p := range r.rows {
		if p.Status == status && len(result) < limit {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *memPayoutRepo) Save(_ context.Context, p *settlement.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = p
	return nil
}

func (r *memPayoutRepo) SaveWithLock(_ context.Context, p *settlement.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.IncrementVersion()
	r.rows[p.ID] = p
	return nil
}

type memReconciliationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*settlement.Reconciliation
}

func newMemReconciliationRepo() *memReconciliationRepo {
	return &memReconciliationRepo{rows: make(map[uuid.UUID]*settlement.Reconciliation)}
}

func (r *memReconciliationRepo) FindByID(_ context.Context, id uuid.UUID) (*settlement.Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return row, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memReconciliationRepo) FindByAgentAndDate(_ context.Context, agentID uuid.UUID, date time.Time) (*settlement.Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := date.UTC().Truncate(24 * time.Hour)
	for _, row := range r.rows {
		if row.DeliveryPersonID == agentID && row.Date.Equal(day) {
			return row, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReconciliationRepo) FindByDate(_ context.Context, date time.Time) ([]*settlement.Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := date.UTC().Truncate(24 * time.Hour)
	var result []*settlement.Reconciliation
	for _, row := range r.rows {
		if row.Date.Equal(day) {
			result = append(result, row)
		}
	}
	return result, nil
}

func (r *memReconciliationRepo) FindByStatus(_ context.Context, status settlement.ReconciliationStatus, limit, offset int) ([]*settlement.Reconciliation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Reconciliation
	for _, row := range r.rows {
		if row.Status == status {
			result = append(result, row)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memReconciliationRepo) Save(_ context.Context, row *settlement.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[row.ID] = row
	return nil
}

func (r *memReconciliationRepo) SaveWithLock(_ context.Context, row *settlement.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.IncrementVersion()
	r.rows[row.ID] = row
	return nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindByOrderNumber(_ context.Context, number string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, int64, error) {
	return nil, 0, nil
}

func (r *memOrderRepo) FindCodCollectedOn(_ context.Context, agentID uuid.UUID, day time.Time) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := day.UTC().Truncate(24 * time.Hour)
	var result []*order.Order
	for _, o := range r.orders {
		if o.CodCollectedBy != nil && *o.CodCollectedBy == agentID &&
			o.CodCollectedAt != nil && o.CodCollectedAt.UTC().Truncate(24*time.Hour).Equal(target) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memOrderRepo) FindCodAgentsOn(_ context.Context, day time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := day.UTC().Truncate(24 * time.Hour)
	seen := map[uuid.UUID]bool{}
	var agents []uuid.UUID
	for _, o := range r.orders {
		if o.CodCollectedBy != nil && o.CodCollectedAt != nil &&
			o.CodCollectedAt.UTC().Truncate(24*time.Hour).Equal(target) {
			if !seen[*o.CodCollectedBy] {
				seen[*o.CodCollectedBy] = true
				agents = append(agents, *o.CodCollectedBy)
			}
		}
	}
	return agents, nil
}

func (r *memOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) SaveWithLock(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.IncrementVersion()
	r.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) NextOrderNumber(_ context.Context) (string, error) {
	return "ORD-000001", nil
}

// fakeLocker runs the function inline, recording the keys it locked
type fakeLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return fn(ctx)
}

// fakeProcessor records transfers and can be told to fail
type fakeProcessor struct {
	failTransfer bool
	transfers    []uuid.UUID
}

func (p *fakeProcessor) Transfer(_ context.Context, payout *settlement.Payout) (string, error) {
	if p.failTransfer {
		return "", fmt.Errorf("insufficient platform balance")
	}
	p.transfers = append(p.transfers, payout.ID)
	return "tr_" + payout.ID.String(), nil
}
