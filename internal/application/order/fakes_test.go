package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// in-memory repositories backing the service tests

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
	seq    int
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*order.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memOrderRepo) FindCodCollectedOn(_ context.Context, agentID uuid.UUID, day time.Time) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*order.Order
	for _, o := range r.orders {
		if o.CodCollectedBy != nil && *o.CodCollectedBy == agentID &&
			o.CodCollectedAt != nil && o.CodCollectedAt.UTC().Truncate(24*time.Hour).Equal(day.UTC().Truncate(24*time.Hour)) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memOrderRepo) FindCodAgentsOn(_ context.Context, day time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var agents []uuid.UUID
	for _, o := range r.orders {
		if o.CodCollectedBy != nil && o.CodCollectedAt != nil &&
			o.CodCollectedAt.UTC().Truncate(24*time.Hour).Equal(day.UTC().Truncate(24*time.Hour)) {
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("ORD-%06d", r.seq), nil
}

type memStockRepo struct {
	mu     sync.Mutex
	stocks map[uuid.UUID]*inventory.VariantStock
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{stocks: make(map[uuid.UUID]*inventory.VariantStock)}
}

func (r *memStockRepo) add(stock *inventory.VariantStock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[stock.VariantID] = stock
}

func (r *memStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.VariantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByVariantID(_ context.Context, variantID uuid.UUID) (*inventory.VariantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[variantID]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByVariantIDs(_ context.Context, variantIDs []uuid.UUID) ([]inventory.VariantStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []inventory.VariantStock
	for _, id := range variantIDs {
		if s, ok := r.stocks[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *memStockRepo) Save(_ context.Context, stock *inventory.VariantStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[stock.VariantID] = stock
	return nil
}

func (r *memStockRepo) SaveWithLock(_ context.Context, stock *inventory.VariantStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock.IncrementVersion()
	r.stocks[stock.VariantID] = stock
	return nil
}

func (r *memStockRepo) TryReserve(_ context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return false, shared.ErrNotFound
	}
	if s.Available() < qty {
		return false, nil
	}
	s.Reserved += qty
	return true, nil
}

func (r *memStockRepo) ReleaseQuantity(_ context.Context, variantID uuid.UUID, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return shared.ErrNotFound
	}
	s.Reserved -= qty
	return nil
}

func (r *memStockRepo) CommitQuantity(_ context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return false, shared.ErrNotFound
	}
	if s.Reserved < qty || s.OnHand < qty {
		return false, nil
	}
	s.Reserved -= qty
	s.OnHand -= qty
	return true, nil
}

func (r *memStockRepo) RestockQuantity(_ context.Context, variantID uuid.UUID, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[variantID]
	if !ok {
		return shared.ErrNotFound
	}
	s.OnHand += qty
	return nil
}

type memReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*inventory.Reservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{reservations: make(map[uuid.UUID]*inventory.Reservation)}
}

func (r *memReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.reservations[id]; ok {
		return res, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memReservationRepo) FindByHolder(_ context.Context, holderType inventory.HolderType, holderID uuid.UUID) (*inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reservations {
		if res.HolderType == holderType && res.HolderID == holderID {
			return res, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReservationRepo) FindActiveByHolders(_ context.Context, holderType inventory.HolderType, holderIDs []uuid.UUID) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := map[uuid.UUID]bool{}
	for _, id := range holderIDs {
		wanted[id] = true
	}
	var result []inventory.Reservation
	for _, res := range r.reservations {
		if res.HolderType == holderType && wanted[res.HolderID] && res.IsActive() {
			result = append(result, *res)
		}
	}
	return result, nil
}

func (r *memReservationRepo) FindExpired(_ context.Context, limit int) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []inventory.Reservation
	for _, res := range r.reservations {
		if res.IsActive() && res.IsExpired() && len(result) < limit {
			result = append(result, *res)
		}
	}
	return result, nil
}

func (r *memReservationRepo) Save(_ context.Context, res *inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = res
	return nil
}

func (r *memReservationRepo) MarkReleased(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if !res.IsActive() {
		return false, nil
	}
	res.Release()
	return true, nil
}

func (r *memReservationRepo) MarkCommitted(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if !res.IsActive() {
		return false, nil
	}
	res.Commit()
	return true, nil
}

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

// fakePaymentGateway records refunds and can be told to fail
type fakePaymentGateway struct {
	failRefund bool
	refunds    []valueobject.Money
}

func (g *fakePaymentGateway) Charge(_ context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	return &gateway.ChargeResult{PaymentRef: "py_" + req.OrderNumber}, nil
}

func (g *fakePaymentGateway) Refund(_ context.Context, paymentRef string, amount valueobject.Money) (string, error) {
	if g.failRefund {
		return "", fmt.Errorf("refund rejected")
	}
	g.refunds = append(g.refunds, amount)
	return "re_" + paymentRef, nil
}
