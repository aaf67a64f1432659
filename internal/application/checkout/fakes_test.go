package checkout

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
	"github.com/bazaar/backend/internal/domain/vendor"
	"github.com/google/uuid"
)

// in-memory repositories backing the service tests

type memCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*order.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[uuid.UUID]*order.Cart)}
}

func (r *memCartRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCartRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*order.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if c.UserID != nil && *c.UserID == userID {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCartRepo) FindBySessionToken(_ context.Context, token string) (*order.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if c.SessionToken == token {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCartRepo) FindExpired(_ context.Context, limit int) ([]*order.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*order.Cart
	for _, c := range r.carts {
		if c.IsExpired() && len(expired) < limit {
			expired = append(expired, c)
		}
	}
	return expired, nil
}

func (r *memCartRepo) Save(_ context.Context, cart *order.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = cart
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id)
	return nil
}

type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*order.Coupon
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{coupons: make(map[string]*order.Coupon)}
}

func (r *memCouponRepo) FindByCode(_ context.Context, code string) (*order.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coupons[code]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCouponRepo) Save(_ context.Context, coupon *order.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coupons[coupon.Code] = coupon
	return nil
}

func (r *memCouponRepo) IncrementUsage(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok {
		return false, shared.ErrNotFound
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false, nil
	}
	c.UsedCount++
	return true, nil
}

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
			o.CodCollectedAt != nil && sameDay(*o.CodCollectedAt, day) {
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
		if o.CodCollectedBy != nil && o.CodCollectedAt != nil && sameDay(*o.CodCollectedAt, day) {
			if !seen[*o.CodCollectedBy] {
				seen[*o.CodCollectedBy] = true
				agents = append(agents, *o.CodCollectedBy)
			}
		}
	}
	return agents, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
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
	stocks map[uuid.UUID]*inventory.VariantStock // by variant ID
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

type memCommissionRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*settlement.Commission
}

func newMemCommissionRepo() *memCommissionRepo {
	return &memCommissionRepo{rows: make(map[uuid.UUID]*settlement.Commission)}
}

func (r *memCommissionRepo) FindByID(_ context.Context, id uuid.UUID) (*settlement.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCommissionRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]*settlement.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Commission
	for _, c := range r.rows {
		if c.OrderID == orderID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *memCommissionRepo) FindByVendorID(_ context.Context, vendorID uuid.UUID, limit, offset int) ([]*settlement.Commission, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*settlement.Commission
	for _, c := range r.rows {
		if c.VendorID == vendorID {
			result = append(result, c)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memCommissionRepo) Save(_ context.Context, c *settlement.Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
	return nil
}

func (r *memCommissionRepo) SaveAll(ctx context.Context, commissions []*settlement.Commission) error {
	for _, c := range commissions {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
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

// fakeCatalog serves static variant info
type fakeCatalog struct {
	variants map[uuid.UUID]gateway.VariantInfo
}

func (c *fakeCatalog) VariantByID(_ context.Context, variantID uuid.UUID) (*gateway.VariantInfo, error) {
	if info, ok := c.variants[variantID]; ok {
		return &info, nil
	}
	return nil, shared.ErrNotFound
}

// fakeVendorRepo serves static vendors
type fakeVendorRepo struct {
	vendors map[uuid.UUID]*vendor.Vendor
}

func (r *fakeVendorRepo) FindByID(_ context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	if v, ok := r.vendors[id]; ok {
		return v, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeVendorRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]vendor.Vendor, error) {
	var result []vendor.Vendor
	for _, id := range ids {
		if v, ok := r.vendors[id]; ok {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (r *fakeVendorRepo) Save(_ context.Context, v *vendor.Vendor) error {
	r.vendors[v.ID] = v
	return nil
}

// fakePaymentGateway records charges and can be told to fail
type fakePaymentGateway struct {
	failCharge bool
	charges    []gateway.ChargeRequest
	refunds    []valueobject.Money
}

func (g *fakePaymentGateway) Charge(_ context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	if g.failCharge {
		return nil, fmt.Errorf("card declined")
	}
	g.charges = append(g.charges, req)
	return &gateway.ChargeResult{PaymentRef: "py_" + req.OrderNumber}, nil
}

func (g *fakePaymentGateway) Refund(_ context.Context, paymentRef string, amount valueobject.Money) (string, error) {
	g.refunds = append(g.refunds, amount)
	return "re_" + paymentRef, nil
}

// fixedTax returns a constant tax amount per vendor group
type fixedTax struct{ cents int64 }

func (t fixedTax) TaxFor(_ context.Context, _ order.VendorGroup, _ order.Address) (valueobject.Money, error) {
	return valueobject.NewMoney(t.cents), nil
}

// fixedShipping returns a constant shipping rate
type fixedShipping struct{ cents int64 }

func (s fixedShipping) RateFor(_ context.Context, _ []order.VendorGroup, _ order.Address) (valueobject.Money, error) {
	return valueobject.NewMoney(s.cents), nil
}
