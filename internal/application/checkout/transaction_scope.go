package checkout

import (
	"context"

	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
)

// TransactionScope runs checkout work inside one database transaction.
// Converting reservations, creating the order with its items, writing
// commission and earning rows and destroying the cart must all commit or
// roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in a
// checkout transaction, all bound to the same underlying transaction.
type TransactionalRepositories interface {
	Carts() order.CartRepository
	Coupons() order.CouponRepository
	Orders() order.OrderRepository
	Stocks() inventory.VariantStockRepository
	Reservations() inventory.ReservationRepository
	Commissions() settlement.CommissionRepository
	Earnings() settlement.EarningRepository
}

// NoOpTransactionScope executes the function without a real transaction,
// used in tests
type NoOpTransactionScope struct {
	carts        order.CartRepository
	coupons      order.CouponRepository
	orders       order.OrderRepository
	stocks       inventory.VariantStockRepository
	reservations inventory.ReservationRepository
	commissions  settlement.CommissionRepository
	earnings     settlement.EarningRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	carts order.CartRepository,
	coupons order.CouponRepository,
	orders order.OrderRepository,
	stocks inventory.VariantStockRepository,
	reservations inventory.ReservationRepository,
	commissions settlement.CommissionRepository,
	earnings settlement.EarningRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		carts:        carts,
		coupons:      coupons,
		orders:       orders,
		stocks:       stocks,
		reservations: reservations,
		commissions:  commissions,
		earnings:     earnings,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Carts returns the cart repository
func (s *NoOpTransactionScope) Carts() order.CartRepository { return s.carts }

// Coupons returns the coupon repository
func (s *NoOpTransactionScope) Coupons() order.CouponRepository { return s.coupons }

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.orders }

// Stocks returns the variant stock repository
func (s *NoOpTransactionScope) Stocks() inventory.VariantStockRepository { return s.stocks }

// Reservations returns the reservation repository
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository {
	return s.reservations
}

// Commissions returns the commission repository
func (s *NoOpTransactionScope) Commissions() settlement.CommissionRepository {
	return s.commissions
}

// Earnings returns the earning repository
func (s *NoOpTransactionScope) Earnings() settlement.EarningRepository { return s.earnings }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
