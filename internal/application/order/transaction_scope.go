package order

import (
	"context"

	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
)

// TransactionScope runs order lifecycle work inside one database
// transaction. Cancelling an order releases its reservations and restores
// stock; shipping commits reservations; refunds adjust earnings. Each of
// these pairs a status write with inventory or ledger writes that must not
// tear.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in an
// order transaction, all bound to the same underlying transaction.
type TransactionalRepositories interface {
	Orders() order.OrderRepository
	Stocks() inventory.VariantStockRepository
	Reservations() inventory.ReservationRepository
	Earnings() settlement.EarningRepository
}

// NoOpTransactionScope executes the function without a real transaction,
// used in tests
type NoOpTransactionScope struct {
	orders       order.OrderRepository
	stocks       inventory.VariantStockRepository
	reservations inventory.ReservationRepository
	earnings     settlement.EarningRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	orders order.OrderRepository,
	stocks inventory.VariantStockRepository,
	reservations inventory.ReservationRepository,
	earnings settlement.EarningRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orders:       orders,
		stocks:       stocks,
		reservations: reservations,
		earnings:     earnings,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.orders }

// Stocks returns the variant stock repository
func (s *NoOpTransactionScope) Stocks() inventory.VariantStockRepository { return s.stocks }

// Reservations returns the reservation repository
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository {
	return s.reservations
}

// Earnings returns the earning repository
func (s *NoOpTransactionScope) Earnings() settlement.EarningRepository { return s.earnings }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
