package settlement

import (
	"context"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
)

// TransactionScope runs settlement work inside one database transaction.
// The payout engine's earning claims and reversals must be atomic with the
// payout status writes, or earnings could be paid twice or stranded.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in a
// settlement transaction, all bound to the same underlying transaction.
type TransactionalRepositories interface {
	Earnings() settlement.EarningRepository
	Payouts() settlement.PayoutRepository
	Reconciliations() settlement.ReconciliationRepository
	Orders() order.OrderRepository
}

// NoOpTransactionScope executes the function without a real transaction,
// used in tests
type NoOpTransactionScope struct {
	earnings        settlement.EarningRepository
	payouts         settlement.PayoutRepository
	reconciliations settlement.ReconciliationRepository
	orders          order.OrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	earnings settlement.EarningRepository,
	payouts settlement.PayoutRepository,
	reconciliations settlement.ReconciliationRepository,
	orders order.OrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		earnings:        earnings,
		payouts:         payouts,
		reconciliations: reconciliations,
		orders:          orders,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Earnings returns the earning repository
func (s *NoOpTransactionScope) Earnings() settlement.EarningRepository { return s.earnings }

// Payouts returns the payout repository
func (s *NoOpTransactionScope) Payouts() settlement.PayoutRepository { return s.payouts }

// Reconciliations returns the reconciliation repository
func (s *NoOpTransactionScope) Reconciliations() settlement.ReconciliationRepository {
	return s.reconciliations
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.orders }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
