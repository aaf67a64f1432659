package persistence

import (
	"context"

	appcheckout "github.com/bazaar/backend/internal/application/checkout"
	apporder "github.com/bazaar/backend/internal/application/order"
	appsettlement "github.com/bazaar/backend/internal/application/settlement"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"gorm.io/gorm"
)

// GormCheckoutScope implements the checkout TransactionScope using GORM
// transactions. Cart destruction, order creation, reservation conversion
// and the commission/earning writes commit or roll back as one unit.
type GormCheckoutScope struct {
	db *gorm.DB
}

// NewGormCheckoutScope creates a new GormCheckoutScope
func NewGormCheckoutScope(db *gorm.DB) *GormCheckoutScope {
	return &GormCheckoutScope{db: db}
}

// Execute runs the function within a database transaction
func (s *GormCheckoutScope) Execute(ctx context.Context, fn func(repos appcheckout.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCheckoutRepos{tx: tx})
	})
}

type gormCheckoutRepos struct {
	tx *gorm.DB
}

func (r *gormCheckoutRepos) Carts() order.CartRepository     { return NewGormCartRepository(r.tx) }
func (r *gormCheckoutRepos) Coupons() order.CouponRepository { return NewGormCouponRepository(r.tx) }
func (r *gormCheckoutRepos) Orders() order.OrderRepository   { return NewGormOrderRepository(r.tx) }
func (r *gormCheckoutRepos) Stocks() inventory.VariantStockRepository {
	return NewGormVariantStockRepository(r.tx)
}
func (r *gormCheckoutRepos) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}
func (r *gormCheckoutRepos) Commissions() settlement.CommissionRepository {
	return NewGormCommissionRepository(r.tx)
}
func (r *gormCheckoutRepos) Earnings() settlement.EarningRepository {
	return NewGormEarningRepository(r.tx)
}

var _ appcheckout.TransactionScope = (*GormCheckoutScope)(nil)
var _ appcheckout.TransactionalRepositories = (*gormCheckoutRepos)(nil)

// GormOrderScope implements the order lifecycle TransactionScope using
// GORM transactions
type GormOrderScope struct {
	db *gorm.DB
}

// NewGormOrderScope creates a new GormOrderScope
func NewGormOrderScope(db *gorm.DB) *GormOrderScope {
	return &GormOrderScope{db: db}
}

// Execute runs the function within a database transaction
func (s *GormOrderScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderRepos{tx: tx})
	})
}

type gormOrderRepos struct {
	tx *gorm.DB
}

func (r *gormOrderRepos) Orders() order.OrderRepository { return NewGormOrderRepository(r.tx) }
func (r *gormOrderRepos) Stocks() inventory.VariantStockRepository {
	return NewGormVariantStockRepository(r.tx)
}
func (r *gormOrderRepos) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}
func (r *gormOrderRepos) Earnings() settlement.EarningRepository {
	return NewGormEarningRepository(r.tx)
}

var _ apporder.TransactionScope = (*GormOrderScope)(nil)
var _ apporder.TransactionalRepositories = (*gormOrderRepos)(nil)

// GormSettlementScope implements the settlement TransactionScope using
// GORM transactions
type GormSettlementScope struct {
	db *gorm.DB
}

// NewGormSettlementScope creates a new GormSettlementScope
func NewGormSettlementScope(db *gorm.DB) *GormSettlementScope {
	return &GormSettlementScope{db: db}
}

// Execute runs the function within a database transaction
func (s *GormSettlementScope) Execute(ctx context.Context, fn func(repos appsettlement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSettlementRepos{tx: tx})
	})
}

type gormSettlementRepos struct {
	tx *gorm.DB
}

func (r *gormSettlementRepos) Earnings() settlement.EarningRepository {
	return NewGormEarningRepository(r.tx)
}
func (r *gormSettlementRepos) Payouts() settlement.PayoutRepository {
	return NewGormPayoutRepository(r.tx)
}
func (r *gormSettlementRepos) Reconciliations() settlement.ReconciliationRepository {
	return NewGormReconciliationRepository(r.tx)
}
func (r *gormSettlementRepos) Orders() order.OrderRepository { return NewGormOrderRepository(r.tx) }

var _ appsettlement.TransactionScope = (*GormSettlementScope)(nil)
var _ appsettlement.TransactionalRepositories = (*gormSettlementRepos)(nil)
