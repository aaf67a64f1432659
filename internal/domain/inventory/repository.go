package inventory

import (
	"context"

	"github.com/google/uuid"
)

// VariantStockRepository provides access to variant stock ledgers
type VariantStockRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VariantStock, error)
	FindByVariantID(ctx context.Context, variantID uuid.UUID) (*VariantStock, error)
	FindByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]VariantStock, error)
	Save(ctx context.Context, stock *VariantStock) error
	// SaveWithLock saves with an optimistic version check, failing with a
	// concurrency conflict if the row changed underneath us
	SaveWithLock(ctx context.Context, stock *VariantStock) error

	// TryReserve atomically increments the reserved counter iff available
	// stock covers the quantity (conditional UPDATE). Returns false when
	// stock is insufficient. This is the oversell guard for concurrent
	// checkouts; the caller creates the Reservation row in the same
	// transaction.
	TryReserve(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error)
	// ReleaseQuantity atomically returns quantity to the available pool
	ReleaseQuantity(ctx context.Context, variantID uuid.UUID, qty int64) error
	// CommitQuantity atomically converts reserved quantity into an on-hand
	// deduction. Returns false if the ledger cannot cover the quantity.
	CommitQuantity(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error)
	// RestockQuantity atomically adds quantity back to on-hand stock
	RestockQuantity(ctx context.Context, variantID uuid.UUID, qty int64) error
}

// ReservationRepository provides access to reservation rows
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindByHolder(ctx context.Context, holderType HolderType, holderID uuid.UUID) (*Reservation, error)
	FindActiveByHolders(ctx context.Context, holderType HolderType, holderIDs []uuid.UUID) ([]Reservation, error)
	FindExpired(ctx context.Context, limit int) ([]Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	// MarkReleased flips an active reservation to released; returns false if
	// it was already closed (idempotent release)
	MarkReleased(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkCommitted flips an active reservation to committed; returns false
	// if it was already closed
	MarkCommitted(ctx context.Context, id uuid.UUID) (bool, error)
}
