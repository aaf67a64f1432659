package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CartOwner identifies who a cart belongs to: a registered user or an
// anonymous session
type CartOwner struct {
	UserID       *uuid.UUID
	SessionToken string
}

// CartService manages carts and the stock reservations backing them. Every
// quantity in a cart is covered by an active reservation, so what the
// customer sees in the cart is stock they actually hold.
type CartService struct {
	scope          TransactionScope
	catalog        gateway.ProductCatalog
	cartTTL        time.Duration
	reservationTTL time.Duration
}

// NewCartService creates a CartService
func NewCartService(scope TransactionScope, catalog gateway.ProductCatalog, cartTTL, reservationTTL time.Duration) *CartService {
	return &CartService{
		scope:          scope,
		catalog:        catalog,
		cartTTL:        cartTTL,
		reservationTTL: reservationTTL,
	}
}

// GetOrCreate finds the owner's cart, creating an empty one if none exists
func (s *CartService) GetOrCreate(ctx context.Context, owner CartOwner) (*CartResponse, error) {
	var resp *CartResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findOrCreate(ctx, repos, owner)
		if err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}

func (s *CartService) findOrCreate(ctx context.Context, repos TransactionalRepositories, owner CartOwner) (*order.Cart, error) {
	cart, err := s.findCart(ctx, repos, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	cart, err = order.NewCart(owner.UserID, owner.SessionToken, s.cartTTL)
	if err != nil {
		return nil, err
	}
	if err := repos.Carts().Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) findCart(ctx context.Context, repos TransactionalRepositories, owner CartOwner) (*order.Cart, error) {
	if owner.UserID != nil {
		return repos.Carts().FindByUserID(ctx, *owner.UserID)
	}
	if owner.SessionToken != "" {
		return repos.Carts().FindBySessionToken(ctx, owner.SessionToken)
	}
	return nil, shared.ErrNotFound
}

// AddItem puts a variant in the cart. Stock is reserved first with a
// conditional update, so two customers can never both hold the last unit.
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, variantID uuid.UUID, qty int64) (*CartResponse, error) {
	if qty < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	info, err := s.catalog.VariantByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	var resp *CartResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findOrCreate(ctx, repos, owner)
		if err != nil {
			return err
		}

		ok, err := repos.Stocks().TryReserve(ctx, variantID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrInsufficientStock
		}

		item, err := cart.AddItem(variantID, info.VendorID, info.ProductName, info.VariantName, qty, info.UnitPrice)
		if err != nil {
			return err
		}

		if err := s.upsertReservation(ctx, repos, cart, item); err != nil {
			return err
		}
		cart.Touch(s.cartTTL)
		if err := repos.Carts().Save(ctx, cart); err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}

// upsertReservation keeps one reservation row per cart item covering the
// item's full quantity
func (s *CartService) upsertReservation(ctx context.Context, repos TransactionalRepositories, cart *order.Cart, item *order.CartItem) error {
	expiresAt := time.Now().UTC().Add(s.reservationTTL)
	if item.ReservationID != nil {
		res, err := repos.Reservations().FindByID(ctx, *item.ReservationID)
		if err == nil && res.IsActive() {
			res.Quantity = item.Quantity
			res.ExpiresAt = expiresAt
			return repos.Reservations().Save(ctx, res)
		}
	}

	stock, err := repos.Stocks().FindByVariantID(ctx, item.VariantID)
	if err != nil {
		return err
	}
	res := inventory.NewReservation(stock.ID, item.VariantID, item.Quantity, inventory.HolderCartItem, item.ID, expiresAt)
	if err := repos.Reservations().Save(ctx, res); err != nil {
		return err
	}
	item.ReservationID = &res.ID
	return nil
}

// UpdateQuantity changes a line's quantity, reserving or releasing the
// difference
func (s *CartService) UpdateQuantity(ctx context.Context, owner CartOwner, itemID uuid.UUID, qty int64) (*CartResponse, error) {
	if qty < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	var resp *CartResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findCart(ctx, repos, owner)
		if err != nil {
			return err
		}
		item := cart.GetItem(itemID)
		if item == nil {
			return shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
		}

		delta := qty - item.Quantity
		if delta > 0 {
			ok, err := repos.Stocks().TryReserve(ctx, item.VariantID, delta)
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrInsufficientStock
			}
		} else if delta < 0 {
			if err := repos.Stocks().ReleaseQuantity(ctx, item.VariantID, -delta); err != nil {
				return err
			}
		}

		if _, err := cart.UpdateItemQuantity(itemID, qty); err != nil {
			return err
		}
		if err := s.upsertReservation(ctx, repos, cart, item); err != nil {
			return err
		}
		cart.Touch(s.cartTTL)
		if err := repos.Carts().Save(ctx, cart); err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}

// RemoveItem removes a line and releases its reservation
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*CartResponse, error) {
	var resp *CartResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findCart(ctx, repos, owner)
		if err != nil {
			return err
		}
		removed, err := cart.RemoveItem(itemID)
		if err != nil {
			return err
		}
		if err := s.releaseItem(ctx, repos, removed); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, cart); err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}

// releaseItem returns an item's reserved stock. The conditional MarkReleased
// makes the release idempotent against the expiry sweep.
func (s *CartService) releaseItem(ctx context.Context, repos TransactionalRepositories, item *order.CartItem) error {
	if item.ReservationID == nil {
		return nil
	}
	released, err := repos.Reservations().MarkReleased(ctx, *item.ReservationID)
	if err != nil {
		return err
	}
	if released {
		return repos.Stocks().ReleaseQuantity(ctx, item.VariantID, item.Quantity)
	}
	return nil
}

// ApplyCoupon validates a coupon against the cart subtotal and attaches it
func (s *CartService) ApplyCoupon(ctx context.Context, owner CartOwner, code string) (*CartResponse, error) {
	var resp *CartResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findCart(ctx, repos, owner)
		if err != nil {
			return err
		}
		coupon, err := repos.Coupons().FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrInvalidCoupon
			}
			return err
		}
		if err := coupon.Validate(cart.Subtotal()); err != nil {
			return err
		}
		cart.ApplyCoupon(coupon.Code)
		if err := repos.Carts().Save(ctx, cart); err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}

// RemoveCoupon detaches any applied coupon
func (s *CartService) RemoveCoupon(ctx context.Context, owner CartOwner) (*CartResponse, error) {
	var resp *CartResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.findCart(ctx, repos, owner)
		if err != nil {
			return err
		}
		cart.RemoveCoupon()
		if err := repos.Carts().Save(ctx, cart); err != nil {
			return err
		}
		r := ToCartResponse(cart)
		resp = &r
		return nil
	})
	return resp, err
}
