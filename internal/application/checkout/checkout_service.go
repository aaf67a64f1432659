package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/bazaar/backend/internal/domain/vendor"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config carries the tunables of the checkout pipeline
type Config struct {
	Currency            string
	CodFee              valueobject.Money
	OrderReservationTTL time.Duration
}

// CheckoutService turns a cart into an order. The pipeline runs in one
// transaction: reservations convert from cart to order holders, the order is
// created with its per-vendor items, commission and earning rows are written
// and the cart destroyed. Any failure rolls everything back and the customer
// keeps their cart and reservations. Card capture happens after the order
// commits; a declined charge leaves the order in place unpaid so the
// customer can retry payment without losing it.
type CheckoutService struct {
	scope          TransactionScope
	vendors        vendor.Repository
	payments       gateway.PaymentGateway
	taxes          gateway.TaxCalculator
	shipping       gateway.ShippingRateResolver
	eventPublisher shared.EventPublisher
	cfg            Config
}

// NewCheckoutService creates a CheckoutService
func NewCheckoutService(
	scope TransactionScope,
	vendors vendor.Repository,
	payments gateway.PaymentGateway,
	taxes gateway.TaxCalculator,
	shipping gateway.ShippingRateResolver,
	cfg Config,
) *CheckoutService {
	return &CheckoutService{
		scope:    scope,
		vendors:  vendors,
		payments: payments,
		taxes:    taxes,
		shipping: shipping,
		cfg:      cfg,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Checkout places an order from the owner's cart
func (s *CheckoutService) Checkout(ctx context.Context, owner CartOwner, req CheckoutRequest) (*OrderResponse, error) {
	var placed *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		cart, err := s.loadCart(ctx, repos, owner)
		if err != nil {
			return err
		}

		discount, couponCode, err := s.resolveDiscount(ctx, repos, cart)
		if err != nil {
			return err
		}

		groups, err := s.splitCart(ctx, cart, discount)
		if err != nil {
			return err
		}

		tax, err := s.applyTaxes(ctx, groups, req.ShippingAddress)
		if err != nil {
			return err
		}
		shippingCost, err := s.shipping.RateFor(ctx, groups, req.ShippingAddress)
		if err != nil {
			return err
		}

		codFee := valueobject.Zero()
		if req.PaymentMethod == order.PaymentMethodCod {
			codFee = s.cfg.CodFee
		}

		orderNumber, err := repos.Orders().NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		billing := req.BillingAddress
		if !billing.IsValid() {
			billing = req.ShippingAddress
		}
		o, err := order.NewOrder(order.NewOrderParams{
			OrderNumber:     orderNumber,
			UserID:          owner.UserID,
			CustomerEmail:   req.CustomerEmail,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billing,
			CouponCode:      couponCode,
			Subtotal:        cart.Subtotal(),
			Discount:        discount,
			Tax:             tax,
			ShippingCost:    shippingCost,
			CodFee:          codFee,
			PaymentMethod:   req.PaymentMethod,
			Items:           order.FlattenItems(groups),
		})
		if err != nil {
			return err
		}

		if err := s.convertReservations(ctx, repos, cart, o); err != nil {
			return err
		}
		if err := s.writeSettlementRows(ctx, repos, o, groups); err != nil {
			return err
		}

		if couponCode != nil {
			ok, err := repos.Coupons().IncrementUsage(ctx, *couponCode)
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrInvalidCoupon
			}
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		if err := repos.Carts().Delete(ctx, cart.ID); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, placed)

	if req.PaymentMethod == order.PaymentMethodCard {
		if err := s.capturePayment(ctx, placed, req.PaymentToken); err != nil {
			// The order is committed and stays unpaid; return it alongside
			// the failure so the caller can retry payment against it.
			resp := ToOrderResponse(placed)
			return &resp, err
		}
	}

	resp := ToOrderResponse(placed)
	return &resp, nil
}

// RetryPayment re-attempts card capture for a committed order that is still
// unpaid after a declined charge at checkout
func (s *CheckoutService) RetryPayment(ctx context.Context, orderID uuid.UUID, paymentToken string) (*OrderResponse, error) {
	var o *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		o = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != order.PaymentMethodCard {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATE", "Order is not a card order")
	}
	// guard before charging so a duplicate retry never double-captures
	if o.PaymentStatus != order.PaymentUnpaid {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STATE", "Order is already paid")
	}
	if err := s.capturePayment(ctx, o, paymentToken); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// capturePayment charges the card and marks the order paid in its own
// transaction. A gateway failure surfaces as ErrPaymentFailed and leaves
// the order untouched.
func (s *CheckoutService) capturePayment(ctx context.Context, o *order.Order, paymentToken string) error {
	result, chargeErr := s.payments.Charge(ctx, gateway.ChargeRequest{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Amount:        o.Total,
		Currency:      s.cfg.Currency,
		CustomerEmail: o.CustomerEmail,
		PaymentToken:  paymentToken,
	})
	if chargeErr != nil {
		return shared.ErrPaymentFailed
	}

	if err := o.MarkPaid(result.PaymentRef); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Orders().SaveWithLock(ctx, o)
	})
	if err != nil {
		return err
	}
	s.publishEvents(ctx, o)
	return nil
}

func (s *CheckoutService) loadCart(ctx context.Context, repos TransactionalRepositories, owner CartOwner) (*order.Cart, error) {
	var cart *order.Cart
	var err error
	if owner.UserID != nil {
		cart, err = repos.Carts().FindByUserID(ctx, *owner.UserID)
	} else if owner.SessionToken != "" {
		cart, err = repos.Carts().FindBySessionToken(ctx, owner.SessionToken)
	} else {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}
	if cart.IsExpired() {
		return nil, shared.NewDomainError("CART_EXPIRED", "Cart has expired")
	}
	return cart, nil
}

func (s *CheckoutService) resolveDiscount(ctx context.Context, repos TransactionalRepositories, cart *order.Cart) (valueobject.Money, *string, error) {
	if cart.CouponCode == nil {
		return valueobject.Zero(), nil, nil
	}
	coupon, err := repos.Coupons().FindByCode(ctx, *cart.CouponCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return valueobject.Zero(), nil, shared.ErrInvalidCoupon
		}
		return valueobject.Zero(), nil, err
	}
	if err := coupon.Validate(cart.Subtotal()); err != nil {
		return valueobject.Zero(), nil, err
	}
	return coupon.DiscountFor(cart.Subtotal()), &coupon.Code, nil
}

// splitCart resolves vendor rates and splits the cart into per-vendor groups
func (s *CheckoutService) splitCart(ctx context.Context, cart *order.Cart, discount valueobject.Money) ([]order.VendorGroup, error) {
	vendorIDs := make([]uuid.UUID, 0, len(cart.Items))
	seen := map[uuid.UUID]bool{}
	for _, item := range cart.Items {
		if !seen[item.VendorID] {
			seen[item.VendorID] = true
			vendorIDs = append(vendorIDs, item.VendorID)
		}
	}
	vendors, err := s.vendors.FindByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, err
	}
	rates := make(map[uuid.UUID]decimal.Decimal, len(vendors))
	for _, v := range vendors {
		if !v.IsActive() {
			return nil, shared.NewDomainError("VENDOR_INACTIVE", "Vendor "+v.Name+" is not accepting orders")
		}
		rates[v.ID] = v.CommissionRate
	}
	return order.NewSplitter(rates).Split(cart.Items, discount)
}

// applyTaxes prices tax per vendor group and snapshots each item's share of
// its group's tax, weighted by item totals. The shares sum back to the
// order-level tax exactly.
func (s *CheckoutService) applyTaxes(ctx context.Context, groups []order.VendorGroup, destination order.Address) (valueobject.Money, error) {
	tax := valueobject.Zero()
	for gi := range groups {
		group := &groups[gi]
		groupTax, err := s.taxes.TaxFor(ctx, *group, destination)
		if err != nil {
			return valueobject.Zero(), err
		}

		weights := make([]int64, len(group.Items))
		for i := range group.Items {
			weights[i] = group.Items[i].Total.Cents()
		}
		shares, err := groupTax.SplitProportionally(weights)
		if err != nil {
			return valueobject.Zero(), err
		}
		for i := range group.Items {
			group.Items[i].TaxShare = shares[i]
		}
		tax = tax.Add(groupTax)
	}
	return tax, nil
}

// convertReservations re-homes each cart item's reservation onto its order
// item. A missing or expired reservation is re-acquired with a conditional
// reserve; if stock has run out in the meantime the checkout fails.
func (s *CheckoutService) convertReservations(ctx context.Context, repos TransactionalRepositories, cart *order.Cart, o *order.Order) error {
	itemByVariant := make(map[uuid.UUID]*order.OrderItem, len(o.Items))
	for i := range o.Items {
		itemByVariant[o.Items[i].VariantID] = &o.Items[i]
	}
	expiresAt := time.Now().UTC().Add(s.cfg.OrderReservationTTL)

	for i := range cart.Items {
		cartItem := &cart.Items[i]
		orderItem, ok := itemByVariant[cartItem.VariantID]
		if !ok {
			return shared.NewDomainError("INVARIANT_VIOLATION", "Cart item missing from split output")
		}

		res, err := s.activeReservation(ctx, repos, cartItem)
		if err != nil {
			return err
		}
		if res == nil {
			ok, err := repos.Stocks().TryReserve(ctx, cartItem.VariantID, cartItem.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrInsufficientStock
			}
			stock, err := repos.Stocks().FindByVariantID(ctx, cartItem.VariantID)
			if err != nil {
				return err
			}
			res = inventory.NewReservation(stock.ID, cartItem.VariantID, cartItem.Quantity, inventory.HolderCartItem, cartItem.ID, expiresAt)
		}
		if err := res.ConvertToOrderHolder(orderItem.ID, expiresAt); err != nil {
			return err
		}
		if err := repos.Reservations().Save(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *CheckoutService) activeReservation(ctx context.Context, repos TransactionalRepositories, item *order.CartItem) (*inventory.Reservation, error) {
	if item.ReservationID == nil {
		return nil, nil
	}
	res, err := repos.Reservations().FindByID(ctx, *item.ReservationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !res.IsActive() || res.IsExpired() {
		return nil, nil
	}
	return res, nil
}

// writeSettlementRows creates commission rows per item and one earning row
// per vendor group. Amount + net always reconcile against the item totals.
func (s *CheckoutService) writeSettlementRows(ctx context.Context, repos TransactionalRepositories, o *order.Order, groups []order.VendorGroup) error {
	for _, group := range groups {
		groupCommission := valueobject.Zero()
		for i := range o.Items {
			item := &o.Items[i]
			if item.VendorID != group.VendorID {
				continue
			}
			commission, err := settlement.NewCommission(o.ID, item.ID, item.VendorID, item.Total, item.CommissionRate)
			if err != nil {
				return err
			}
			if err := repos.Commissions().Save(ctx, commission); err != nil {
				return err
			}
			groupCommission = groupCommission.Add(commission.Amount)
		}

		earning, err := settlement.NewEarning(group.VendorID, o.ID, group.Total(), groupCommission)
		if err != nil {
			return err
		}
		if err := repos.Earnings().Save(ctx, earning); err != nil {
			return err
		}
	}
	return nil
}

func (s *CheckoutService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil || o == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
}
