package order

import (
	"context"
	"time"

	"github.com/bazaar/backend/internal/application/checkout"
	"github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/inventory"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OrderService drives orders through their lifecycle after checkout:
// status transitions, per-item fulfillment, cancellation, refunds and COD
// cash collection.
type OrderService struct {
	scope          TransactionScope
	payments       gateway.PaymentGateway
	eventPublisher shared.EventPublisher
	holdback       time.Duration
}

// NewOrderService creates an OrderService. holdback is how long vendor
// earnings wait after delivery before becoming payable.
func NewOrderService(scope TransactionScope, payments gateway.PaymentGateway, holdback time.Duration) *OrderService {
	return &OrderService{
		scope:    scope,
		payments: payments,
		holdback: holdback,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves an order
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*checkout.OrderResponse, error) {
	var resp *checkout.OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		r := checkout.ToOrderResponse(o)
		resp = &r
		return nil
	})
	return resp, err
}

// GetByOrderNumber retrieves an order by its order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, number string) (*checkout.OrderResponse, error) {
	var resp *checkout.OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByOrderNumber(ctx, number)
		if err != nil {
			return err
		}
		r := checkout.ToOrderResponse(o)
		resp = &r
		return nil
	})
	return resp, err
}

// ListForUser retrieves a user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]checkout.OrderResponse, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	var responses []checkout.OrderResponse
	var total int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, count, err := repos.Orders().FindByUserID(ctx, userID, limit, offset)
		if err != nil {
			return err
		}
		total = count
		responses = make([]checkout.OrderResponse, 0, len(orders))
		for _, o := range orders {
			responses = append(responses, checkout.ToOrderResponse(o))
		}
		return nil
	})
	return responses, total, err
}

// UpdateStatus transitions an order to the target status
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.OrderStatus, actor, comment string) (*checkout.OrderResponse, error) {
	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.TransitionTo(target, actor, comment); err != nil {
			return err
		}
		if o.Status == order.StatusDelivered {
			if err := s.scheduleEarnings(ctx, repos, o); err != nil {
				return err
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, updated)
	resp := checkout.ToOrderResponse(updated)
	return &resp, nil
}

// UpdateItemFulfillment moves one order item along its fulfillment
// lifecycle. Shipping an item commits its reservation, turning the claim
// into a permanent stock deduction; delivering the last item starts the
// earning holdback clock.
func (s *OrderService) UpdateItemFulfillment(ctx context.Context, orderID, itemID uuid.UUID, target order.FulfillmentStatus, actor string) (*checkout.OrderResponse, error) {
	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.UpdateItemFulfillment(itemID, target, actor); err != nil {
			return err
		}

		if target == order.FulfillmentShipped {
			if err := s.commitItemStock(ctx, repos, o, itemID); err != nil {
				return err
			}
		}
		if o.Status == order.StatusDelivered {
			if err := s.scheduleEarnings(ctx, repos, o); err != nil {
				return err
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, updated)
	resp := checkout.ToOrderResponse(updated)
	return &resp, nil
}

// commitItemStock converts the item's reservation into an on-hand deduction
func (s *OrderService) commitItemStock(ctx context.Context, repos TransactionalRepositories, o *order.Order, itemID uuid.UUID) error {
	var item *order.OrderItem
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			item = &o.Items[i]
			break
		}
	}
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}

	res, err := repos.Reservations().FindByHolder(ctx, inventory.HolderOrderItem, itemID)
	if err != nil {
		return err
	}
	committed, err := repos.Reservations().MarkCommitted(ctx, res.ID)
	if err != nil {
		return err
	}
	if !committed {
		// already committed by a concurrent call
		return nil
	}
	ok, err := repos.Stocks().CommitQuantity(ctx, item.VariantID, item.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewDomainError("INVARIANT_VIOLATION", "Reserved stock missing at commit")
	}
	return nil
}

// scheduleEarnings starts the holdback clock on the order's earnings once
// it is delivered
func (s *OrderService) scheduleEarnings(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	deliveredAt := time.Now().UTC()
	if o.DeliveredAt != nil {
		deliveredAt = *o.DeliveredAt
	}
	earnings, err := repos.Earnings().FindByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}
	availableAt := deliveredAt.Add(s.holdback)
	for _, e := range earnings {
		if e.AvailableAt != nil || e.Status != settlement.EarningPending {
			continue
		}
		if err := e.ScheduleAvailability(availableAt); err != nil {
			return err
		}
		if err := repos.Earnings().Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Cancel cancels an order, releasing the unshipped reservations and, when
// the order was paid, refunding the payment in full
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actor, reason string) (*checkout.OrderResponse, error) {
	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		wasPaid := o.PaymentStatus == order.PaymentPaid

		if err := o.Cancel(actor, reason); err != nil {
			return err
		}
		if err := s.releaseOrderReservations(ctx, repos, o); err != nil {
			return err
		}
		if wasPaid {
			if err := s.refundInternal(ctx, repos, o, o.RemainingRefundable(), actor, "order cancelled"); err != nil {
				return err
			}
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, updated)
	resp := checkout.ToOrderResponse(updated)
	return &resp, nil
}

// releaseOrderReservations gives back the stock held by the order's still
// active reservations. Committed (shipped) reservations are left alone.
func (s *OrderService) releaseOrderReservations(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	itemIDs := make([]uuid.UUID, 0, len(o.Items))
	for i := range o.Items {
		itemIDs = append(itemIDs, o.Items[i].ID)
	}
	reservations, err := repos.Reservations().FindActiveByHolders(ctx, inventory.HolderOrderItem, itemIDs)
	if err != nil {
		return err
	}
	for i := range reservations {
		res := &reservations[i]
		released, err := repos.Reservations().MarkReleased(ctx, res.ID)
		if err != nil {
			return err
		}
		if released {
			if err := repos.Stocks().ReleaseQuantity(ctx, res.VariantID, res.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refund refunds part or all of a paid order
func (s *OrderService) Refund(ctx context.Context, orderID uuid.UUID, amountCents int64, actor, reason string) (*checkout.OrderResponse, error) {
	amount := valueobject.NewMoney(amountCents)
	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.refundInternal(ctx, repos, o, amount, actor, reason); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, updated)
	resp := checkout.ToOrderResponse(updated)
	return &resp, nil
}

func (s *OrderService) refundInternal(ctx context.Context, repos TransactionalRepositories, o *order.Order, amount valueobject.Money, actor, reason string) error {
	if err := o.Refund(amount, actor, reason); err != nil {
		return err
	}
	if o.PaymentMethod == order.PaymentMethodCard && o.PaymentRef != "" {
		if _, err := s.payments.Refund(ctx, o.PaymentRef, amount); err != nil {
			return shared.ErrPaymentFailed
		}
	}
	return s.adjustEarningsForRefund(ctx, repos, o, amount)
}

// adjustEarningsForRefund spreads a refund across the order's earnings in
// proportion to their net amounts. Earnings still inside the holdback are
// reduced in place; promoted ones are withheld so the payout engine can net
// them later. Withholding pulls an earning out of any pending payout batch,
// which is repriced when it processes.
func (s *OrderService) adjustEarningsForRefund(ctx context.Context, repos TransactionalRepositories, o *order.Order, amount valueobject.Money) error {
	earnings, err := repos.Earnings().FindByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}
	if len(earnings) == 0 {
		return nil
	}

	weights := make([]int64, len(earnings))
	totalNet := valueobject.Zero()
	for i, e := range earnings {
		weights[i] = e.Net.Cents()
		totalNet = totalNet.Add(e.Net)
	}
	if amount.GreaterThan(totalNet) {
		amount = totalNet
	}
	shares, err := amount.SplitProportionally(weights)
	if err != nil {
		return err
	}

	for i, e := range earnings {
		if shares[i].IsZero() {
			continue
		}
		switch e.Status {
		case settlement.EarningPending:
			if err := e.AdjustForRefund(shares[i]); err != nil {
				return err
			}
		case settlement.EarningAvailable, settlement.EarningHeldForPayout:
			if err := e.Withhold("refund on order " + o.OrderNumber); err != nil {
				return err
			}
		default:
			// withheld and paid earnings are netted by the payout engine
			continue
		}
		if err := repos.Earnings().SaveWithLock(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// MarkCodCollected records a delivery agent's cash collection on a COD
// order. Returns false without error when the order is not COD or was
// already collected, so the delivery app can retry safely.
func (s *OrderService) MarkCodCollected(ctx context.Context, orderID uuid.UUID, amountCents int64, collectedBy uuid.UUID) (bool, error) {
	var collected bool
	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		collected = o.MarkCodCollected(valueobject.NewMoney(amountCents), collectedBy)
		if !collected {
			return nil
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return false, err
	}
	s.publishEvents(ctx, updated)
	return collected, nil
}

// AssignDeliveryAgent sets the agent responsible for delivering a COD order
func (s *OrderService) AssignDeliveryAgent(ctx context.Context, orderID, agentID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.IsCod() {
			return shared.NewDomainError("INVALID_STATE", "Only COD orders have delivery agents")
		}
		o.AssignDeliveryPerson(agentID)
		return repos.Orders().SaveWithLock(ctx, o)
	})
}

func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil || o == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
}
