package checkout

import (
	"time"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/google/uuid"
)

// CheckoutRequest carries the customer's checkout submission
type CheckoutRequest struct {
	CustomerEmail   string
	ShippingAddress order.Address
	BillingAddress  order.Address
	PaymentMethod   order.PaymentMethod
	PaymentToken    string
}

// CartItemResponse is the API view of one cart line
type CartItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	VariantID     uuid.UUID  `json:"variant_id"`
	VendorID      uuid.UUID  `json:"vendor_id"`
	ProductName   string     `json:"product_name"`
	VariantName   string     `json:"variant_name,omitempty"`
	Quantity      int64      `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	SubtotalCents int64      `json:"subtotal_cents"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
}

// CartResponse is the API view of a cart
type CartResponse struct {
	ID            uuid.UUID          `json:"id"`
	CouponCode    *string            `json:"coupon_code,omitempty"`
	SubtotalCents int64              `json:"subtotal_cents"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Items         []CartItemResponse `json:"items"`
}

// ToCartResponse maps a cart to its API view
func ToCartResponse(c *order.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items = append(items, CartItemResponse{
			ID:             item.ID,
			VariantID:      item.VariantID,
			VendorID:       item.VendorID,
			ProductName:    item.ProductName,
			VariantName:    item.VariantName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPrice.Cents(),
			SubtotalCents:  item.Subtotal().Cents(),
			ReservationID:  item.ReservationID,
		})
	}
	return CartResponse{
		ID:            c.ID,
		CouponCode:    c.CouponCode,
		SubtotalCents: c.Subtotal().Cents(),
		ExpiresAt:     c.ExpiresAt,
		Items:         items,
	}
}

// OrderItemResponse is the API view of one order item
type OrderItemResponse struct {
	ID                uuid.UUID `json:"id"`
	VendorID          uuid.UUID `json:"vendor_id"`
	VariantID         uuid.UUID `json:"variant_id"`
	ProductName       string    `json:"product_name"`
	VariantName       string    `json:"variant_name,omitempty"`
	Quantity          int64     `json:"quantity"`
	UnitPriceCents    int64     `json:"unit_price_cents"`
	SubtotalCents     int64     `json:"subtotal_cents"`
	DiscountCents     int64     `json:"discount_cents"`
	TaxCents          int64     `json:"tax_cents"`
	TotalCents        int64     `json:"total_cents"`
	FulfillmentStatus string    `json:"fulfillment_status"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerEmail      string              `json:"customer_email"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentMethod      string              `json:"payment_method"`
	CouponCode         *string             `json:"coupon_code,omitempty"`
	SubtotalCents      int64               `json:"subtotal_cents"`
	DiscountCents      int64               `json:"discount_cents"`
	TaxCents           int64               `json:"tax_cents"`
	ShippingCents      int64               `json:"shipping_cents"`
	CodFeeCents        int64               `json:"cod_fee_cents,omitempty"`
	TotalCents         int64               `json:"total_cents"`
	RefundedCents      int64               `json:"refunded_cents,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	CreatedAt          time.Time           `json:"created_at"`
	PaidAt             *time.Time          `json:"paid_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
}

// ToOrderResponse maps an order to its API view
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, OrderItemResponse{
			ID:                item.ID,
			VendorID:          item.VendorID,
			VariantID:         item.VariantID,
			ProductName:       item.ProductName,
			VariantName:       item.VariantName,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPrice.Cents(),
			SubtotalCents:     item.Subtotal.Cents(),
			DiscountCents:     item.DiscountShare.Cents(),
			TaxCents:          item.TaxShare.Cents(),
			TotalCents:        item.Total.Cents(),
			FulfillmentStatus: string(item.FulfillmentStatus),
		})
	}
	return OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		CouponCode:    o.CouponCode,
		SubtotalCents: o.Subtotal.Cents(),
		DiscountCents: o.Discount.Cents(),
		TaxCents:      o.Tax.Cents(),
		ShippingCents: o.ShippingCost.Cents(),
		CodFeeCents:   o.CodFee.Cents(),
		TotalCents:    o.Total.Cents(),
		RefundedCents: o.RefundedAmount.Cents(),
		Items:         items,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
		DeliveredAt:   o.DeliveredAt,
	}
}
