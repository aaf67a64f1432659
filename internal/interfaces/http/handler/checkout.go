package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/bazaar/backend/internal/application/checkout"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/interfaces/http/dto"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// CheckoutHandler converts the caller's cart into a placed order
type CheckoutHandler struct {
	BaseHandler
	checkout *checkoutapp.CheckoutService
}

// NewCheckoutHandler creates a CheckoutHandler
func NewCheckoutHandler(checkout *checkoutapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// AddressRequest is the body form of a shipping or billing address
type AddressRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone" binding:"max=30"`
}

func (r AddressRequest) toAddress() order.Address {
	return order.Address{
		Name:       r.Name,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

// CheckoutRequest is the body for placing an order
type CheckoutRequest struct {
	CustomerEmail   string         `json:"customer_email" binding:"required,email"`
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	BillingAddress  AddressRequest `json:"billing_address" binding:"required"`
	PaymentMethod   string         `json:"payment_method" binding:"required,oneof=card cod"`
	PaymentToken    string         `json:"payment_token"`
}

// Checkout places an order from the caller's cart
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	if req.PaymentMethod == string(order.PaymentMethodCard) && req.PaymentToken == "" {
		h.BadRequest(c, "payment_token is required for card payments")
		return
	}

	resp, err := h.checkout.Checkout(c.Request.Context(), owner, checkoutapp.CheckoutRequest{
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress.toAddress(),
		BillingAddress:  req.BillingAddress.toAddress(),
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
		PaymentToken:    req.PaymentToken,
	})
	if err != nil {
		// A declined charge still committed the order; return it with the
		// error so the customer can retry payment against it.
		if errors.Is(err, shared.ErrPaymentFailed) && resp != nil {
			body := dto.NewErrorResponseWithRequestID(shared.ErrPaymentFailed.Code, shared.ErrPaymentFailed.Message, middleware.GetRequestID(c))
			body.Data = resp
			c.JSON(dto.GetHTTPStatus(shared.ErrPaymentFailed.Code), body)
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RetryPaymentRequest is the body for re-attempting a declined card charge
type RetryPaymentRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
}

// RetryPayment re-attempts card capture for an unpaid order
func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req RetryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.checkout.RetryPayment(c.Request.Context(), orderID, req.PaymentToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
