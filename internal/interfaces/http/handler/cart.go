package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutapp "github.com/bazaar/backend/internal/application/checkout"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart API endpoints. Carts belong either to an
// authenticated user or to an anonymous session identified by the
// X-Session-Token header.
type CartHandler struct {
	BaseHandler
	carts *checkoutapp.CartService
}

// NewCartHandler creates a CartHandler
func NewCartHandler(carts *checkoutapp.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// AddItemRequest is the body for adding a cart line
type AddItemRequest struct {
	VariantID string `json:"variant_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

// UpdateQuantityRequest is the body for changing a cart line quantity
type UpdateQuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// ApplyCouponRequest is the body for applying a coupon code
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
}

// cartOwner resolves the cart owner from the JWT user or session header
func cartOwner(c *gin.Context) (checkoutapp.CartOwner, bool) {
	if userID := middleware.GetJWTUserID(c); userID != uuid.Nil {
		return checkoutapp.CartOwner{UserID: &userID}, true
	}
	if token := c.GetHeader(middleware.SessionTokenHeader); token != "" {
		return checkoutapp.CartOwner{SessionToken: token}, true
	}
	return checkoutapp.CartOwner{}, false
}

// Get returns the caller's cart, creating an empty one when absent
func (h *CartHandler) Get(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	cart, err := h.carts.GetOrCreate(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem adds a variant to the cart, reserving stock for it
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), owner, variantID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// UpdateQuantity changes a cart line's quantity and its reservation
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), owner, itemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem deletes a cart line and releases its reservation
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), owner, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// ApplyCoupon attaches a coupon code to the cart
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	cart, err := h.carts.ApplyCoupon(c.Request.Context(), owner, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveCoupon detaches the cart's coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		h.BadRequest(c, "Authentication or X-Session-Token header required")
		return
	}

	cart, err := h.carts.RemoveCoupon(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}
