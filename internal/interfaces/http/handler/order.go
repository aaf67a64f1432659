package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/bazaar/backend/internal/application/order"
	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/interfaces/http/dto"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	orders *orderapp.OrderService
}

// NewOrderHandler creates an OrderHandler
func NewOrderHandler(orders *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// UpdateStatusRequest is the body for an order status transition
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=pending confirmed processing ready_to_ship shipped delivered cancelled refunded partially_refunded"`
	Comment string `json:"comment" binding:"max=500"`
}

// UpdateFulfillmentRequest is the body for an item fulfillment transition
type UpdateFulfillmentRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing ready_to_ship shipped delivered cancelled"`
}

// CancelRequest is the body for cancelling an order
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RefundRequest is the body for refunding an order
type RefundRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Reason      string `json:"reason" binding:"required,max=500"`
}

// CodCollectionRequest is the body for recording a COD cash collection
type CodCollectionRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

// AssignAgentRequest is the body for assigning a delivery agent
type AssignAgentRequest struct {
	AgentID string `json:"agent_id" binding:"required,uuid"`
}

// actor identifies the authenticated caller in the status history
func actor(c *gin.Context) string {
	if userID := middleware.GetJWTUserID(c); userID != uuid.Nil {
		return userID.String()
	}
	return "system"
}

// GetByID returns an order with its items and status history
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber returns an order by its human-facing order number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	resp, err := h.orders.GetByOrderNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListMine returns the authenticated caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := middleware.GetJWTUserID(c)
	if userID == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	list.Normalize()

	orders, total, err := h.orders.ListForUser(c.Request.Context(), userID, list.PageSize, list.Offset())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, list.Page, list.PageSize)
}

// UpdateStatus applies an order status transition
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.orders.UpdateStatus(c.Request.Context(), orderID, order.OrderStatus(req.Status), actor(c), req.Comment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItemFulfillment applies a fulfillment transition to one item
func (h *OrderHandler) UpdateItemFulfillment(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req UpdateFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.orders.UpdateItemFulfillment(c.Request.Context(), orderID, itemID, order.FulfillmentStatus(req.Status), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels an order, releasing reservations and reversing payment
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.orders.Cancel(c.Request.Context(), orderID, actor(c), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refund refunds part or all of a paid order
func (h *OrderHandler) Refund(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.orders.Refund(c.Request.Context(), orderID, req.AmountCents, actor(c), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkCodCollected records a COD cash collection by the delivery agent.
// The call is idempotent; a repeat collection reports already_collected.
func (h *OrderHandler) MarkCodCollected(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	collectedBy := middleware.GetJWTUserID(c)
	if collectedBy == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CodCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	collected, err := h.orders.MarkCodCollected(c.Request.Context(), orderID, req.AmountCents, collectedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"collected": collected, "already_collected": !collected})
}

// AssignAgent assigns a delivery agent to a COD order
func (h *OrderHandler) AssignAgent(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req AssignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	if err := h.orders.AssignDeliveryAgent(c.Request.Context(), orderID, agentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
