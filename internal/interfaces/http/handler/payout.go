package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	settlementapp "github.com/bazaar/backend/internal/application/settlement"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/interfaces/http/dto"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// PayoutHandler handles vendor payout API endpoints
type PayoutHandler struct {
	BaseHandler
	payouts *settlementapp.PayoutService
}

// NewPayoutHandler creates a PayoutHandler
func NewPayoutHandler(payouts *settlementapp.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// CreateBatchRequest is the body for creating a payout batch
type CreateBatchRequest struct {
	VendorID    string `json:"vendor_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	Method      string `json:"method" binding:"required,oneof=bank_transfer stripe"`
}

// parseDate parses a date in RFC3339 or plain ISO form
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// CreateBatch claims a vendor's available earnings into a payout batch
func (h *PayoutHandler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	vendorID, err := parseUUIDString(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		h.BadRequest(c, "Invalid period_start format, use RFC3339 or YYYY-MM-DD")
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		h.BadRequest(c, "Invalid period_end format, use RFC3339 or YYYY-MM-DD")
		return
	}
	if !periodEnd.After(periodStart) {
		h.BadRequest(c, "period_end must be after period_start")
		return
	}

	resp, err := h.payouts.CreateBatch(c.Request.Context(), vendorID, periodStart, periodEnd, settlement.PayoutMethod(req.Method))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Process executes a pending payout through the payment processor
func (h *PayoutHandler) Process(c *gin.Context) {
	payoutID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payout ID format")
		return
	}

	resp, err := h.payouts.Process(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel releases a pending payout's earnings back to available
func (h *PayoutHandler) Cancel(c *gin.Context) {
	payoutID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payout ID format")
		return
	}

	resp, err := h.payouts.Cancel(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID returns a payout batch
func (h *PayoutHandler) GetByID(c *gin.Context) {
	payoutID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid payout ID format")
		return
	}

	resp, err := h.payouts.GetByID(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListForVendor returns a vendor's payout batches
func (h *PayoutHandler) ListForVendor(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	list.Normalize()

	payouts, total, err := h.payouts.ListForVendor(c.Request.Context(), vendorID, list.PageSize, list.Offset())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payouts, total, list.Page, list.PageSize)
}

// ListEarnings returns a vendor's earning rows
func (h *PayoutHandler) ListEarnings(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	list.Normalize()

	earnings, total, err := h.payouts.ListEarningsForVendor(c.Request.Context(), vendorID, list.PageSize, list.Offset())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, earnings, total, list.Page, list.PageSize)
}
