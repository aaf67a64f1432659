package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	settlementapp "github.com/bazaar/backend/internal/application/settlement"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/interfaces/http/dto"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// ReconciliationHandler handles COD reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliations *settlementapp.ReconciliationService
}

// NewReconciliationHandler creates a ReconciliationHandler
func NewReconciliationHandler(reconciliations *settlementapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliations: reconciliations}
}

// GenerateRequest is the body for generating reconciliations for a date
type GenerateRequest struct {
	Date string `json:"date" binding:"required"`
}

// GenerateForAgentRequest is the body for generating one agent's sheet
type GenerateForAgentRequest struct {
	AgentID string `json:"agent_id" binding:"required,uuid"`
	Date    string `json:"date" binding:"required"`
}

// ReviewRequest is the body for verifying or disputing a reconciliation
type ReviewRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// Generate builds reconciliation sheets for every agent who collected
// COD cash on the given date
func (h *ReconciliationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date format, use RFC3339 or YYYY-MM-DD")
		return
	}

	stats, err := h.reconciliations.GenerateForDate(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// GenerateForAgent builds one agent's reconciliation sheet for a date
func (h *ReconciliationHandler) GenerateForAgent(c *gin.Context) {
	var req GenerateForAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	agentID, err := parseUUIDString(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date format, use RFC3339 or YYYY-MM-DD")
		return
	}

	resp, err := h.reconciliations.GenerateForAgent(c.Request.Context(), agentID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Verify closes a reconciliation as matched
func (h *ReconciliationHandler) Verify(c *gin.Context) {
	reconciliationID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reconciliation ID format")
		return
	}

	verifiedBy := middleware.GetJWTUserID(c)
	if verifiedBy == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.reconciliations.Verify(c.Request.Context(), reconciliationID, verifiedBy, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Dispute flags a reconciliation with a cash discrepancy
func (h *ReconciliationHandler) Dispute(c *gin.Context) {
	reconciliationID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reconciliation ID format")
		return
	}

	raisedBy := middleware.GetJWTUserID(c)
	if raisedBy == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.reconciliations.Dispute(c.Request.Context(), reconciliationID, raisedBy, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByStatus returns reconciliations in the given status
func (h *ReconciliationHandler) ListByStatus(c *gin.Context) {
	status := settlement.ReconciliationStatus(c.DefaultQuery("status", string(settlement.ReconciliationPending)))
	switch status {
	case settlement.ReconciliationPending, settlement.ReconciliationVerified, settlement.ReconciliationDisputed:
	default:
		h.BadRequest(c, "Invalid status, use pending, verified or disputed")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	list.Normalize()

	rows, total, err := h.reconciliations.ListByStatus(c.Request.Context(), status, list.PageSize, list.Offset())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rows, total, list.Page, list.PageSize)
}
