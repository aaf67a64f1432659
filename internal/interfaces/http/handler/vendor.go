package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	vendorapp "github.com/bazaar/backend/internal/application/vendor"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// maxKycDocumentSize bounds KYC uploads at 10 MiB
const maxKycDocumentSize = 10 << 20

// VendorHandler handles vendor account API endpoints
type VendorHandler struct {
	BaseHandler
	vendors *vendorapp.VendorService
}

// NewVendorHandler creates a VendorHandler
func NewVendorHandler(vendors *vendorapp.VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// RegisterVendorRequest is the body for a vendor application
type RegisterVendorRequest struct {
	Name           string `json:"name" binding:"required,min=2,max=100"`
	Email          string `json:"email" binding:"required,email"`
	CommissionRate string `json:"commission_rate" binding:"required"`
}

// UpdateCommissionRateRequest is the body for a commission rate change
type UpdateCommissionRateRequest struct {
	CommissionRate string `json:"commission_rate" binding:"required"`
}

// AttachPayoutAccountRequest is the body for setting the payout destination
type AttachPayoutAccountRequest struct {
	Account string `json:"account" binding:"required,min=1,max=255"`
}

// Register creates a vendor account in pending status
func (h *VendorHandler) Register(c *gin.Context) {
	var req RegisterVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	rate, err := decimal.NewFromString(req.CommissionRate)
	if err != nil {
		h.BadRequest(c, "Invalid commission rate format")
		return
	}

	resp, err := h.vendors.Register(c.Request.Context(), vendorapp.RegisterRequest{
		Name:           req.Name,
		Email:          req.Email,
		CommissionRate: rate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns a vendor account
func (h *VendorHandler) GetByID(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	resp, err := h.vendors.GetByID(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve activates a pending vendor
func (h *VendorHandler) Approve(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	resp, err := h.vendors.Approve(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Suspend blocks a vendor from receiving new orders
func (h *VendorHandler) Suspend(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	resp, err := h.vendors.Suspend(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateCommissionRate changes the rate applied to future order items
func (h *VendorHandler) UpdateCommissionRate(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req UpdateCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}
	rate, err := decimal.NewFromString(req.CommissionRate)
	if err != nil {
		h.BadRequest(c, "Invalid commission rate format")
		return
	}

	resp, err := h.vendors.UpdateCommissionRate(c.Request.Context(), vendorID, rate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AttachPayoutAccount sets the destination account for payout transfers
func (h *VendorHandler) AttachPayoutAccount(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	var req AttachPayoutAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(c, err)
		return
	}

	resp, err := h.vendors.AttachPayoutAccount(c.Request.Context(), vendorID, req.Account)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UploadKycDocument stores a KYC document for the vendor
func (h *VendorHandler) UploadKycDocument(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		h.BadRequest(c, "A document file is required")
		return
	}
	if fileHeader.Size > maxKycDocumentSize {
		h.BadRequest(c, "Document exceeds the 10MB size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded document")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := h.vendors.UploadKycDocument(c.Request.Context(), vendorID, contentType, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// KycDocumentURL returns a short-lived download link for the KYC document
func (h *VendorHandler) KycDocumentURL(c *gin.Context) {
	vendorID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID format")
		return
	}

	url, err := h.vendors.KycDocumentURL(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if url == "" {
		h.NotFound(c, "Vendor has no KYC document")
		return
	}
	h.Success(c, gin.H{"url": url})
}
