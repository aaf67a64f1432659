package settlement

import (
	"time"

	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/google/uuid"
)

// EarningResponse is the API view of a vendor earning
type EarningResponse struct {
	ID              uuid.UUID  `json:"id"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	OrderID         uuid.UUID  `json:"order_id"`
	AmountCents     int64      `json:"amount_cents"`
	CommissionCents int64      `json:"commission_cents"`
	NetCents        int64      `json:"net_cents"`
	Status          string     `json:"status"`
	AvailableAt     *time.Time `json:"available_at,omitempty"`
	PayoutID        *uuid.UUID `json:"payout_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToEarningResponse maps an earning to its API view
func ToEarningResponse(e *settlement.Earning) EarningResponse {
	return EarningResponse{
		ID:              e.ID,
		VendorID:        e.VendorID,
		OrderID:         e.OrderID,
		AmountCents:     e.Amount.Cents(),
		CommissionCents: e.CommissionAmount.Cents(),
		NetCents:        e.Net.Cents(),
		Status:          string(e.Status),
		AvailableAt:     e.AvailableAt,
		PayoutID:        e.PayoutID,
		CreatedAt:       e.CreatedAt,
	}
}

// PayoutResponse is the API view of a payout batch
type PayoutResponse struct {
	ID                 uuid.UUID  `json:"id"`
	VendorID           uuid.UUID  `json:"vendor_id"`
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	ItemsCount         int        `json:"items_count"`
	AmountCents        int64      `json:"amount_cents"`
	ProcessingFeeCents int64      `json:"processing_fee_cents"`
	NetCents           int64      `json:"net_cents"`
	Status             string     `json:"status"`
	Method             string     `json:"method"`
	TransferRef        string     `json:"transfer_ref,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToPayoutResponse maps a payout to its API view
func ToPayoutResponse(p *settlement.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                 p.ID,
		VendorID:           p.VendorID,
		PeriodStart:        p.PeriodStart,
		PeriodEnd:          p.PeriodEnd,
		ItemsCount:         p.ItemsCount,
		AmountCents:        p.Amount.Cents(),
		ProcessingFeeCents: p.ProcessingFee.Cents(),
		NetCents:           p.Net.Cents(),
		Status:             string(p.Status),
		Method:             string(p.Method),
		TransferRef:        p.TransferRef,
		FailureReason:      p.FailureReason,
		ProcessedAt:        p.ProcessedAt,
		CreatedAt:          p.CreatedAt,
	}
}

// ReconciliationResponse is the API view of a COD reconciliation row
type ReconciliationResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Date                time.Time  `json:"date"`
	DeliveryPersonID    uuid.UUID  `json:"delivery_person_id"`
	TotalOrdersCount    int        `json:"total_orders_count"`
	TotalCodAmountCents int64      `json:"total_cod_amount_cents"`
	CollectedCents      int64      `json:"collected_amount_cents"`
	DiscrepancyCents    int64      `json:"discrepancy_cents"`
	Status              string     `json:"status"`
	Notes               string     `json:"notes,omitempty"`
	VerifiedBy          *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
}

// ToReconciliationResponse maps a reconciliation to its API view
func ToReconciliationResponse(r *settlement.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ID:                  r.ID,
		Date:                r.Date,
		DeliveryPersonID:    r.DeliveryPersonID,
		TotalOrdersCount:    r.TotalOrdersCount,
		TotalCodAmountCents: r.TotalCodAmount.Cents(),
		CollectedCents:      r.CollectedAmount.Cents(),
		DiscrepancyCents:    r.Discrepancy.Cents(),
		Status:              string(r.Status),
		Notes:               r.Notes,
		VerifiedBy:          r.VerifiedBy,
		VerifiedAt:          r.VerifiedAt,
	}
}
