// Package gateway declares the contracts the settlement core expects from
// external collaborators. Payment capture, tax lookup, shipping rates and
// document storage are thin integrations implemented under
// infrastructure/gateway and infrastructure/storage; only their interfaces
// matter here.
package gateway

import (
	"context"
	"io"

	"github.com/bazaar/backend/internal/domain/order"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ChargeRequest carries what a payment provider needs to capture an order
type ChargeRequest struct {
	OrderID       uuid.UUID
	OrderNumber   string
	Amount        valueobject.Money
	Currency      string
	CustomerEmail string
	PaymentToken  string
}

// ChargeResult is the provider's reference for a successful capture
type ChargeResult struct {
	PaymentRef string
}

// PaymentGateway captures and refunds card payments. COD orders never reach
// it; their cash path goes through reconciliation instead.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, paymentRef string, amount valueobject.Money) (string, error)
}

// TaxCalculator resolves the tax for one vendor group shipped to an address.
// Tax is priced per group so each vendor's line items carry their own share.
type TaxCalculator interface {
	TaxFor(ctx context.Context, group order.VendorGroup, destination order.Address) (valueobject.Money, error)
}

// ShippingRateResolver prices delivery for a set of vendor groups. Each
// vendor ships separately, so the rate depends on how the cart was split.
type ShippingRateResolver interface {
	RateFor(ctx context.Context, groups []order.VendorGroup, destination order.Address) (valueobject.Money, error)
}

// VariantInfo is the catalog snapshot the cart needs for one variant
type VariantInfo struct {
	VariantID   uuid.UUID
	VendorID    uuid.UUID
	ProductName string
	VariantName string
	UnitPrice   valueobject.Money
}

// ProductCatalog reads variant pricing and ownership. The catalog itself
// lives outside the settlement core; carts only snapshot what it returns.
type ProductCatalog interface {
	VariantByID(ctx context.Context, variantID uuid.UUID) (*VariantInfo, error)
}

// DocumentStore keeps vendor KYC documents and payout statements out of the
// database
type DocumentStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}
