package gateway

import (
	"context"

	"github.com/bazaar/backend/internal/application/gateway"
	appsettlement "github.com/bazaar/backend/internal/application/settlement"
	"github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/shared"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
)

// DisabledGateway rejects every charge. It stands in when no payment
// processor is configured so COD-only deployments still boot.
type DisabledGateway struct{}

// NewDisabledGateway creates a DisabledGateway
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

// Charge always fails
func (g *DisabledGateway) Charge(_ context.Context, _ gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	return nil, shared.NewDomainError("PAYMENT_FAILED", "Card payments are not configured")
}

// Refund always fails
func (g *DisabledGateway) Refund(_ context.Context, _ string, _ valueobject.Money) (string, error) {
	return "", shared.NewDomainError("PAYMENT_FAILED", "Card payments are not configured")
}

var _ gateway.PaymentGateway = (*DisabledGateway)(nil)

// DisabledPayoutProcessor rejects every transfer, standing in when no
// payout processor is configured.
type DisabledPayoutProcessor struct{}

// NewDisabledPayoutProcessor creates a DisabledPayoutProcessor
func NewDisabledPayoutProcessor() *DisabledPayoutProcessor {
	return &DisabledPayoutProcessor{}
}

// Transfer always fails
func (p *DisabledPayoutProcessor) Transfer(_ context.Context, _ *settlement.Payout) (string, error) {
	return "", shared.NewDomainError("PAYMENT_FAILED", "Payout transfers are not configured")
}

var _ appsettlement.PayoutProcessor = (*DisabledPayoutProcessor)(nil)
