package gateway

import (
	"context"
	"fmt"

	"github.com/bazaar/backend/internal/application/settlement"
	domainsettlement "github.com/bazaar/backend/internal/domain/settlement"
	"github.com/bazaar/backend/internal/domain/vendor"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/transfer"
	"go.uber.org/zap"
)

// StripePayoutProcessor moves a payout batch's net amount to the
// vendor's connected Stripe account.
type StripePayoutProcessor struct {
	vendors  vendor.Repository
	currency string
	logger   *zap.Logger
}

// NewStripePayoutProcessor creates a processor transferring in the given currency.
func NewStripePayoutProcessor(vendors vendor.Repository, currency string, logger *zap.Logger) *StripePayoutProcessor {
	return &StripePayoutProcessor{
		vendors:  vendors,
		currency: currency,
		logger:   logger,
	}
}

// Transfer sends the payout net to the vendor's payout account and
// returns the provider's transfer reference.
func (p *StripePayoutProcessor) Transfer(ctx context.Context, payout *domainsettlement.Payout) (string, error) {
	v, err := p.vendors.FindByID(ctx, payout.VendorID)
	if err != nil {
		return "", fmt.Errorf("failed to load vendor %s: %w", payout.VendorID, err)
	}
	if v.PayoutAccount == "" {
		return "", fmt.Errorf("vendor %s has no payout account on file", payout.VendorID)
	}

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(payout.Net.Cents()),
		Currency:      stripe.String(p.currency),
		Destination:   stripe.String(v.PayoutAccount),
		TransferGroup: stripe.String(payout.ID.String()),
	}
	params.Context = ctx
	params.Metadata = map[string]string{
		"payout_id": payout.ID.String(),
		"vendor_id": payout.VendorID.String(),
	}

	tr, err := transfer.New(params)
	if err != nil {
		p.logger.Error("stripe transfer failed",
			zap.String("payout_id", payout.ID.String()),
			zap.String("vendor_id", payout.VendorID.String()),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to transfer payout %s: %w", payout.ID, err)
	}

	p.logger.Info("payout transferred",
		zap.String("payout_id", payout.ID.String()),
		zap.String("transfer_ref", tr.ID),
		zap.Int64("net_cents", payout.Net.Cents()))

	return tr.ID, nil
}

var _ settlement.PayoutProcessor = (*StripePayoutProcessor)(nil)
