package gateway

import (
	"context"
	"fmt"

	appgateway "github.com/bazaar/backend/internal/application/gateway"
	"github.com/bazaar/backend/internal/domain/shared/valueobject"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"go.uber.org/zap"
)

// StripeConfig holds the credentials for the Stripe integration
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Currency      string
}

// Validate checks the config is usable
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("stripe: api key is required")
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe: currency is required")
	}
	return nil
}

// StripeGateway captures and refunds card payments through Stripe
// payment intents.
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a gateway and installs the API key on the
// Stripe client.
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stripe.Key = config.APIKey
	return &StripeGateway{
		config: config,
		logger: logger,
	}, nil
}

// Charge captures the order total in a single confirmed payment intent.
func (g *StripeGateway) Charge(ctx context.Context, req appgateway.ChargeRequest) (*appgateway.ChargeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.config.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount.Cents()),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(req.PaymentToken),
		Confirm:       stripe.Bool(true),
		ReceiptEmail:  stripe.String(req.CustomerEmail),
	}
	params.Context = ctx
	params.Metadata = map[string]string{
		"order_id":     req.OrderID.String(),
		"order_number": req.OrderNumber,
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("stripe charge failed",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to capture payment: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("stripe: payment intent %s not captured: status %s", intent.ID, intent.Status)
	}

	g.logger.Info("payment captured",
		zap.String("order_number", req.OrderNumber),
		zap.String("payment_ref", intent.ID),
		zap.Int64("amount_cents", req.Amount.Cents()))

	return &appgateway.ChargeResult{PaymentRef: intent.ID}, nil
}

// Refund returns part of a captured payment to the customer.
func (g *StripeGateway) Refund(ctx context.Context, paymentRef string, amount valueobject.Money) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amount.Cents()),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		g.logger.Error("stripe refund failed",
			zap.String("payment_ref", paymentRef),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to refund payment %s: %w", paymentRef, err)
	}

	g.logger.Info("payment refunded",
		zap.String("payment_ref", paymentRef),
		zap.String("refund_ref", ref.ID),
		zap.Int64("amount_cents", amount.Cents()))

	return ref.ID, nil
}

var _ appgateway.PaymentGateway = (*StripeGateway)(nil)
