package payment

import (
	"context"
	"time"

	"servora/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway against the Stripe API. The client is
// injected rather than taken from the package-level singleton so tests
// and multi-tenant setups can supply their own.
type StripeGateway struct {
	api      *client.API
	logger   *zap.Logger
	currency string
	timeout  time.Duration
}

// NewStripeGateway builds a gateway client with its own API handle.
func NewStripeGateway(apiKey, currency string, timeout time.Duration, logger *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{
		api:      api,
		logger:   logger,
		currency: currency,
		timeout:  timeout,
	}
}

func (g *StripeGateway) callParams(ctx context.Context, idempotencyKey string) (stripe.Params, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	p := stripe.Params{Context: callCtx}
	if idempotencyKey != "" {
		p.SetIdempotencyKey(idempotencyKey)
	}
	return p, cancel
}

// Authorize places a manual-capture hold for the full booking amount.
func (g *StripeGateway) Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error) {
	p, cancel := g.callParams(ctx, "")
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Params:        p,
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(g.currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Warn("stripe authorize failed", zap.Error(err))
		return "", toGatewayError(err)
	}
	return intent.ID, nil
}

// Capture converts part of the hold into a charge.
func (g *StripeGateway) Capture(ctx context.Context, intentID string, amount int64, idempotencyKey string) (*models.CaptureResult, error) {
	p, cancel := g.callParams(ctx, idempotencyKey)
	defer cancel()

	params := &stripe.PaymentIntentCaptureParams{
		Params:          p,
		AmountToCapture: stripe.Int64(amount),
	}
	intent, err := g.api.PaymentIntents.Capture(intentID, params)
	if err != nil {
		g.logger.Warn("stripe capture failed",
			zap.String("intent", intentID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, toGatewayError(err)
	}
	return &models.CaptureResult{CapturedAmount: intent.AmountReceived}, nil
}

// Refund returns captured funds against the intent.
func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount int64, idempotencyKey string) (*models.RefundResult, error) {
	p, cancel := g.callParams(ctx, idempotencyKey)
	defer cancel()

	params := &stripe.RefundParams{
		Params:        p,
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amount),
	}
	ref, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Warn("stripe refund failed",
			zap.String("intent", intentID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, toGatewayError(err)
	}
	return &models.RefundResult{RefundID: ref.ID, Amount: ref.Amount}, nil
}

// Transfer pays out to the provider's connected account.
func (g *StripeGateway) Transfer(ctx context.Context, amount int64, destinationAccountID string, idempotencyKey string) (*models.TransferResult, error) {
	p, cancel := g.callParams(ctx, idempotencyKey)
	defer cancel()

	params := &stripe.TransferParams{
		Params:      p,
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(g.currency),
		Destination: stripe.String(destinationAccountID),
	}
	tr, err := g.api.Transfers.New(params)
	if err != nil {
		g.logger.Warn("stripe transfer failed",
			zap.String("destination", destinationAccountID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, toGatewayError(err)
	}
	return &models.TransferResult{TransferID: tr.ID, Amount: tr.Amount}, nil
}

// ResolveCapture fetches the intent's authoritative state. Used when a
// capture timed out with an unknown outcome: the caller must not assume
// failure and retry blindly.
func (g *StripeGateway) ResolveCapture(ctx context.Context, intentID string) (int64, error) {
	p, cancel := g.callParams(ctx, "")
	defer cancel()

	intent, err := g.api.PaymentIntents.Get(intentID, &stripe.PaymentIntentParams{Params: p})
	if err != nil {
		return 0, toGatewayError(err)
	}
	return intent.AmountReceived, nil
}
