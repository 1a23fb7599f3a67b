package payment

import (
	"context"

	"servora/models"
)

// Gateway is the payment capability the booking engine calls. Every
// mutating call takes a caller-supplied idempotency key so a retry is
// served the original result instead of moving money twice.
type Gateway interface {
	// Authorize places a hold for the full amount and returns the intent id.
	Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error)

	// Capture converts part of the hold into a charge.
	Capture(ctx context.Context, intentID string, amount int64, idempotencyKey string) (*models.CaptureResult, error)

	// Refund returns captured funds to the customer.
	Refund(ctx context.Context, intentID string, amount int64, idempotencyKey string) (*models.RefundResult, error)

	// Transfer pays out captured funds to the provider's account.
	Transfer(ctx context.Context, amount int64, destinationAccountID string, idempotencyKey string) (*models.TransferResult, error)

	// ResolveCapture re-queries the gateway's authoritative state for an
	// intent whose capture outcome is unknown (e.g. after a timeout) and
	// returns the amount actually received.
	ResolveCapture(ctx context.Context, intentID string) (int64, error)
}
