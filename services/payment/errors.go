package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

// Error kinds reported by the gateway client.
const (
	KindCardDeclined   = "card_declined"
	KindInvalidRequest = "invalid_request"
	KindRateLimited    = "rate_limited"
	KindAPIError       = "api_error"
	KindTimeout        = "timeout"
	KindNetwork        = "network"
)

// GatewayError is the structured failure returned by every gateway call.
// Retryable errors (timeouts, 5xx, rate limits) may be retried with
// backoff; the rest are terminal and must be surfaced immediately.
type GatewayError struct {
	Kind      string
	Retryable bool
	Message   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

// IsTransient reports whether err is a retryable gateway failure.
func IsTransient(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Retryable
}

// toGatewayError maps a raw Stripe/transport error onto the taxonomy.
func toGatewayError(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Type == stripe.ErrorTypeCard:
			return &GatewayError{Kind: KindCardDeclined, Retryable: false, Message: stripeErr.Msg}
		case stripeErr.HTTPStatusCode == 429:
			return &GatewayError{Kind: KindRateLimited, Retryable: true, Message: stripeErr.Msg}
		case stripeErr.HTTPStatusCode >= 500:
			return &GatewayError{Kind: KindAPIError, Retryable: true, Message: stripeErr.Msg}
		default:
			return &GatewayError{Kind: KindInvalidRequest, Retryable: false, Message: stripeErr.Msg}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &GatewayError{Kind: KindTimeout, Retryable: true, Message: err.Error()}
	}

	// Anything else is a transport-level failure; the call may not have
	// reached Stripe at all.
	return &GatewayError{Kind: KindNetwork, Retryable: true, Message: err.Error()}
}
