package booking

import (
	"context"
	"time"

	"servora/services/payment"

	"go.uber.org/zap"
)

// RetryPolicy is a bounded exponential backoff schedule for transient
// gateway failures. MaxAttempts counts the first try.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns how long to wait after the given attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// withRetry runs fn up to policy.MaxAttempts times, backing off between
// attempts. Only transient gateway errors are retried; terminal errors
// and context cancellation end the loop immediately.
func (s *DefaultBookingService) withRetry(ctx context.Context, policy RetryPolicy, op string, fn func() error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || !payment.IsTransient(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := policy.Delay(attempt)
		s.Logger.Warn("transient gateway failure, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
