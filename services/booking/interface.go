package booking

import (
	"context"
	"time"

	bookingRepo "servora/database/repository/booking"
	"servora/models"
	"servora/services/notification"
	"servora/services/payment"

	"go.uber.org/zap"
)

// BookingService drives the booking lifecycle and its staged payment
// captures. Status transitions and payment side effects are never merged
// into one atomic unit: a committed transition is a durable fact before
// any gateway call is attempted.
type BookingService interface {
	Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	ListForProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	ListForCustomer(ctx context.Context, customerID string) ([]models.Booking, error)

	Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	Decline(ctx context.Context, bookingID, providerID, reason string) (*models.Booking, error)
	Complete(ctx context.Context, bookingID, providerID string) (*CompletionResult, error)
	Cancel(ctx context.Context, bookingID, customerID string) (*models.Booking, error)

	// ExpireOverdue sweeps pending bookings past their response deadline.
	// Safe to run concurrently with itself and with request handlers.
	ExpireOverdue(ctx context.Context) (int, error)

	// RefundDeposit refunds the captured deposit of a declined or expired
	// booking. Idempotent; invoked by the refund task worker.
	RefundDeposit(ctx context.Context, bookingID string) error
}

// RefundQueue enqueues a best-effort refund follow-up so the expiry sweep
// never blocks on gateway calls.
type RefundQueue interface {
	EnqueueRefund(ctx context.Context, bookingID string) error
}

// Policy bundles the tunable money-movement knobs.
type Policy struct {
	DepositPercent int
	PlatformFeeBps int
	ResponseWindow time.Duration
	SweepBatchSize int64
	CaptureRetry   RetryPolicy
	TransferRetry  RetryPolicy
}

// PlatformFee computes the fee withheld from the provider payout.
func (p Policy) PlatformFee(total int64) int64 {
	return total * int64(p.PlatformFeeBps) / 10000
}

// DepositFor computes the deposit captured at acceptance time.
func (p Policy) DepositFor(total int64) int64 {
	return total * int64(p.DepositPercent) / 100
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo    bookingRepo.BookingRepository
	Gateway payment.Gateway
	Events  notification.EventPublisher
	Refunds RefundQueue
	Policy  Policy
	Logger  *zap.Logger
}

// Get returns a booking by id.
func (s *DefaultBookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if err == bookingRepo.ErrNotFound {
			return nil, &NotFoundError{BookingID: bookingID}
		}
		return nil, err
	}
	return b, nil
}

// ListForProvider returns a provider's bookings.
func (s *DefaultBookingService) ListForProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return s.Repo.ListByProvider(ctx, providerID)
}

// ListForCustomer returns a customer's bookings.
func (s *DefaultBookingService) ListForCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

// emitEvent publishes a status-changed event. Publish failures are logged
// and swallowed; event delivery is not this engine's correctness concern.
func (s *DefaultBookingService) emitEvent(ctx context.Context, b *models.Booking, old models.BookingStatus) {
	if s.Events == nil {
		return
	}
	event := models.BookingEvent{
		BookingID:     b.ID,
		OldStatus:     old,
		NewStatus:     b.Status,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    time.Now(),
	}
	if err := s.Events.PublishBookingEvent(ctx, event); err != nil {
		s.Logger.Warn("failed to publish booking event",
			zap.String("bookingID", b.ID),
			zap.String("newStatus", string(b.Status)),
			zap.Error(err))
	}
}
