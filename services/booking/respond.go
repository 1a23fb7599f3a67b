package booking

import (
	"context"

	bookingRepo "servora/database/repository/booking"
	"servora/models"
	"servora/services/payment"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const maxDeclineReasonLen = 500

// transitionErr maps repository sentinels onto the service taxonomy. On a
// conflict the current status is refetched for the caller's benefit.
func (s *DefaultBookingService) transitionErr(ctx context.Context, bookingID string, attempted models.BookingStatus, err error) error {
	switch err {
	case bookingRepo.ErrNotFound:
		return &NotFoundError{BookingID: bookingID}
	case bookingRepo.ErrConflict:
		ce := &ConflictError{BookingID: bookingID, Attempted: attempted}
		if current, gerr := s.Repo.GetByID(ctx, bookingID); gerr == nil {
			ce.Current = current.Status
		}
		return ce
	}
	return err
}

// capture charges amount against the intent, retrying transient failures
// with bounded backoff. If the outcome is still unknown after exhaustion
// (timeouts), the gateway's authoritative state decides: a capture that
// actually landed is never re-attempted or reported as failed.
func (s *DefaultBookingService) capture(ctx context.Context, intentID string, amount int64, idempotencyKey string, wantReceived int64) error {
	err := s.withRetry(ctx, s.Policy.CaptureRetry, "capture", func() error {
		_, callErr := s.Gateway.Capture(ctx, intentID, amount, idempotencyKey)
		return callErr
	})
	if err == nil {
		return nil
	}
	if payment.IsTransient(err) {
		if received, rerr := s.Gateway.ResolveCapture(ctx, intentID); rerr == nil && received >= wantReceived {
			s.Logger.Info("capture confirmed by gateway state after ambiguous failure",
				zap.String("intent", intentID),
				zap.Int64("received", received))
			return nil
		}
	}
	return err
}

// Accept commits pending -> accepted for the assigned provider, then
// captures the deposit. Accepting and failing to capture are independent
// facts: a capture failure is recorded on payment_status while the
// booking stays accepted.
func (s *DefaultBookingService) Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &ForbiddenError{BookingID: bookingID, CallerID: providerID}
	}

	accepted, err := s.Repo.Transition(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending}, models.BookingAccepted, nil)
	if err != nil {
		return nil, s.transitionErr(ctx, bookingID, models.BookingAccepted, err)
	}
	s.emitEvent(ctx, accepted, models.BookingPending)

	if accepted.DepositAmount == 0 {
		return accepted, nil
	}

	idempotencyKey := "capture:deposit:" + bookingID
	if err := s.capture(ctx, accepted.PaymentIntentID, accepted.DepositAmount, idempotencyKey, accepted.DepositAmount); err != nil {
		s.Logger.Error("deposit capture failed",
			zap.String("bookingID", bookingID),
			zap.Int64("deposit", accepted.DepositAmount),
			zap.Error(err))
		return s.Repo.Update(ctx, bookingID, bson.M{
			"payment_status":      models.PaymentCaptureFailed,
			"payment_failure_msg": err.Error(),
		})
	}

	updated, err := s.Repo.Update(ctx, bookingID, bson.M{
		"captured_deposit":     accepted.DepositAmount,
		"remaining_to_capture": accepted.TotalAmount - accepted.DepositAmount,
		"payment_status":       models.PaymentDepositCaptured,
	})
	if err != nil {
		return accepted, err
	}

	s.Logger.Info("booking accepted, deposit captured",
		zap.String("bookingID", bookingID),
		zap.Int64("deposit", accepted.DepositAmount))
	return updated, nil
}

// Decline commits pending -> declined. The transition is the caller's
// commitment; if a deposit was somehow captured, the refund is attempted
// afterwards and a refund failure is left as a payment_status
// inconsistency for reconciliation, never rolled back.
func (s *DefaultBookingService) Decline(ctx context.Context, bookingID, providerID, reason string) (*models.Booking, error) {
	if len(reason) > maxDeclineReasonLen {
		return nil, NewValidationError("decline reason exceeds %d characters", maxDeclineReasonLen)
	}

	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &ForbiddenError{BookingID: bookingID, CallerID: providerID}
	}

	var set bson.M
	if reason != "" {
		set = bson.M{"decline_reason": reason}
	}
	declined, err := s.Repo.Transition(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending}, models.BookingDeclined, set)
	if err != nil {
		return nil, s.transitionErr(ctx, bookingID, models.BookingDeclined, err)
	}
	s.emitEvent(ctx, declined, models.BookingPending)

	if declined.CapturedDeposit == 0 {
		// Pure state transition; the hold simply lapses.
		return declined, nil
	}

	if err := s.RefundDeposit(ctx, bookingID); err != nil {
		s.Logger.Error("refund after decline failed, flagged for reconciliation",
			zap.String("bookingID", bookingID),
			zap.Int64("captured", declined.CapturedDeposit),
			zap.Error(err))
		return declined, nil
	}
	return s.Get(ctx, bookingID)
}
