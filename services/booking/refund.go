package booking

import (
	"context"

	"servora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// RefundDeposit refunds the captured deposit of a declined or expired
// booking. The idempotency key pins the gateway side; the payment_status
// check makes re-delivery of the task a no-op, so the worker may safely
// run it any number of times.
func (s *DefaultBookingService) RefundDeposit(ctx context.Context, bookingID string) error {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	if b.Status != models.BookingDeclined && b.Status != models.BookingExpired {
		return NewValidationError("booking %s is %s, refunds apply to declined or expired bookings only", bookingID, b.Status)
	}
	if b.CapturedDeposit == 0 || b.PaymentStatus == models.PaymentRefunded {
		return nil
	}

	result, err := s.Gateway.Refund(ctx, b.PaymentIntentID, b.CapturedDeposit, "refund:"+bookingID)
	if err != nil {
		return err
	}

	if _, err := s.Repo.Update(ctx, bookingID, bson.M{
		"payment_status": models.PaymentRefunded,
		"refund_id":      result.RefundID,
	}); err != nil {
		return err
	}

	s.Logger.Info("deposit refunded",
		zap.String("bookingID", bookingID),
		zap.String("refundID", result.RefundID),
		zap.Int64("amount", b.CapturedDeposit))
	return nil
}
