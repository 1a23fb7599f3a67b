package booking

import (
	"context"
	"time"

	"servora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Completion step names used in CompletionResult.FailedStep.
const (
	StepCharge   = "charge"
	StepTransfer = "transfer"
)

// CompletionResult distinguishes which payment step failed so the caller
// can present an accurate message instead of a generic error. The booking
// itself is completed in every variant; the service was rendered and that
// fact does not reverse.
type CompletionResult struct {
	Booking       *models.Booking
	ChargeDone    bool
	TransferID    string
	FailedStep    string
	FailureDetail string
}

// Complete commits accepted -> completed, captures the remaining balance
// and transfers the provider payout minus the platform fee. Transfer
// failures after the bounded retry leave the booking completed but
// flagged for manual payout reconciliation.
func (s *DefaultBookingService) Complete(ctx context.Context, bookingID, providerID string) (*CompletionResult, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &ForbiddenError{BookingID: bookingID, CallerID: providerID}
	}

	now := time.Now()
	completed, err := s.Repo.Transition(ctx, bookingID,
		[]models.BookingStatus{models.BookingAccepted}, models.BookingCompleted,
		bson.M{"completed_at": now})
	if err != nil {
		return nil, s.transitionErr(ctx, bookingID, models.BookingCompleted, err)
	}
	s.emitEvent(ctx, completed, models.BookingAccepted)

	remaining := completed.TotalAmount - completed.CapturedDeposit
	if remaining > 0 {
		idempotencyKey := "capture:remaining:" + bookingID
		if err := s.capture(ctx, completed.PaymentIntentID, remaining, idempotencyKey, completed.TotalAmount); err != nil {
			s.Logger.Error("remaining capture failed",
				zap.String("bookingID", bookingID),
				zap.Int64("remaining", remaining),
				zap.Error(err))
			updated, uerr := s.Repo.Update(ctx, bookingID, bson.M{
				"payment_status":      models.PaymentCaptureFailed,
				"payment_failure_msg": err.Error(),
			})
			if uerr != nil {
				return nil, uerr
			}
			return &CompletionResult{
				Booking:       updated,
				FailedStep:    StepCharge,
				FailureDetail: err.Error(),
			}, nil
		}
	}

	payout := completed.TotalAmount - s.Policy.PlatformFee(completed.TotalAmount)
	transferKey := "transfer:" + bookingID
	var transferID string
	err = s.withRetry(ctx, s.Policy.TransferRetry, "transfer", func() error {
		result, callErr := s.Gateway.Transfer(ctx, payout, completed.ProviderID, transferKey)
		if callErr != nil {
			return callErr
		}
		transferID = result.TransferID
		return nil
	})
	if err != nil {
		s.Logger.Error("provider transfer failed, flagged for payout reconciliation",
			zap.String("bookingID", bookingID),
			zap.Int64("payout", payout),
			zap.Error(err))
		updated, uerr := s.Repo.Update(ctx, bookingID, bson.M{
			"payment_status":       models.PaymentCaptureFailed,
			"payment_failure_msg":  err.Error(),
			"remaining_to_capture": int64(0),
		})
		if uerr != nil {
			return nil, uerr
		}
		return &CompletionResult{
			Booking:       updated,
			ChargeDone:    true,
			FailedStep:    StepTransfer,
			FailureDetail: err.Error(),
		}, nil
	}

	updated, err := s.Repo.Update(ctx, bookingID, bson.M{
		"payment_status":       models.PaymentCompleted,
		"remaining_to_capture": int64(0),
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking completed, provider paid",
		zap.String("bookingID", bookingID),
		zap.Int64("payout", payout),
		zap.String("transferID", transferID))
	return &CompletionResult{
		Booking:    updated,
		ChargeDone: true,
		TransferID: transferID,
	}, nil
}

// Cancel commits accepted -> cancelled for the booking's customer. The
// captured deposit is forfeited; refunds are issued only for declined and
// expired bookings.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, customerID string) (*models.Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, &ForbiddenError{BookingID: bookingID, CallerID: customerID}
	}

	cancelled, err := s.Repo.Transition(ctx, bookingID,
		[]models.BookingStatus{models.BookingAccepted}, models.BookingCancelled, nil)
	if err != nil {
		return nil, s.transitionErr(ctx, bookingID, models.BookingCancelled, err)
	}
	s.emitEvent(ctx, cancelled, models.BookingAccepted)

	s.Logger.Info("booking cancelled by customer",
		zap.String("bookingID", bookingID),
		zap.Int64("forfeitedDeposit", cancelled.CapturedDeposit))
	return cancelled, nil
}
