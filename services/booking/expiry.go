package booking

import (
	"context"
	"time"

	bookingRepo "servora/database/repository/booking"
	"servora/models"

	"go.uber.org/zap"
)

// ExpireOverdue sweeps pending bookings whose provider response deadline
// has passed and transitions them to expired. Multiple sweeps may run
// concurrently: only one wins the conditional update per row, the rest
// observe a conflict and skip. Refunds are enqueued, never executed
// inline, so one slow gateway call cannot stall the sweep cycle.
func (s *DefaultBookingService) ExpireOverdue(ctx context.Context) (int, error) {
	candidates, err := s.Repo.FindExpiredPending(ctx, time.Now(), s.Policy.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		id := candidates[i].ID
		b, err := s.Repo.Transition(ctx, id,
			[]models.BookingStatus{models.BookingPending}, models.BookingExpired, nil)
		if err != nil {
			if err == bookingRepo.ErrConflict || err == bookingRepo.ErrNotFound {
				// Another sweep or a provider response got there first.
				s.Logger.Debug("expiry lost the race, skipping", zap.String("bookingID", id))
				continue
			}
			return expired, err
		}

		expired++
		s.emitEvent(ctx, b, models.BookingPending)
		s.Logger.Info("booking expired without provider response",
			zap.String("bookingID", id),
			zap.Time("deadline", b.ProviderResponseDeadline))

		// Normally nothing was captured before acceptance; a non-zero
		// deposit here means an earlier accept flow died mid-way.
		if b.CapturedDeposit > 0 && s.Refunds != nil {
			if err := s.Refunds.EnqueueRefund(ctx, id); err != nil {
				s.Logger.Error("failed to enqueue expiry refund",
					zap.String("bookingID", id), zap.Error(err))
			}
		}
	}
	return expired, nil
}
