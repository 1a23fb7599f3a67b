package booking

import (
	"context"
	"fmt"
	"time"

	"servora/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest carries everything needed to open a booking: the
// matching service has already selected the provider and priced the job.
type CreateBookingRequest struct {
	CustomerID      string
	ProviderID      string
	ServiceID       string
	BaseAmount      int64
	TotalAmount     int64
	PaymentMethodID string
	Description     string
}

func (req CreateBookingRequest) validate() error {
	switch {
	case req.CustomerID == "":
		return NewValidationError("missing customer id")
	case req.ProviderID == "":
		return NewValidationError("missing provider id")
	case req.ServiceID == "":
		return NewValidationError("missing service id")
	case req.PaymentMethodID == "":
		return NewValidationError("missing payment method")
	case req.BaseAmount <= 0:
		return NewValidationError("base amount must be positive, got %d", req.BaseAmount)
	case req.TotalAmount < req.BaseAmount:
		return NewValidationError("total amount %d below base amount %d", req.TotalAmount, req.BaseAmount)
	}
	return nil
}

// Create places the authorization hold for the full amount and persists a
// pending booking with its provider response deadline. The deposit is
// priced here but not captured; capture happens on acceptance.
func (s *DefaultBookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	intentID, err := s.Gateway.Authorize(ctx, models.AuthorizeRequest{
		Amount:          req.TotalAmount,
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize payment: %w", err)
	}

	now := time.Now()
	b := &models.Booking{
		ID:                       uuid.New().String(),
		CustomerID:               req.CustomerID,
		ProviderID:               req.ProviderID,
		ServiceID:                req.ServiceID,
		Status:                   models.BookingPending,
		BaseAmount:               req.BaseAmount,
		TotalAmount:              req.TotalAmount,
		DepositAmount:            s.Policy.DepositFor(req.TotalAmount),
		CapturedDeposit:          0,
		RemainingToCapture:       req.TotalAmount,
		PaymentIntentID:          intentID,
		PaymentStatus:            models.PaymentAuthorized,
		ProviderResponseDeadline: now.Add(s.Policy.ResponseWindow),
		CreatedAt:                now,
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.Logger.Info("booking created",
		zap.String("bookingID", b.ID),
		zap.String("providerID", b.ProviderID),
		zap.Int64("total", b.TotalAmount),
		zap.Int64("deposit", b.DepositAmount))

	s.emitEvent(ctx, b, "")
	return b, nil
}
