package notification

import (
	"context"

	"servora/models"
)

// EventPublisher receives booking-status-changed events. The notifier
// consuming them (push, email) lives outside this engine; publishing is
// best-effort and never fails a booking operation.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
	Close() error
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
