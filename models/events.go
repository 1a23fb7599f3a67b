package models

import "time"

// BookingEvent is published on every committed status transition so the
// notification layer can react. Delivery guarantees are the consumer's
// concern, not the engine's.
type BookingEvent struct {
	BookingID     string        `json:"booking_id"`
	OldStatus     BookingStatus `json:"old_status"`
	NewStatus     BookingStatus `json:"new_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
