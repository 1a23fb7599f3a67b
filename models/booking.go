package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingDeclined  BookingStatus = "declined"
	BookingExpired   BookingStatus = "expired"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks how far the staged capture has progressed,
// independently of the booking lifecycle.
type PaymentStatus string

const (
	PaymentAuthorized      PaymentStatus = "authorized"
	PaymentDepositCaptured PaymentStatus = "deposit_captured"
	PaymentCompleted       PaymentStatus = "completed"
	PaymentCaptureFailed   PaymentStatus = "capture_failed"
	PaymentRefunded        PaymentStatus = "refunded"
)

// Booking represents a service booking record. Amounts are minor units
// (cents). A row is never deleted; terminal rows are retained as history.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	CustomerID string `bson:"customer_id" json:"customer_id"`
	ProviderID string `bson:"provider_id" json:"provider_id"`
	ServiceID  string `bson:"service_id" json:"service_id"`

	Status BookingStatus `bson:"status" json:"status"`

	BaseAmount         int64 `bson:"base_amount" json:"base_amount"`
	TotalAmount        int64 `bson:"total_amount" json:"total_amount"`
	DepositAmount      int64 `bson:"deposit_amount" json:"deposit_amount"`
	CapturedDeposit    int64 `bson:"captured_deposit" json:"captured_deposit"`
	RemainingToCapture int64 `bson:"remaining_to_capture" json:"remaining_to_capture"`

	PaymentIntentID   string        `bson:"payment_intent_id" json:"payment_intent_id"`
	PaymentStatus     PaymentStatus `bson:"payment_status" json:"payment_status"`
	RefundID          string        `bson:"refund_id,omitempty" json:"refund_id,omitempty"`
	PaymentFailureMsg string        `bson:"payment_failure_msg,omitempty" json:"payment_failure_msg,omitempty"`

	ProviderResponseDeadline time.Time  `bson:"provider_response_deadline" json:"provider_response_deadline"`
	DeclineReason            string     `bson:"decline_reason,omitempty" json:"decline_reason,omitempty"`
	CompletedAt              *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt                time.Time  `bson:"created_at" json:"created_at"`
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingDeclined, BookingExpired, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// transitionGraph holds the only legal lifecycle edges. No edge re-enters
// pending and no edge leaves a terminal state.
var transitionGraph = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingAccepted, BookingDeclined, BookingExpired},
	BookingAccepted: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether (from, to) is a legal lifecycle edge.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitionGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}
