package booking

import (
	"errors"
	"fmt"

	"servora/models"
)

// ValidationError indicates malformed input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Message)
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError indicates the caller is not the booking's assigned
// provider or customer.
type ForbiddenError struct {
	BookingID string
	CallerID  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("caller %s is not authorized for booking %s", e.CallerID, e.BookingID)
}

// ConflictError indicates a conditional transition lost: the booking was
// not in any of the allowed statuses. Benign; the caller should refetch.
type ConflictError struct {
	BookingID string
	Current   models.BookingStatus
	Attempted models.BookingStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking %s is %s, cannot move to %s", e.BookingID, e.Current, e.Attempted)
}

// NotFoundError indicates the booking id is unknown.
type NotFoundError struct {
	BookingID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.BookingID)
}

// IsConflict reports whether err is a lost transition race.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
