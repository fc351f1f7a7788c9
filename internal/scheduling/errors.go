package scheduling

import "errors"

// Business-rule outcomes. All of these are expected results of evaluating a
// request against the scheduling rules; callers map them to transport codes.
var (
	ErrValidation        = errors.New("invalid input")
	ErrPastDate          = errors.New("date is in the past")
	ErrNotAvailable      = errors.New("provider has no availability window for that weekday")
	ErrConflict          = errors.New("patient already has a booking with this provider on that date")
	ErrCapacityExceeded  = errors.New("daily capacity reached for that date")
	ErrDuplicateWindow   = errors.New("availability window already exists for that weekday")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrWindowNotFound      = errors.New("availability window not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrDayContended is returned when the per-day booking lock could not be
	// acquired even after retries. The request can be safely repeated.
	ErrDayContended = errors.New("day is currently being booked, please retry")
)
