package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleSchedulingError maps the core's business-rule outcomes to HTTP. Every
// sentinel is an expected result; only unrecognized errors become a 500.
func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scheduling.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, scheduling.ErrNotAvailable):
		writeError(w, http.StatusConflict, "provider_not_available", err.Error())
	case errors.Is(err, scheduling.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate_booking", err.Error())
	case errors.Is(err, scheduling.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, scheduling.ErrDuplicateWindow):
		writeError(w, http.StatusConflict, "duplicate_window", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrDayContended):
		writeError(w, http.StatusConflict, "day_being_booked", "day is currently being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// outcomeLabel reduces a booking result to a metric label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, scheduling.ErrValidation):
		return "validation"
	case errors.Is(err, scheduling.ErrPastDate):
		return "past_date"
	case errors.Is(err, scheduling.ErrNotAvailable):
		return "not_available"
	case errors.Is(err, scheduling.ErrConflict):
		return "conflict"
	case errors.Is(err, scheduling.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, scheduling.ErrDayContended):
		return "contended"
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		return "not_found"
	default:
		return "error"
	}
}
