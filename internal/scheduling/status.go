package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// transitions is the full status graph: scheduled and in_progress may be
// cancelled, completed and cancelled are terminal.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func canTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus moves an appointment through the status graph. Only the status
// changes; date, queue number and the day's capacity accounting are untouched
// here (a cancelled appointment simply stops counting against capacity and
// conflicts from then on).
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus AppointmentStatus) (*Appointment, error) {
	if _, err := ParseStatus(string(newStatus)); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
	}

	// Conditional from->to update: if another request transitioned the
	// appointment in between, the guard fails and we report the race as an
	// invalid transition rather than applying it twice.
	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": string(appt.Status),
		"to":   string(newStatus),
	})
	s.notifier.StatusChanged(updated, appt.Status)

	return updated, nil
}
