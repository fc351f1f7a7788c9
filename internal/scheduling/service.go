package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

const (
	EventBookingCreated     = "BOOKING_CREATED"
	EventBookingRescheduled = "BOOKING_RESCHEDULED"
	EventBookingDeleted     = "BOOKING_DELETED"
	EventStatusChanged      = "STATUS_CHANGED"
)

// Service is the booking allocator: it runs validation, availability lookup,
// conflict detection, capacity check and queue assignment as one decision,
// and is the only component that writes appointment rows on create and
// reschedule.
type Service struct {
	repo      Repository
	registry  *Registry
	conflicts *ConflictDetector
	queue     *QueueAssigner
	locker    redisclient.DayLocker
	notifier  Notifier
	now       func() time.Time
}

func NewService(repo Repository, registry *Registry, locker redisclient.DayLocker, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		repo:      repo,
		registry:  registry,
		conflicts: NewConflictDetector(repo),
		queue:     NewQueueAssigner(repo),
		locker:    locker,
		notifier:  notifier,
		now:       time.Now,
	}
}

// CreateAppointment books a patient with a provider on a calendar day.
// The capacity check and queue assignment run inside the day lock so two
// concurrent requests can never both observe the last free slot.
func (s *Service) CreateAppointment(ctx context.Context, providerID, patientID uuid.UUID, date time.Time) (*Appointment, error) {
	if providerID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	day := NormalizeDate(date)
	if day.Before(NormalizeDate(s.now())) {
		return nil, ErrPastDate
	}

	window, err := s.findWindow(ctx, providerID, day)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithDayLock(ctx, providerID, day, func(lockCtx context.Context) error {
		conflict, err := s.conflicts.HasConflict(lockCtx, providerID, patientID, day, nil)
		if err != nil {
			return fmt.Errorf("check conflict: %w", err)
		}
		if conflict {
			return ErrConflict
		}

		next, active, err := s.queue.NextQueueNumber(lockCtx, providerID, day, nil)
		if err != nil {
			return fmt.Errorf("next queue number: %w", err)
		}
		if active >= window.DailyCapacity {
			return ErrCapacityExceeded
		}

		appt, err := s.repo.CreateAppointment(lockCtx, &Appointment{
			ProviderID:  providerID,
			PatientID:   patientID,
			Date:        day,
			Status:      StatusScheduled,
			QueueNumber: next,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventBookingCreated, map[string]any{
			"provider_id":  providerID.String(),
			"patient_id":   patientID.String(),
			"date":         day.Format("2006-01-02"),
			"queue_number": next,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayContended
		}
		return nil, err
	}

	s.notifier.BookingCreated(created)
	return created, nil
}

// RescheduleAppointment moves an existing appointment to a new date, running
// the same pipeline as creation but with the appointment itself excluded from
// the conflict and capacity counts. Status and id are unchanged; the queue
// number is recomputed for the new date.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newDate time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if newDate.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	day := NormalizeDate(newDate)
	if day.Before(NormalizeDate(s.now())) {
		return nil, ErrPastDate
	}

	// Same date keeps the queue number (it is stable unless the appointment
	// actually moves).
	if day.Equal(appt.Date) {
		return appt, nil
	}

	window, err := s.findWindow(ctx, appt.ProviderID, day)
	if err != nil {
		return nil, err
	}

	var updated *Appointment

	err = s.locker.WithDayLock(ctx, appt.ProviderID, day, func(lockCtx context.Context) error {
		conflict, err := s.conflicts.HasConflict(lockCtx, appt.ProviderID, appt.PatientID, day, &appt.ID)
		if err != nil {
			return fmt.Errorf("check conflict: %w", err)
		}
		if conflict {
			return ErrConflict
		}

		next, active, err := s.queue.NextQueueNumber(lockCtx, appt.ProviderID, day, &appt.ID)
		if err != nil {
			return fmt.Errorf("next queue number: %w", err)
		}
		if active >= window.DailyCapacity {
			return ErrCapacityExceeded
		}

		moved, err := s.repo.UpdateAppointmentSchedule(lockCtx, appt.ID, day, next)
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		updated = moved

		s.logEvent(lockCtx, appt.ID, EventBookingRescheduled, map[string]any{
			"from_date":    appt.Date.Format("2006-01-02"),
			"to_date":      day.Format("2006-01-02"),
			"queue_number": next,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayContended
		}
		return nil, err
	}

	s.notifier.BookingRescheduled(updated)
	return updated, nil
}

// DeleteAppointment removes the record. Queue numbers of the remaining
// appointments for that day are not renumbered, so gaps are expected.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.logEvent(ctx, id, EventBookingDeleted, map[string]any{})
	return nil
}

// GetAppointment retrieves an appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListAppointments returns appointments matching the filter, ordered by date
// then queue number.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListAppointments(ctx, f)
}

// CancelStaleScheduled is called periodically by the no-show worker. It
// cancels appointments that were never started before their day passed.
func (s *Service) CancelStaleScheduled(ctx context.Context) error {
	today := NormalizeDate(s.now())

	stale, err := s.repo.FindStaleScheduled(ctx, today)
	if err != nil {
		return fmt.Errorf("find stale scheduled appointments: %w", err)
	}

	for _, appt := range stale {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to cancel stale appointment %s: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventStatusChanged, map[string]any{
			"from":   string(StatusScheduled),
			"to":     string(StatusCancelled),
			"reason": "no_show_sweep",
		})
	}

	return nil
}

func (s *Service) findWindow(ctx context.Context, providerID uuid.UUID, day time.Time) (*AvailabilityWindow, error) {
	window, err := s.registry.FindWindow(ctx, providerID, day.Weekday())
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return nil, ErrNotAvailable
		}
		return nil, fmt.Errorf("load availability window: %w", err)
	}
	return window, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
