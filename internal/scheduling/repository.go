package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter narrows ListAppointments. Nil fields are ignored.
type AppointmentFilter struct {
	ProviderID *uuid.UUID
	PatientID  *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Repository contains all DB interactions needed by the registry and the
// booking service. The exclude argument on the counting queries lets the
// reschedule path leave the appointment being moved out of the counts.
type Repository interface {
	// Availability windows
	CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	GetWindowForDay(ctx context.Context, providerID uuid.UUID, day time.Weekday) (*AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	ListWindowsByProvider(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	HasActiveBooking(ctx context.Context, providerID, patientID uuid.UUID, date time.Time, exclude *uuid.UUID) (bool, error)
	ActiveQueueNumbersForDay(ctx context.Context, providerID uuid.UUID, date time.Time, exclude *uuid.UUID) ([]int, error)
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointmentSchedule(ctx context.Context, id uuid.UUID, date time.Time, queueNumber int) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)

	// No-show sweep
	FindStaleScheduled(ctx context.Context, before time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
