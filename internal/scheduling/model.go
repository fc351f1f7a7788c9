package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// ParseStatus maps an external status string onto the enum.
func ParseStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// AvailabilityWindow is one provider's recurring weekly slot: a weekday,
// a wall-clock time range and the number of bookings accepted per day.
// At most one window exists per (provider, weekday) pair.
type AvailabilityWindow struct {
	ID            uuid.UUID
	ProviderID    uuid.UUID
	DayOfWeek     time.Weekday
	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	DailyCapacity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Appointment struct {
	ID          uuid.UUID
	ProviderID  uuid.UUID
	PatientID   uuid.UUID
	Date        time.Time // calendar day, midnight UTC
	Status      AppointmentStatus
	QueueNumber int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts the seven English weekday names, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
}

// ParseTimeOfDay validates an "HH:MM" wall-clock string and returns it as
// minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: time of day must be HH:MM, got %q", ErrValidation, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NormalizeDate truncates a timestamp to its calendar day in UTC. All dates
// stored and compared by the scheduling core go through this.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
