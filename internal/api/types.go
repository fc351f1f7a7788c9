package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

type CreateWindowRequest struct {
	ProviderID    string `json:"provider_id"`
	DayOfWeek     string `json:"day_of_week"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	DailyCapacity int    `json:"daily_capacity"`
}

type UpdateWindowRequest struct {
	DayOfWeek     *string `json:"day_of_week,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	DailyCapacity *int    `json:"daily_capacity,omitempty"`
}

type WindowResponse struct {
	ID            uuid.UUID `json:"id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	DayOfWeek     string    `json:"day_of_week"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	DailyCapacity int       `json:"daily_capacity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toWindowResponse(w *scheduling.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		ID:            w.ID,
		ProviderID:    w.ProviderID,
		DayOfWeek:     w.DayOfWeek.String(),
		StartTime:     w.StartTime,
		EndTime:       w.EndTime,
		DailyCapacity: w.DailyCapacity,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

type CreateAppointmentRequest struct {
	ProviderID string `json:"provider_id"`
	PatientID  string `json:"patient_id"`
	Date       string `json:"date"` // YYYY-MM-DD
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	QueueNumber int       `json:"queue_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		ProviderID:  a.ProviderID,
		PatientID:   a.PatientID,
		Date:        a.Date.Format("2006-01-02"),
		Status:      string(a.Status),
		QueueNumber: a.QueueNumber,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
