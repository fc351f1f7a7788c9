package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPgRepository(mock), mock
}

func windowRows(w AvailabilityWindow) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "provider_id", "day_of_week", "start_time", "end_time", "daily_capacity", "created_at", "updated_at",
	}).AddRow(w.ID, w.ProviderID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.DailyCapacity, w.CreatedAt, w.UpdatedAt)
}

func appointmentRows(a Appointment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "provider_id", "patient_id", "date", "status", "queue_number", "created_at", "updated_at",
	}).AddRow(a.ID, a.ProviderID, a.PatientID, a.Date, a.Status, a.QueueNumber, a.CreatedAt, a.UpdatedAt)
}

func TestPgCreateWindowUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO availability_windows").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "availability_windows_provider_id_day_of_week_key"})

	_, err := repo.CreateWindow(context.Background(), &AvailabilityWindow{
		ProviderID:    uuid.New(),
		DayOfWeek:     time.Monday,
		StartTime:     "09:00",
		EndTime:       "17:00",
		DailyCapacity: 10,
	})
	assert.ErrorIs(t, err, ErrDuplicateWindow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateWindowReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	w := AvailabilityWindow{
		ID:            uuid.New(),
		ProviderID:    uuid.New(),
		DayOfWeek:     time.Tuesday,
		StartTime:     "08:00",
		EndTime:       "12:00",
		DailyCapacity: 5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectQuery("INSERT INTO availability_windows").
		WithArgs(w.ID, w.ProviderID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.DailyCapacity).
		WillReturnRows(windowRows(w))

	created, err := repo.CreateWindow(context.Background(), &w)
	require.NoError(t, err)
	assert.Equal(t, w.ID, created.ID)
	assert.Equal(t, time.Tuesday, created.DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetWindowForDayNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	provider := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM availability_windows").
		WithArgs(provider, int(time.Friday)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "provider_id", "day_of_week", "start_time", "end_time", "daily_capacity", "created_at", "updated_at",
		}))

	_, err := repo.GetWindowForDay(context.Background(), provider, time.Friday)
	assert.ErrorIs(t, err, ErrWindowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDeleteWindowNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM availability_windows").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteWindow(context.Background(), id)
	assert.ErrorIs(t, err, ErrWindowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgHasActiveBooking(t *testing.T) {
	repo, mock := newMockRepo(t)
	provider, patient := uuid.New(), uuid.New()
	date := NormalizeDate(time.Now())

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(provider, patient, date, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasActiveBooking(context.Background(), provider, patient, date, nil)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgActiveQueueNumbersForDay(t *testing.T) {
	repo, mock := newMockRepo(t)
	provider := uuid.New()
	date := NormalizeDate(time.Now())

	rows := pgxmock.NewRows([]string{"queue_number"}).AddRow(1).AddRow(3).AddRow(4)
	mock.ExpectQuery("SELECT queue_number FROM appointments").
		WithArgs(provider, date, pgxmock.AnyArg()).
		WillReturnRows(rows)

	numbers, err := repo.ActiveQueueNumbersForDay(context.Background(), provider, date, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, numbers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateAppointmentStatusMissedGuard(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	// No row matches id+status: the guard caught a concurrent change.
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, StatusInProgress, StatusScheduled).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "provider_id", "patient_id", "date", "status", "queue_number", "created_at", "updated_at",
		}))

	_, err := repo.UpdateAppointmentStatus(context.Background(), id, StatusScheduled, StatusInProgress)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateAppointmentStatusSuccess(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	a := Appointment{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		PatientID:   uuid.New(),
		Date:        NormalizeDate(now),
		Status:      StatusInProgress,
		QueueNumber: 2,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(a.ID, StatusInProgress, StatusScheduled).
		WillReturnRows(appointmentRows(a))

	updated, err := repo.UpdateAppointmentStatus(context.Background(), a.ID, StatusScheduled, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, updated.Status)
	assert.Equal(t, 2, updated.QueueNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgListAppointmentsBuildsFilter(t *testing.T) {
	repo, mock := newMockRepo(t)

	provider := uuid.New()
	from := NormalizeDate(time.Now())
	to := from.AddDate(0, 0, 7)

	now := time.Now()
	a := Appointment{
		ID:          uuid.New(),
		ProviderID:  provider,
		PatientID:   uuid.New(),
		Date:        from,
		Status:      StatusScheduled,
		QueueNumber: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(provider, from, to, 20, 0).
		WillReturnRows(appointmentRows(a))

	result, err := repo.ListAppointments(context.Background(), AppointmentFilter{
		ProviderID: &provider,
		From:       &from,
		To:         &to,
		Limit:      20,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, a.ID, result[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDeleteAppointment(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteAppointment(context.Background(), id))

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.DeleteAppointment(context.Background(), id), ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgInsertEvent(t *testing.T) {
	repo, mock := newMockRepo(t)
	apptID := uuid.New()

	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs("BOOKING_CREATED", &apptID, []byte(`{"queue_number":1}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertEvent(context.Background(), EventLog{
		EventType:     "BOOKING_CREATED",
		AppointmentID: &apptID,
		Payload:       []byte(`{"queue_number":1}`),
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
