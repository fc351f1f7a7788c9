package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the repository needs. Kept narrow so tests
// can substitute a mock pool.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Helpers

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var dow int

	err := row.Scan(
		&w.ID,
		&w.ProviderID,
		&dow,
		&w.StartTime,
		&w.EndTime,
		&w.DailyCapacity,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.DayOfWeek = time.Weekday(dow)
	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientID,
		&a.Date,
		&a.Status,
		&a.QueueNumber,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = NormalizeDate(a.Date)
	return &a, nil
}

// Availability windows

func (r *PgRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	id := w.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO availability_windows (id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at
	`, id, w.ProviderID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.DailyCapacity)

	created, err := scanWindow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateWindow
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) GetWindowForDay(ctx context.Context, providerID uuid.UUID, day time.Weekday) (*AvailabilityWindow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at
		FROM availability_windows
		WHERE provider_id = $1 AND day_of_week = $2
	`, providerID, int(day))
	return scanWindow(row)
}

func (r *PgRepository) UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE availability_windows
		SET day_of_week = $2,
		    start_time = $3,
		    end_time = $4,
		    daily_capacity = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at
	`, w.ID, int(w.DayOfWeek), w.StartTime, w.EndTime, w.DailyCapacity)

	updated, err := scanWindow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateWindow
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM availability_windows
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListWindowsByProvider(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, provider_id, day_of_week, start_time, end_time, daily_capacity, created_at, updated_at
		FROM availability_windows
		WHERE provider_id = $1
		ORDER BY day_of_week
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) HasActiveBooking(ctx context.Context, providerID, patientID uuid.UUID, date time.Time, exclude *uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1
			  AND patient_id = $2
			  AND date = $3
			  AND status <> 'cancelled'
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`, providerID, patientID, NormalizeDate(date), exclude).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) ActiveQueueNumbersForDay(ctx context.Context, providerID uuid.UUID, date time.Time, exclude *uuid.UUID) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT queue_number FROM appointments
		WHERE provider_id = $1
		  AND date = $2
		  AND status <> 'cancelled'
		  AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY queue_number
	`, providerID, NormalizeDate(date), exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, provider_id, patient_id, date, status, queue_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
	`, id, a.ProviderID, a.PatientID, NormalizeDate(a.Date), a.Status, a.QueueNumber)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentSchedule(ctx context.Context, id uuid.UUID, date time.Time, queueNumber int) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2,
		    queue_number = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
	`, id, NormalizeDate(date), queueNumber)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	query := `
		SELECT id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
		FROM appointments
		WHERE 1=1`
	var args []any

	if f.ProviderID != nil {
		args = append(args, *f.ProviderID)
		query += fmt.Sprintf(" AND provider_id = $%d", len(args))
	}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, NormalizeDate(*f.From))
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, NormalizeDate(*f.To))
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY date, queue_number LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) FindStaleScheduled(ctx context.Context, before time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, provider_id, patient_id, date, status, queue_number, created_at, updated_at
		FROM appointments
		WHERE status = 'scheduled'
		  AND date < $1
	`, NormalizeDate(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
