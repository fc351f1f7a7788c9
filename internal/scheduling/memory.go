package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the
// package tests and local development without Postgres. It provides the same
// per-call consistency as the SQL implementation but no durability.
type MemoryRepository struct {
	mu      sync.RWMutex
	windows map[uuid.UUID]AvailabilityWindow
	appts   map[uuid.UUID]Appointment
	events  []EventLog
	nextEv  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		windows: make(map[uuid.UUID]AvailabilityWindow),
		appts:   make(map[uuid.UUID]Appointment),
	}
}

func (r *MemoryRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.windows {
		if existing.ProviderID == w.ProviderID && existing.DayOfWeek == w.DayOfWeek {
			return nil, ErrDuplicateWindow
		}
	}

	now := time.Now()
	created := *w
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = now
	created.UpdatedAt = now
	r.windows[created.ID] = created

	out := created
	return &out, nil
}

func (r *MemoryRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	out := w
	return &out, nil
}

func (r *MemoryRepository) GetWindowForDay(ctx context.Context, providerID uuid.UUID, day time.Weekday) (*AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.windows {
		if w.ProviderID == providerID && w.DayOfWeek == day {
			out := w
			return &out, nil
		}
	}
	return nil, ErrWindowNotFound
}

func (r *MemoryRepository) UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.windows[w.ID]
	if !ok {
		return nil, ErrWindowNotFound
	}
	for id, other := range r.windows {
		if id != w.ID && other.ProviderID == existing.ProviderID && other.DayOfWeek == w.DayOfWeek {
			return nil, ErrDuplicateWindow
		}
	}

	updated := *w
	updated.ProviderID = existing.ProviderID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.windows[w.ID] = updated

	out := updated
	return &out, nil
}

func (r *MemoryRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

func (r *MemoryRepository) ListWindowsByProvider(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []AvailabilityWindow
	for _, w := range r.windows {
		if w.ProviderID == providerID {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayOfWeek < result[j].DayOfWeek })
	return result, nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := a
	return &out, nil
}

func (r *MemoryRepository) HasActiveBooking(ctx context.Context, providerID, patientID uuid.UUID, date time.Time, exclude *uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := NormalizeDate(date)
	for _, a := range r.appts {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if a.ProviderID == providerID && a.PatientID == patientID && a.Date.Equal(day) && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ActiveQueueNumbersForDay(ctx context.Context, providerID uuid.UUID, date time.Time, exclude *uuid.UUID) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := NormalizeDate(date)
	var numbers []int
	for _, a := range r.appts {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if a.ProviderID == providerID && a.Date.Equal(day) && a.Status != StatusCancelled {
			numbers = append(numbers, a.QueueNumber)
		}
	}
	return numbers, nil
}

func (r *MemoryRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	created := *a
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.Date = NormalizeDate(created.Date)
	created.CreatedAt = now
	created.UpdatedAt = now
	r.appts[created.ID] = created

	out := created
	return &out, nil
}

func (r *MemoryRepository) UpdateAppointmentSchedule(ctx context.Context, id uuid.UUID, date time.Time, queueNumber int) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Date = NormalizeDate(date)
	a.QueueNumber = queueNumber
	a.UpdatedAt = time.Now()
	r.appts[id] = a

	out := a
	return &out, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appts[id] = a

	out := a
	return &out, nil
}

func (r *MemoryRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *MemoryRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appts {
		if f.ProviderID != nil && a.ProviderID != *f.ProviderID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.From != nil && a.Date.Before(NormalizeDate(*f.From)) {
			continue
		}
		if f.To != nil && a.Date.After(NormalizeDate(*f.To)) {
			continue
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].QueueNumber < result[j].QueueNumber
	})

	if f.Offset > 0 {
		if f.Offset >= len(result) {
			return nil, nil
		}
		result = result[f.Offset:]
	}
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) FindStaleScheduled(ctx context.Context, before time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := NormalizeDate(before)
	var result []Appointment
	for _, a := range r.appts {
		if a.Status == StatusScheduled && a.Date.Before(cutoff) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEv++
	ev.ID = r.nextEv
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log, oldest first.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
