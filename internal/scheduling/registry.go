package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// WindowCache is an optional read-through cache for availability windows,
// keyed per (provider, weekday). Implementations must be best-effort; the
// registry falls back to the repository on any miss.
type WindowCache interface {
	Get(ctx context.Context, providerID uuid.UUID, day time.Weekday) ([]byte, bool)
	Set(ctx context.Context, providerID uuid.UUID, day time.Weekday, payload []byte)
	Invalidate(ctx context.Context, providerID uuid.UUID, day time.Weekday)
}

// WindowPatch carries the fields of an availability window that may be
// updated. Nil fields keep their current values.
type WindowPatch struct {
	DayOfWeek     *string
	StartTime     *string
	EndTime       *string
	DailyCapacity *int
}

// Registry manages each provider's recurring weekly availability windows.
type Registry struct {
	repo  Repository
	cache WindowCache
}

func NewRegistry(repo Repository, cache WindowCache) *Registry {
	return &Registry{repo: repo, cache: cache}
}

// CreateWindow registers a weekly window for a provider. At most one window
// may exist per (provider, weekday); a second attempt fails with
// ErrDuplicateWindow.
func (g *Registry) CreateWindow(ctx context.Context, providerID uuid.UUID, dayOfWeek, startTime, endTime string, dailyCapacity int) (*AvailabilityWindow, error) {
	if providerID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider id is required", ErrValidation)
	}

	day, err := ParseWeekday(dayOfWeek)
	if err != nil {
		return nil, err
	}
	if err := validateWindowTimes(startTime, endTime, dailyCapacity); err != nil {
		return nil, err
	}

	// The DB unique constraint is the real guard; this pre-check just gives
	// a cleaner error without burning a sequence value.
	if _, err := g.repo.GetWindowForDay(ctx, providerID, day); err == nil {
		return nil, ErrDuplicateWindow
	} else if !errors.Is(err, ErrWindowNotFound) {
		return nil, fmt.Errorf("check existing window: %w", err)
	}

	created, err := g.repo.CreateWindow(ctx, &AvailabilityWindow{
		ProviderID:    providerID,
		DayOfWeek:     day,
		StartTime:     startTime,
		EndTime:       endTime,
		DailyCapacity: dailyCapacity,
	})
	if err != nil {
		return nil, err
	}

	g.invalidate(ctx, providerID, day)
	return created, nil
}

// UpdateWindow merges the patch into the stored window, re-validates the
// merged values and persists them.
func (g *Registry) UpdateWindow(ctx context.Context, id uuid.UUID, patch WindowPatch) (*AvailabilityWindow, error) {
	existing, err := g.repo.GetWindowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if patch.DayOfWeek != nil {
		day, err := ParseWeekday(*patch.DayOfWeek)
		if err != nil {
			return nil, err
		}
		merged.DayOfWeek = day
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.DailyCapacity != nil {
		merged.DailyCapacity = *patch.DailyCapacity
	}

	if err := validateWindowTimes(merged.StartTime, merged.EndTime, merged.DailyCapacity); err != nil {
		return nil, err
	}

	if merged.DayOfWeek != existing.DayOfWeek {
		if _, err := g.repo.GetWindowForDay(ctx, existing.ProviderID, merged.DayOfWeek); err == nil {
			return nil, ErrDuplicateWindow
		} else if !errors.Is(err, ErrWindowNotFound) {
			return nil, fmt.Errorf("check existing window: %w", err)
		}
	}

	updated, err := g.repo.UpdateWindow(ctx, &merged)
	if err != nil {
		return nil, err
	}

	g.invalidate(ctx, existing.ProviderID, existing.DayOfWeek)
	if merged.DayOfWeek != existing.DayOfWeek {
		g.invalidate(ctx, existing.ProviderID, merged.DayOfWeek)
	}
	return updated, nil
}

// DeleteWindow removes the window. Existing appointments booked through it
// are left untouched.
func (g *Registry) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	existing, err := g.repo.GetWindowByID(ctx, id)
	if err != nil {
		return err
	}

	if err := g.repo.DeleteWindow(ctx, id); err != nil {
		return err
	}

	g.invalidate(ctx, existing.ProviderID, existing.DayOfWeek)
	return nil
}

// FindWindow returns the provider's window for the given weekday, serving
// from the cache when possible. Misses and cache errors read the repository.
func (g *Registry) FindWindow(ctx context.Context, providerID uuid.UUID, day time.Weekday) (*AvailabilityWindow, error) {
	if g.cache != nil {
		if payload, ok := g.cache.Get(ctx, providerID, day); ok {
			var w AvailabilityWindow
			if err := json.Unmarshal(payload, &w); err == nil {
				return &w, nil
			}
			log.Printf("window cache entry unreadable for provider=%s day=%d, purging", providerID, day)
			g.cache.Invalidate(ctx, providerID, day)
		}
	}

	w, err := g.repo.GetWindowForDay(ctx, providerID, day)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		if payload, err := json.Marshal(w); err == nil {
			g.cache.Set(ctx, providerID, day, payload)
		}
	}
	return w, nil
}

func (g *Registry) ListWindows(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error) {
	return g.repo.ListWindowsByProvider(ctx, providerID)
}

func (g *Registry) invalidate(ctx context.Context, providerID uuid.UUID, day time.Weekday) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, providerID, day)
	}
}

func validateWindowTimes(startTime, endTime string, dailyCapacity int) error {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: start time %s must be before end time %s", ErrValidation, startTime, endTime)
	}
	if dailyCapacity <= 0 {
		return fmt.Errorf("%w: daily capacity must be positive, got %d", ErrValidation, dailyCapacity)
	}
	return nil
}
