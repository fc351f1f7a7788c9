package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConflictDetector answers whether a patient already holds a non-cancelled
// booking with a provider on a date. Pure query, no side effects.
type ConflictDetector struct {
	repo Repository
}

func NewConflictDetector(repo Repository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// HasConflict reports an existing non-cancelled appointment for the exact
// (provider, patient, date) triple. exclude leaves one appointment out of
// the check, for the reschedule path.
func (d *ConflictDetector) HasConflict(ctx context.Context, providerID, patientID uuid.UUID, date time.Time, exclude *uuid.UUID) (bool, error) {
	return d.repo.HasActiveBooking(ctx, providerID, patientID, NormalizeDate(date), exclude)
}
