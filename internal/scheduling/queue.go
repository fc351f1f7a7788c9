package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// QueueAssigner computes the 1-based position of a new booking within a
// provider's day. It hands out the lowest queue number not held by a
// non-cancelled appointment, so cancellations and deletions leave holes that
// later bookings refill instead of renumbering anyone. The assigned number
// never exceeds active+1, which keeps it within the window's capacity
// whenever the capacity check passes.
//
// The read is only meaningful while the caller holds the day lock for the
// (provider, date) pair.
type QueueAssigner struct {
	repo Repository
}

func NewQueueAssigner(repo Repository) *QueueAssigner {
	return &QueueAssigner{repo: repo}
}

// NextQueueNumber returns the queue number a new booking would get and the
// current count of non-cancelled appointments for the day.
func (q *QueueAssigner) NextQueueNumber(ctx context.Context, providerID uuid.UUID, date time.Time, exclude *uuid.UUID) (next, active int, err error) {
	used, err := q.repo.ActiveQueueNumbersForDay(ctx, providerID, NormalizeDate(date), exclude)
	if err != nil {
		return 0, 0, err
	}
	return lowestFree(used), len(used), nil
}

func lowestFree(used []int) int {
	sorted := make([]int, len(used))
	copy(sorted, used)
	sort.Ints(sorted)

	next := 1
	for _, n := range sorted {
		if n == next {
			next++
		} else if n > next {
			break
		}
	}
	return next
}
