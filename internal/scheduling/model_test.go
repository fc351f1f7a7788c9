package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	for name, want := range map[string]time.Weekday{
		"sunday":    time.Sunday,
		"Monday":    time.Monday,
		"TUESDAY":   time.Tuesday,
		" friday ":  time.Friday,
		"Saturday":  time.Saturday,
		"wednesday": time.Wednesday,
		"Thursday":  time.Thursday,
	} {
		got, err := ParseWeekday(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, bad := range []string{"", "mon", "Montag", "8", "someday"} {
		_, err := ParseWeekday(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, got)

	got, err = ParseTimeOfDay("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, got)

	for _, bad := range []string{"", "9:00am", "24:00", "29:59", "12:60", "noon", "12", "12:3"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestNormalizeDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 in New York on March 9 is already March 10 in UTC.
	in := time.Date(2026, 3, 9, 23, 30, 0, 0, loc)
	got := NormalizeDate(in)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)

	// Midnight UTC is a fixed point.
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, NormalizeDate(midnight).Equal(midnight))

	// Intra-day precision is discarded.
	noon := time.Date(2026, 3, 10, 12, 45, 3, 999, time.UTC)
	assert.True(t, NormalizeDate(noon).Equal(midnight))
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]AppointmentStatus{
		"scheduled":   StatusScheduled,
		"IN_PROGRESS": StatusInProgress,
		" completed ": StatusCompleted,
		"Cancelled":   StatusCancelled,
	} {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, bad := range []string{"", "done", "canceled", "pending"} {
		_, err := ParseStatus(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestLowestFree(t *testing.T) {
	cases := []struct {
		used []int
		want int
	}{
		{nil, 1},
		{[]int{1}, 2},
		{[]int{2}, 1},
		{[]int{1, 2, 3}, 4},
		{[]int{1, 3, 4}, 2},
		{[]int{3, 1, 2, 5}, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, lowestFree(tc.used), "used=%v", tc.used)
	}
}
