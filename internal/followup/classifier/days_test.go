// internal/followup/classifier/days_test.go
package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{name: "same instant", from: base, to: base, want: 0},
		{name: "same day different time", from: base.Add(-8 * time.Hour), to: base, want: 0},
		{name: "one minute across midnight", from: time.Date(2024, 5, 19, 23, 59, 0, 0, time.UTC), to: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), want: 1},
		{name: "whole week", from: base.AddDate(0, 0, -7), to: base, want: 7},
		{name: "future date is negative", from: base.AddDate(0, 0, 3), to: base, want: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-03-10 is a 23 hour day in New York
	from := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	to := time.Date(2024, 3, 11, 12, 0, 0, 0, loc)

	assert.Equal(t, 2, DaysBetween(from, to))
}

func TestDaysBetween_UsesLocationOfTo(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2024-05-19 20:00 UTC is already 2024-05-20 06:00 at UTC+10
	from := time.Date(2024, 5, 19, 20, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 20, 18, 0, 0, 0, loc)

	assert.Equal(t, 0, DaysBetween(from, to))
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysSince(now.Add(-23*time.Hour), now))
	assert.Equal(t, 1, DaysSince(now.Add(-24*time.Hour), now))
	assert.Equal(t, 2, DaysSince(now.Add(-71*time.Hour), now))
	assert.Equal(t, -1, DaysSince(now.Add(time.Hour), now))
}

func TestDaysUntilCeil(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{name: "due later today", due: now.Add(3 * time.Hour), want: 1},
		{name: "due exactly now", due: now, want: 0},
		{name: "overdue by hours", due: now.Add(-5 * time.Hour), want: 0},
		{name: "overdue by a full day", due: now.Add(-24 * time.Hour), want: -1},
		{name: "overdue by a day and a bit", due: now.Add(-25 * time.Hour), want: -1},
		{name: "overdue by two days", due: now.Add(-49 * time.Hour), want: -2},
		{name: "due in a day and a bit", due: now.Add(25 * time.Hour), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilCeil(tt.due, now))
		})
	}
}

func TestAddCalendarDays(t *testing.T) {
	now := time.Date(2024, 2, 28, 17, 45, 0, 0, time.UTC)
	next := AddCalendarDays(now, 1)
	assert.Equal(t, time.Date(2024, 2, 29, 17, 45, 0, 0, time.UTC), next)
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: time.Hour, want: "Today"},
		{ago: 30 * time.Hour, want: "Yesterday"},
		{ago: 3 * 24 * time.Hour, want: "3 days ago"},
		{ago: 8 * 24 * time.Hour, want: "1 week ago"},
		{ago: 15 * 24 * time.Hour, want: "2 weeks ago"},
		{ago: 45 * 24 * time.Hour, want: "Apr 5, 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelative(now.Add(-tt.ago), now))
		})
	}

	require.Equal(t, "May 22, 2024", FormatRelative(now.Add(48*time.Hour), now))
}
