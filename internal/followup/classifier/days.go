// internal/followup/classifier/days.go
package classifier

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// midnight truncates t to 00:00 in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from from to to, both truncated to midnight
// in to's location. Negative when from is after to. DST days count as one.
func DaysBetween(from, to time.Time) int {
	loc := to.Location()
	diff := midnight(to, loc).Sub(midnight(from, loc))
	return int(math.Round(diff.Hours() / 24))
}

// DaysSince is the number of whole 24h periods elapsed from t to now, floored.
func DaysSince(t, now time.Time) int {
	return int(math.Floor(float64(now.Sub(t)) / float64(day)))
}

// DaysUntilCeil is ceil((due - now) / 24h). Overdue by less than a full day
// yields 0; anything still ahead yields at least 1.
func DaysUntilCeil(due, now time.Time) int {
	v := math.Ceil(float64(due.Sub(now)) / float64(day))
	if v == 0 {
		// normalise -0
		return 0
	}
	return int(v)
}

// AddCalendarDays moves t by n calendar days keeping its wall-clock time.
func AddCalendarDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// FormatRelative renders t relative to now: "Today", "Yesterday", "N days ago",
// "N week(s) ago" up to 30 days, otherwise the date.
func FormatRelative(t, now time.Time) string {
	days := DaysSince(t, now)
	switch {
	case days < 0:
		return t.In(now.Location()).Format("Jan 2, 2006")
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		weeks := days / 7
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		return t.In(now.Location()).Format("Jan 2, 2006")
	}
}
