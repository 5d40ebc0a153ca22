package check

import (
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

// Day is a calendar date in a fixed location.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

// SolvedOn reports whether any submission is for slug and falls on day
// when interpreted in loc.
func SolvedOn(subs []potd.Submission, slug string, day Day, loc *time.Location) bool {
	for _, s := range subs {
		if s.Slug == slug && DayOf(s.Timestamp, loc) == day {
			return true
		}
	}
	return false
}
