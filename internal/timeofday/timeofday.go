// Package timeofday parses and evaluates 24-hour "HH:MM" wall-clock times.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is returned for strings that are not a valid "HH:MM" time.
var ErrInvalid = errors.New("timeofday: invalid time of day")

// TimeOfDay is a minute-resolution wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse parses a 24-hour "HH:MM" string. Single-digit hours ("9:05") are
// accepted; minutes must have two digits.
func Parse(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return TimeOfDay{}, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalid, s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour %q", ErrInvalid, hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute %q", ErrInvalid, mm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: out of range: %q", ErrInvalid, s)
	}

	return TimeOfDay{Hour: h, Minute: m}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the canonical zero-padded "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CronSpec returns the 5-field cron expression firing daily at t.
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// On returns t on the calendar day of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Next returns the first occurrence of t in loc strictly after after.
func (t TimeOfDay) Next(after time.Time, loc *time.Location) time.Time {
	next := t.On(after, loc)
	if !next.After(after) {
		next = t.On(after.In(loc).AddDate(0, 0, 1), loc)
	}
	return next
}

// Canonical normalizes s to "HH:MM". Invalid input is returned unchanged
// together with the parse error.
func Canonical(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return s, err
	}
	return t.String(), nil
}
