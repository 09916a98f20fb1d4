// Package timeslot provides the pure time arithmetic used by the booking
// engine: slot parsing, service end-time derivation and minutes-until
// computation with midnight wraparound.  All functions are side-effect free.
package timeslot

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-day format stored on reservations.
	DateLayout = "2006-01-02"
	// ClockLayout is the wall-clock slot format, restaurant-local.
	ClockLayout = "15:04"
	// MinutesPerDay is used to normalise deltas that cross midnight.
	MinutesPerDay = 24 * 60
)

// ParseDate validates a "2006-01-02" calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".  Values outside a
// single day are wrapped first.
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a wall-clock value forward, wrapping past midnight.
// "23:30" + 90 minutes yields "01:00".
func AddMinutes(clock string, minutes int) (string, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return FormatClock(m + minutes), nil
}

// MinutesUntil returns the forward distance in minutes from one wall-clock
// value to another.  Negative raw deltas are treated as crossing midnight,
// so MinutesUntil("23:50", "00:20") == 30.
func MinutesUntil(from, to string) (int, error) {
	f, err := ParseClock(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseClock(to)
	if err != nil {
		return 0, err
	}
	delta := t - f
	if delta < 0 {
		delta += MinutesPerDay
	}
	return delta, nil
}

// ClockOf extracts the "HH:MM" wall-clock component of a timestamp.
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// DateOf extracts the "2006-01-02" calendar-day component of a timestamp.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// InWindow reports whether now lies in [start, end), where all three are
// wall-clock values.  Windows that wrap past midnight (start > end) are
// handled: for start="23:00", end="01:00", both "23:30" and "00:30" are in.
func InWindow(start, end, now string) (bool, error) {
	s, err := ParseClock(start)
	if err != nil {
		return false, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return false, err
	}
	n, err := ParseClock(now)
	if err != nil {
		return false, err
	}
	if s <= e {
		return s <= n && n < e, nil
	}
	return n >= s || n < e, nil
}
