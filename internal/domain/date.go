package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time or timezone component, stored as the
// number of days since 2000-01-01. It serializes to a plain number, so date
// values survive JSON round-trips exactly and compare with ==.
type Date int32

// dateEpoch is day zero: 2000-01-01 UTC.
var dateEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateFromYMD builds a Date from a year, month, and day.
func DateFromYMD(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(t.Sub(dateEpoch) / (24 * time.Hour))
}

// ParseDate parses a date in ISO "2006-01-02" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateFromYMD(t.Year(), t.Month(), t.Day()), nil
}

// Today returns the current date in the local timezone.
func Today() Date {
	now := time.Now()
	return DateFromYMD(now.Year(), now.Month(), now.Day())
}

// Time converts the date to a time.Time at midnight UTC.
func (d Date) Time() time.Time {
	return dateEpoch.AddDate(0, 0, int(d))
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// Clamp returns the closest date to d that lies within [start, end].
func (d Date) Clamp(start, end Date) Date {
	if d < start {
		return start
	}
	if d > end {
		return end
	}
	return d
}
