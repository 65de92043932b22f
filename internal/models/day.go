package models

import "time"

// DayFormat is the wire format for calendar dates.
const DayFormat = "2006-01-02"

// Day normalizes t to UTC midnight so date columns compare by calendar day
// regardless of the clock or zone the value arrived with.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
