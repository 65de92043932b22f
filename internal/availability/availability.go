// Package availability answers date questions over an in-memory snapshot of
// booking windows and scheduled jumps. Pure functions, no store access; the
// caller decides what snapshot (and what locking) is appropriate.
package availability

import (
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
)

// IsDatePartOfWindow reports whether date falls inside the span of any
// non-canceled window, inclusive of both ends.
func IsDatePartOfWindow(date time.Time, windows []models.BookingWindow) bool {
	for i := range windows {
		if !windows[i].Active() {
			continue
		}
		if windows[i].Covers(date) {
			return true
		}
	}
	return false
}

// IsDateBookable reports whether a new 3-day window starting at date would
// stay clear of every existing window's occupied span. A day inside an
// existing span is occupied but not bookable as a start, which is exactly
// what makes it waitlist-eligible instead.
func IsDateBookable(date time.Time, windows []models.BookingWindow) bool {
	d := models.Day(date)
	for offset := 0; offset < models.WindowSpanDays; offset++ {
		if IsDatePartOfWindow(d.AddDate(0, 0, offset), windows) {
			return false
		}
	}
	return true
}

// IsDateConfirmedJumpDate reports whether date matches the jump date of any
// non-canceled scheduled jump.
func IsDateConfirmedJumpDate(date time.Time, jumps []models.ScheduledJump) bool {
	for i := range jumps {
		if !jumps[i].Active() {
			continue
		}
		if models.SameDay(jumps[i].JumpDate, date) {
			return true
		}
	}
	return false
}

// IsIdealizedDay reports whether date is some non-canceled window's preferred
// jump day.
func IsIdealizedDay(date time.Time, windows []models.BookingWindow) bool {
	for i := range windows {
		if !windows[i].Active() {
			continue
		}
		if models.SameDay(windows[i].IdealizedJumpDate, date) {
			return true
		}
	}
	return false
}
