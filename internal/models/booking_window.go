package models

import "time"

type WindowStatus string

const (
	WindowPendingDeposit WindowStatus = "pending_deposit"
	WindowUnscheduled    WindowStatus = "unscheduled"
	WindowScheduled      WindowStatus = "scheduled"
	WindowCompleted      WindowStatus = "completed"
	WindowCanceled       WindowStatus = "canceled"
)

// WindowSpanDays is the fixed length of a booking window: the start day plus
// the two days after it.
const WindowSpanDays = 3

// BookingWindow is an exclusive 3-consecutive-day reservation. The customer
// may jump on any subset of the span's days; each confirmed day becomes a
// ScheduledJump.
type BookingWindow struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	BookedBy          string       `gorm:"not null;index" json:"booked_by"`
	WindowStartDate   time.Time    `gorm:"type:date;not null;index" json:"window_start_date"`
	WindowEndDate     time.Time    `gorm:"type:date;not null" json:"window_end_date"`
	IdealizedJumpDate time.Time    `gorm:"type:date;not null" json:"idealized_jump_date"`
	NumJumpers        int          `gorm:"not null" json:"num_jumpers"`
	BookingZone       string       `gorm:"type:varchar(50);not null" json:"booking_zone"`
	Status            WindowStatus `gorm:"type:varchar(20);not null;default:'pending_deposit'" json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Active reports whether the window still occupies its date span.
func (w *BookingWindow) Active() bool {
	return w.Status != WindowCanceled
}

// Covers reports whether day falls inside the window's span, inclusive of
// both ends.
func (w *BookingWindow) Covers(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(w.WindowStartDate)) && !d.After(Day(w.WindowEndDate))
}
