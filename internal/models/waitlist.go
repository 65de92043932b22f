package models

import "time"

type WaitlistStatus string

const (
	WaitlistOpened    WaitlistStatus = "opened"
	WaitlistConfirmed WaitlistStatus = "confirmed"
	WaitlistClosed    WaitlistStatus = "closed"
)

type EntryStatus string

const (
	EntryOpen      EntryStatus = "open"
	EntryConfirmed EntryStatus = "confirmed"
	EntryCanceled  EntryStatus = "canceled"
)

// Waitlist is the per-day FIFO queue for a day occupied by another customer's
// booking window. Created lazily on the first join attempt for that day;
// exactly one non-closed waitlist per day.
type Waitlist struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Day                 time.Time      `gorm:"type:date;not null;index" json:"day"`
	AssociatedBookingID uint           `gorm:"not null;index" json:"associated_booking_id"`
	Status              WaitlistStatus `gorm:"type:varchar(20);not null;default:'opened'" json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	Entries []WaitlistEntry `gorm:"foreignKey:WaitlistID" json:"entries,omitempty"`
}

// WaitlistEntry is one user's slot in a waitlist. ActivePosition is nil once
// the entry leaves the active queue (canceled or promoted); LatestPosition is
// the last position held, kept for audit.
type WaitlistEntry struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	WaitlistID       uint        `gorm:"not null;index" json:"waitlist_id"`
	WaitlistedUserID string      `gorm:"not null" json:"waitlisted_user_id"`
	ActivePosition   *int        `json:"active_position,omitempty"`
	LatestPosition   int         `gorm:"not null" json:"latest_position"`
	Status           EntryStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
}

// InActiveQueue reports whether the entry currently holds a queue position.
func (e *WaitlistEntry) InActiveQueue() bool {
	return e.Status == EntryOpen
}
