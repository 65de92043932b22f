package models

import "time"

type SchedulingMethod string

const (
	MethodBookingWindow SchedulingMethod = "booking_window"
	MethodWaitlist      SchedulingMethod = "waitlist"
)

type JumpStatus string

const (
	JumpScheduled JumpStatus = "scheduled"
	JumpCompleted JumpStatus = "completed"
	JumpCanceled  JumpStatus = "canceled"
)

// ScheduledJump is a confirmed, date-specific jump, created either from a
// booking-window day or by promoting the front of a waitlist.
type ScheduledJump struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	JumpDate             time.Time        `gorm:"type:date;not null;index" json:"jump_date"`
	BookingZone          string           `gorm:"type:varchar(50);not null" json:"booking_zone"`
	NumJumpers           int              `gorm:"not null" json:"num_jumpers"`
	SchedulingMethod     SchedulingMethod `gorm:"type:varchar(20);not null" json:"scheduling_method"`
	Status               JumpStatus       `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	BookedBy             string           `gorm:"not null" json:"booked_by"`
	ConfirmedBy          string           `gorm:"not null" json:"confirmed_by"`
	AssociatedBookingID  uint             `gorm:"not null;index" json:"associated_booking_id"`
	AssociatedWaitlistID *uint            `gorm:"index" json:"associated_waitlist_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Active reports whether the jump still holds its date.
func (j *ScheduledJump) Active() bool {
	return j.Status != JumpCanceled
}
