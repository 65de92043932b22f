package dto

type CreateBookingWindowRequest struct {
	NumJumpers        int    `json:"num_jumpers"`
	WindowStartDate   string `json:"window_start_date"`
	WindowEndDate     string `json:"window_end_date,omitempty"`
	IdealizedJumpDate string `json:"idealized_jump_date"`
	CreatedByID       string `json:"created_by_id"`
	BookingZone       string `json:"booking_zone"`
}

type ModifyBookingDatesRequest struct {
	BookedBy       string   `json:"booked_by"`
	ConfirmedBy    string   `json:"confirmed_by"`
	ConfirmedDates []string `json:"confirmed_dates"`
}

type JoinWaitlistRequest struct {
	Day                 string `json:"day"`
	AssociatedBookingID uint   `json:"associated_booking_id"`
	UserID              string `json:"user_id"`
}

type ScheduleFromWaitlistRequest struct {
	BookerID    string `json:"booker_id"`
	ConfirmedBy string `json:"confirmed_by"`
}
