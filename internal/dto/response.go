package dto

import (
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/service"
)

type BookingWindowResponse struct {
	ID                uint                `json:"id"`
	BookedBy          string              `json:"booked_by"`
	WindowStartDate   string              `json:"window_start_date"`
	WindowEndDate     string              `json:"window_end_date"`
	IdealizedJumpDate string              `json:"idealized_jump_date"`
	NumJumpers        int                 `json:"num_jumpers"`
	BookingZone       string              `json:"booking_zone"`
	Status            models.WindowStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
}

type ScheduledJumpResponse struct {
	ID                   uint                    `json:"id"`
	JumpDate             string                  `json:"jump_date"`
	BookingZone          string                  `json:"booking_zone"`
	NumJumpers           int                     `json:"num_jumpers"`
	SchedulingMethod     models.SchedulingMethod `json:"scheduling_method"`
	Status               models.JumpStatus       `json:"status"`
	BookedBy             string                  `json:"booked_by"`
	ConfirmedBy          string                  `json:"confirmed_by"`
	AssociatedBookingID  uint                    `json:"associated_booking_id"`
	AssociatedWaitlistID *uint                   `json:"associated_waitlist_id,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

type WaitlistEntryResponse struct {
	ID             uint               `json:"id"`
	WaitlistID     uint               `json:"waitlist_id"`
	UserID         string             `json:"waitlisted_user_id"`
	ActivePosition *int               `json:"active_position,omitempty"`
	LatestPosition int                `json:"latest_position"`
	Status         models.EntryStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

type WaitlistResponse struct {
	ID                  uint                    `json:"id"`
	Day                 string                  `json:"day"`
	AssociatedBookingID uint                    `json:"associated_booking_id"`
	Status              models.WaitlistStatus   `json:"status"`
	Entries             []WaitlistEntryResponse `json:"entries,omitempty"`
}

type JoinWaitlistResponse struct {
	Waitlist     WaitlistResponse `json:"waitlist"`
	UserPosition int              `json:"user_position"`
	Message      string           `json:"message"`
}

type WaitlistInfoResponse struct {
	Exists           bool                        `json:"exists"`
	TotalCount       int                         `json:"total_count"`
	UserPosition     *int                        `json:"user_position,omitempty"`
	IsUserOnWaitlist bool                        `json:"is_user_on_waitlist"`
	Entries          []service.WaitlistInfoEntry `json:"entries"`
}

type AvailabilityResponse struct {
	Date              string `json:"date"`
	Bookable          bool   `json:"bookable"`
	PartOfWindow      bool   `json:"part_of_window"`
	ConfirmedJumpDate bool   `json:"confirmed_jump_date"`
	IdealizedDay      bool   `json:"idealized_day"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ReservationDataResponse struct {
	Windows   []BookingWindowResponse `json:"windows"`
	Waitlists []WaitlistResponse      `json:"waitlists"`
	Jumps     []ScheduledJumpResponse `json:"jumps"`
	Users     []UserResponse          `json:"users"`
}

type ModifyDatesResponse struct {
	Window      BookingWindowResponse   `json:"window"`
	ActiveJumps []ScheduledJumpResponse `json:"active_jumps"`
}

type AckResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingWindowResponse(w *models.BookingWindow) BookingWindowResponse {
	return BookingWindowResponse{
		ID:                w.ID,
		BookedBy:          w.BookedBy,
		WindowStartDate:   w.WindowStartDate.Format(models.DayFormat),
		WindowEndDate:     w.WindowEndDate.Format(models.DayFormat),
		IdealizedJumpDate: w.IdealizedJumpDate.Format(models.DayFormat),
		NumJumpers:        w.NumJumpers,
		BookingZone:       w.BookingZone,
		Status:            w.Status,
		CreatedAt:         w.CreatedAt,
	}
}

func ToScheduledJumpResponse(j *models.ScheduledJump) ScheduledJumpResponse {
	return ScheduledJumpResponse{
		ID:                   j.ID,
		JumpDate:             j.JumpDate.Format(models.DayFormat),
		BookingZone:          j.BookingZone,
		NumJumpers:           j.NumJumpers,
		SchedulingMethod:     j.SchedulingMethod,
		Status:               j.Status,
		BookedBy:             j.BookedBy,
		ConfirmedBy:          j.ConfirmedBy,
		AssociatedBookingID:  j.AssociatedBookingID,
		AssociatedWaitlistID: j.AssociatedWaitlistID,
		CreatedAt:            j.CreatedAt,
	}
}

func ToWaitlistEntryResponse(e *models.WaitlistEntry) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:             e.ID,
		WaitlistID:     e.WaitlistID,
		UserID:         e.WaitlistedUserID,
		ActivePosition: e.ActivePosition,
		LatestPosition: e.LatestPosition,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
	}
}

func ToWaitlistResponse(w *models.Waitlist) WaitlistResponse {
	resp := WaitlistResponse{
		ID:                  w.ID,
		Day:                 w.Day.Format(models.DayFormat),
		AssociatedBookingID: w.AssociatedBookingID,
		Status:              w.Status,
	}
	for i := range w.Entries {
		resp.Entries = append(resp.Entries, ToWaitlistEntryResponse(&w.Entries[i]))
	}
	return resp
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}
