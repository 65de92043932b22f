package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dropzonehq/reservation-service/internal/dto"
	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	bookingSvc  service.BookingService
	waitlistSvc service.WaitlistService
	jumpSvc     service.JumpService
}

func NewReservationHandler(bookingSvc service.BookingService, waitlistSvc service.WaitlistService, jumpSvc service.JumpService) *ReservationHandler {
	return &ReservationHandler{bookingSvc: bookingSvc, waitlistSvc: waitlistSvc, jumpSvc: jumpSvc}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	windows := api.Group("/booking-windows")
	windows.POST("", h.CreateBookingWindow)
	windows.POST("/:id/deposit", h.ConfirmDeposit)
	windows.PUT("/:id/dates", h.ModifyBookingDates)
	windows.GET("/:id", h.GetBookingWindow)
	windows.DELETE("/:id", h.CancelBookingWindow)

	api.GET("/availability", h.GetAvailability)

	api.POST("/waitlists/join", h.JoinWaitlist)
	api.GET("/waitlists/info", h.GetWaitlistInfo)
	api.DELETE("/waitlist-entries/:id", h.CancelWaitlistEntry)
	api.POST("/waitlists/:id/entries/:entryId/schedule", h.ScheduleFromWaitlistEntry)
	api.GET("/waitlists/:id/jump", h.GetWaitlistJump)

	api.DELETE("/scheduled-jumps/:id", h.CancelScheduledJump)
	api.POST("/scheduled-jumps/:id/complete", h.CompleteScheduledJump)

	api.GET("/admin/reservations", h.GetReservationData)
}

// httpError maps the core's typed errors onto HTTP status codes. Unknown
// errors stay 500 so a failed cascade never masquerades as a client fault.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrWindowNotFound),
		errors.Is(err, service.ErrWaitlistNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrJumpNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDateSpanUnavailable),
		errors.Is(err, service.ErrAlreadyOnWaitlist),
		errors.Is(err, service.ErrNotFrontOfQueue),
		errors.Is(err, service.ErrDayAlreadyConfirmed),
		errors.Is(err, service.ErrDayNotOccupied),
		errors.Is(err, service.ErrDepositNotPending),
		errors.Is(err, service.ErrWindowCanceled),
		errors.Is(err, service.ErrJumpNotActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDateOutsideWindow):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func (h *ReservationHandler) CreateBookingWindow(c echo.Context) error {
	var req dto.CreateBookingWindowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CreatedByID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "created_by_id is required")
	}
	if req.NumJumpers < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "num_jumpers must be at least 1")
	}

	start, err := models.ParseDay(req.WindowStartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid window_start_date")
	}
	idealized, err := models.ParseDay(req.IdealizedJumpDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid idealized_jump_date")
	}
	if req.WindowEndDate != "" {
		end, err := models.ParseDay(req.WindowEndDate)
		if err != nil || !end.Equal(start.AddDate(0, 0, models.WindowSpanDays-1)) {
			return echo.NewHTTPError(http.StatusBadRequest, "window_end_date must be window_start_date + 2 days")
		}
	}

	window, err := h.bookingSvc.CreateBookingWindow(c.Request().Context(), service.CreateWindowInput{
		NumJumpers:        req.NumJumpers,
		WindowStartDate:   start,
		IdealizedJumpDate: idealized,
		BookingZone:       req.BookingZone,
		CreatedBy:         req.CreatedByID,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingWindowResponse(window))
}

func (h *ReservationHandler) ConfirmDeposit(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	window, err := h.bookingSvc.ConfirmDeposit(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingWindowResponse(window))
}

func (h *ReservationHandler) CancelBookingWindow(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.bookingSvc.CancelBookingWindow(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AckResponse{Message: "booking window canceled"})
}

func (h *ReservationHandler) ModifyBookingDates(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ModifyBookingDatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	dates := make([]time.Time, 0, len(req.ConfirmedDates))
	for _, s := range req.ConfirmedDates {
		d, err := models.ParseDay(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid confirmed date: "+s)
		}
		dates = append(dates, d)
	}

	result, err := h.bookingSvc.ModifyBookingDates(c.Request().Context(), id, req.BookedBy, req.ConfirmedBy, dates)
	if err != nil {
		return httpError(err)
	}

	resp := dto.ModifyDatesResponse{
		Window:      dto.ToBookingWindowResponse(result.Window),
		ActiveJumps: make([]dto.ScheduledJumpResponse, len(result.ActiveJumps)),
	}
	for i := range result.ActiveJumps {
		resp.ActiveJumps[i] = dto.ToScheduledJumpResponse(&result.ActiveJumps[i])
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) GetBookingWindow(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	window, err := h.bookingSvc.GetBookingWindow(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingWindowResponse(window))
}

func (h *ReservationHandler) GetAvailability(c echo.Context) error {
	date, err := models.ParseDay(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing date")
	}

	avail, err := h.bookingSvc.GetAvailability(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{
		Date:              date.Format(models.DayFormat),
		Bookable:          avail.Bookable,
		PartOfWindow:      avail.PartOfWindow,
		ConfirmedJumpDate: avail.ConfirmedJumpDate,
		IdealizedDay:      avail.IdealizedDay,
	})
}

func (h *ReservationHandler) JoinWaitlist(c echo.Context) error {
	var req dto.JoinWaitlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	day, err := models.ParseDay(req.Day)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid day")
	}

	result, err := h.waitlistSvc.JoinWaitlist(c.Request().Context(), day, req.AssociatedBookingID, req.UserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.JoinWaitlistResponse{
		Waitlist:     dto.ToWaitlistResponse(result.Waitlist),
		UserPosition: result.UserPosition,
		Message:      result.Message,
	})
}

func (h *ReservationHandler) GetWaitlistInfo(c echo.Context) error {
	day, err := models.ParseDay(c.QueryParam("day"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing day")
	}
	userID := c.QueryParam("user_id")

	info, err := h.waitlistSvc.GetWaitlistInfo(c.Request().Context(), day, userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.WaitlistInfoResponse{
		Exists:           info.Exists,
		TotalCount:       info.TotalCount,
		UserPosition:     info.UserPosition,
		IsUserOnWaitlist: info.IsUserOnWaitlist,
		Entries:          info.Entries,
	})
}

func (h *ReservationHandler) CancelWaitlistEntry(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.waitlistSvc.CancelWaitlistEntry(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AckResponse{Message: "waitlist entry canceled"})
}

func (h *ReservationHandler) ScheduleFromWaitlistEntry(c echo.Context) error {
	waitlistID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entryID, err := parseID(c, "entryId")
	if err != nil {
		return err
	}

	var req dto.ScheduleFromWaitlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookerID == "" || req.ConfirmedBy == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booker_id and confirmed_by are required")
	}

	jump, err := h.jumpSvc.ScheduleFromWaitlistEntry(c.Request().Context(), waitlistID, entryID, req.BookerID, req.ConfirmedBy)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToScheduledJumpResponse(jump))
}

// GetWaitlistJump resolves the single active jump behind a confirmed
// waitlist. A corrupted state (zero or multiple active jumps) surfaces as a
// 500 rather than a guess.
func (h *ReservationHandler) GetWaitlistJump(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	jump, err := h.jumpSvc.ActiveJumpForWaitlist(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToScheduledJumpResponse(jump))
}

func (h *ReservationHandler) CancelScheduledJump(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.jumpSvc.CancelScheduledJump(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AckResponse{Message: "scheduled jump canceled"})
}

func (h *ReservationHandler) CompleteScheduledJump(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	jump, err := h.jumpSvc.CompleteScheduledJump(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToScheduledJumpResponse(jump))
}

func (h *ReservationHandler) GetReservationData(c echo.Context) error {
	var from, to *time.Time
	if s := c.QueryParam("from"); s != "" {
		d, err := models.ParseDay(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		from = &d
	}
	if s := c.QueryParam("to"); s != "" {
		d, err := models.ParseDay(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		to = &d
	}

	data, err := h.bookingSvc.GetReservationData(c.Request().Context(), from, to)
	if err != nil {
		return httpError(err)
	}

	resp := dto.ReservationDataResponse{
		Windows:   make([]dto.BookingWindowResponse, len(data.Windows)),
		Waitlists: make([]dto.WaitlistResponse, len(data.Waitlists)),
		Jumps:     make([]dto.ScheduledJumpResponse, len(data.Jumps)),
		Users:     make([]dto.UserResponse, len(data.Users)),
	}
	for i := range data.Windows {
		resp.Windows[i] = dto.ToBookingWindowResponse(&data.Windows[i])
	}
	for i := range data.Waitlists {
		resp.Waitlists[i] = dto.ToWaitlistResponse(&data.Waitlists[i])
	}
	for i := range data.Jumps {
		resp.Jumps[i] = dto.ToScheduledJumpResponse(&data.Jumps[i])
	}
	for i := range data.Users {
		resp.Users[i] = dto.ToUserResponse(&data.Users[i])
	}

	return c.JSON(http.StatusOK, resp)
}
