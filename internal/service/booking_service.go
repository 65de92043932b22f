package service

import (
	"context"
	"errors"
	"time"

	"github.com/dropzonehq/reservation-service/internal/availability"
	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"github.com/dropzonehq/reservation-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

type CreateWindowInput struct {
	NumJumpers        int
	WindowStartDate   time.Time
	IdealizedJumpDate time.Time
	BookingZone       string
	CreatedBy         string
}

type ModifyDatesResult struct {
	Window      *models.BookingWindow
	ActiveJumps []models.ScheduledJump
}

type DayAvailability struct {
	Bookable          bool
	PartOfWindow      bool
	ConfirmedJumpDate bool
	IdealizedDay      bool
}

type ReservationData struct {
	Windows   []models.BookingWindow
	Waitlists []models.Waitlist
	Jumps     []models.ScheduledJump
	Users     []models.User
}

type BookingService interface {
	CreateBookingWindow(ctx context.Context, input CreateWindowInput) (*models.BookingWindow, error)
	ConfirmDeposit(ctx context.Context, windowID uint) (*models.BookingWindow, error)
	CancelBookingWindow(ctx context.Context, windowID uint) error
	ModifyBookingDates(ctx context.Context, bookingID uint, bookedBy, confirmedBy string, confirmedDates []time.Time) (*ModifyDatesResult, error)
	GetBookingWindow(ctx context.Context, id uint) (*models.BookingWindow, error)
	GetAvailability(ctx context.Context, date time.Time) (*DayAvailability, error)
	GetReservationData(ctx context.Context, from, to *time.Time) (*ReservationData, error)
}

type bookingService struct {
	windowRepo   repository.WindowRepository
	jumpRepo     repository.JumpRepository
	waitlistRepo repository.WaitlistRepository
	userRepo     repository.UserRepository
	cascade      *CascadeHandler
	publisher    *rabbitmq.Publisher
}

func NewBookingService(
	windowRepo repository.WindowRepository,
	jumpRepo repository.JumpRepository,
	waitlistRepo repository.WaitlistRepository,
	userRepo repository.UserRepository,
	cascade *CascadeHandler,
	publisher *rabbitmq.Publisher,
) BookingService {
	return &bookingService{
		windowRepo:   windowRepo,
		jumpRepo:     jumpRepo,
		waitlistRepo: waitlistRepo,
		userRepo:     userRepo,
		cascade:      cascade,
		publisher:    publisher,
	}
}

func (s *bookingService) CreateBookingWindow(ctx context.Context, input CreateWindowInput) (*models.BookingWindow, error) {
	start := models.Day(input.WindowStartDate)
	end := start.AddDate(0, 0, models.WindowSpanDays-1)
	idealized := models.Day(input.IdealizedJumpDate)

	if idealized.Before(start) || idealized.After(end) {
		return nil, ErrDateOutsideWindow
	}

	var result *models.BookingWindow

	err := s.windowRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize admission on an advisory lock. Locking the active rows is
		// not enough: with an empty or non-overlapping active set there is no
		// row to lock and a racing insert stays invisible until both commit.
		if err := s.windowRepo.AcquireAdmissionLock(ctx, tx); err != nil {
			return err
		}

		// Lock the active window set: serializes the span check against
		// concurrent status changes on existing windows
		windows, err := s.windowRepo.FindActiveForUpdate(ctx, tx)
		if err != nil {
			return err
		}

		if !availability.IsDateBookable(start, windows) {
			return ErrDateSpanUnavailable
		}

		window := &models.BookingWindow{
			BookedBy:          input.CreatedBy,
			WindowStartDate:   start,
			WindowEndDate:     end,
			IdealizedJumpDate: idealized,
			NumJumpers:        input.NumJumpers,
			BookingZone:       input.BookingZone,
			Status:            models.WindowPendingDeposit,
		}
		if err := s.windowRepo.Create(ctx, tx, window); err != nil {
			return err
		}

		result = window
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("reservation.window.created", result)
	}

	return result, nil
}

func (s *bookingService) ConfirmDeposit(ctx context.Context, windowID uint) (*models.BookingWindow, error) {
	var result *models.BookingWindow

	err := s.windowRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		window, err := s.windowRepo.FindByIDForUpdate(ctx, tx, windowID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		if window.Status != models.WindowPendingDeposit {
			return ErrDepositNotPending
		}

		if err := s.windowRepo.UpdateStatus(ctx, tx, windowID, models.WindowUnscheduled); err != nil {
			return err
		}

		window.Status = models.WindowUnscheduled
		result = window
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CancelBookingWindow cancels the window and cascades to its jumps and
// waitlists. Canceling an already-canceled window is a no-op success.
func (s *bookingService) CancelBookingWindow(ctx context.Context, windowID uint) error {
	canceled := false

	err := s.windowRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		window, err := s.windowRepo.FindByIDForUpdate(ctx, tx, windowID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		if window.Status == models.WindowCanceled {
			return nil
		}

		if err := s.windowRepo.UpdateStatus(ctx, tx, windowID, models.WindowCanceled); err != nil {
			return err
		}

		if err := s.cascade.CancelWindowDependents(ctx, tx, windowID); err != nil {
			return err
		}

		canceled = true
		return nil
	})
	if err != nil {
		return err
	}

	if canceled && s.publisher != nil {
		_ = s.publisher.Publish("reservation.window.canceled", map[string]uint{"booking_window_id": windowID})
	}

	return nil
}

// ModifyBookingDates reconciles the window's confirmed jump dates against the
// supplied target set in one call: dates without an active booking-window
// jump gain one, active jumps whose date dropped out of the set are canceled.
func (s *bookingService) ModifyBookingDates(ctx context.Context, bookingID uint, bookedBy, confirmedBy string, confirmedDates []time.Time) (*ModifyDatesResult, error) {
	var result *ModifyDatesResult

	err := s.windowRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		window, err := s.windowRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}
		if window.Status == models.WindowCanceled {
			return ErrWindowCanceled
		}
		// Dates can only be confirmed once the deposit has cleared; the
		// window must never jump from PENDING_DEPOSIT straight to SCHEDULED.
		if window.Status == models.WindowPendingDeposit {
			return ErrDepositNotPending
		}

		target := make(map[time.Time]bool, len(confirmedDates))
		for _, d := range confirmedDates {
			day := models.Day(d)
			if !window.Covers(day) {
				return ErrDateOutsideWindow
			}
			target[day] = true
		}

		jumps, err := s.jumpRepo.FindActiveByBookingID(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		existing := make(map[time.Time]bool)
		for i := range jumps {
			if jumps[i].SchedulingMethod != models.MethodBookingWindow {
				continue
			}
			day := models.Day(jumps[i].JumpDate)
			if !target[day] {
				if err := s.jumpRepo.UpdateStatus(ctx, tx, jumps[i].ID, models.JumpCanceled); err != nil {
					return err
				}
				continue
			}
			existing[day] = true
		}

		for day := range target {
			if existing[day] {
				continue
			}
			jump := &models.ScheduledJump{
				JumpDate:            day,
				BookingZone:         window.BookingZone,
				NumJumpers:          window.NumJumpers,
				SchedulingMethod:    models.MethodBookingWindow,
				Status:              models.JumpScheduled,
				BookedBy:            bookedBy,
				ConfirmedBy:         confirmedBy,
				AssociatedBookingID: window.ID,
			}
			if err := s.jumpRepo.Create(ctx, tx, jump); err != nil {
				return err
			}
		}

		active, err := s.jumpRepo.FindActiveByBookingID(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		// At least one active jump moves an UNSCHEDULED window to SCHEDULED;
		// losing the last one drops it back. COMPLETED is never touched here.
		switch {
		case len(active) > 0 && window.Status == models.WindowUnscheduled:
			if err := s.windowRepo.UpdateStatus(ctx, tx, window.ID, models.WindowScheduled); err != nil {
				return err
			}
			window.Status = models.WindowScheduled
		case len(active) == 0 && window.Status == models.WindowScheduled:
			if err := s.windowRepo.UpdateStatus(ctx, tx, window.ID, models.WindowUnscheduled); err != nil {
				return err
			}
			window.Status = models.WindowUnscheduled
		}

		result = &ModifyDatesResult{Window: window, ActiveJumps: active}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("reservation.window.dates_modified", result.Window)
	}

	return result, nil
}

func (s *bookingService) GetBookingWindow(ctx context.Context, id uint) (*models.BookingWindow, error) {
	window, err := s.windowRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}
	return window, nil
}

// GetAvailability evaluates the four calculator predicates for a date over
// the current active snapshot. Read-only; the write paths re-check under lock.
func (s *bookingService) GetAvailability(ctx context.Context, date time.Time) (*DayAvailability, error) {
	db := s.windowRepo.GetDB()

	windows, err := s.windowRepo.FindActive(ctx, db)
	if err != nil {
		return nil, err
	}
	jumps, err := s.jumpRepo.FindActive(ctx, db)
	if err != nil {
		return nil, err
	}

	day := models.Day(date)
	return &DayAvailability{
		Bookable:          availability.IsDateBookable(day, windows),
		PartOfWindow:      availability.IsDatePartOfWindow(day, windows),
		ConfirmedJumpDate: availability.IsDateConfirmedJumpDate(day, jumps),
		IdealizedDay:      availability.IsIdealizedDay(day, windows),
	}, nil
}

// GetReservationData is the admin projection: windows (optionally filtered to
// a date range), all waitlists with their entries, active jumps, and the
// directory records for every referenced user.
func (s *bookingService) GetReservationData(ctx context.Context, from, to *time.Time) (*ReservationData, error) {
	windows, err := s.windowRepo.FindInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	waitlists, err := s.waitlistRepo.FindAllWithEntries(ctx)
	if err != nil {
		return nil, err
	}

	jumps, err := s.jumpRepo.FindActive(ctx, s.jumpRepo.GetDB())
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool)
	for i := range windows {
		ids[windows[i].BookedBy] = true
	}
	for i := range waitlists {
		for j := range waitlists[i].Entries {
			ids[waitlists[i].Entries[j].WaitlistedUserID] = true
		}
	}
	for i := range jumps {
		ids[jumps[i].BookedBy] = true
		ids[jumps[i].ConfirmedBy] = true
	}

	userIDs := make([]string, 0, len(ids))
	for id := range ids {
		if id != "" {
			userIDs = append(userIDs, id)
		}
	}

	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	return &ReservationData{
		Windows:   windows,
		Waitlists: waitlists,
		Jumps:     jumps,
		Users:     users,
	}, nil
}
