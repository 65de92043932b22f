package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"github.com/dropzonehq/reservation-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

type JumpService interface {
	ScheduleFromWaitlistEntry(ctx context.Context, waitlistID, entryID uint, bookerID, confirmedBy string) (*models.ScheduledJump, error)
	ActiveJumpForWaitlist(ctx context.Context, waitlistID uint) (*models.ScheduledJump, error)
	CancelScheduledJump(ctx context.Context, jumpID uint) error
	CompleteScheduledJump(ctx context.Context, jumpID uint) (*models.ScheduledJump, error)
}

type jumpService struct {
	jumpRepo     repository.JumpRepository
	waitlistRepo repository.WaitlistRepository
	windowRepo   repository.WindowRepository
	publisher    *rabbitmq.Publisher
}

func NewJumpService(
	jumpRepo repository.JumpRepository,
	waitlistRepo repository.WaitlistRepository,
	windowRepo repository.WindowRepository,
	publisher *rabbitmq.Publisher,
) JumpService {
	return &jumpService{
		jumpRepo:     jumpRepo,
		waitlistRepo: waitlistRepo,
		windowRepo:   windowRepo,
		publisher:    publisher,
	}
}

// ScheduleFromWaitlistEntry promotes the front-of-queue entry into a
// confirmed jump. Only the entry at position 1 qualifies. The promoted entry
// leaves the active queue as CONFIRMED (not canceled), the remaining entries
// shift down to fill position 1, and the waitlist itself becomes CONFIRMED.
func (s *jumpService) ScheduleFromWaitlistEntry(ctx context.Context, waitlistID, entryID uint, bookerID, confirmedBy string) (*models.ScheduledJump, error) {
	var result *models.ScheduledJump

	err := s.jumpRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		waitlist, err := s.waitlistRepo.FindByIDForUpdate(ctx, tx, waitlistID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWaitlistNotFound
			}
			return err
		}
		if waitlist.Status == models.WaitlistClosed {
			return ErrWaitlistNotFound
		}

		entry, err := s.waitlistRepo.FindEntryByID(ctx, tx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.WaitlistID != waitlistID {
			return ErrEntryNotFound
		}
		if !entry.InActiveQueue() || entry.ActivePosition == nil || *entry.ActivePosition != 1 {
			return ErrNotFrontOfQueue
		}

		// A confirmed waitlist already holds its one jump; finding a live
		// position-1 entry alongside it means the state is corrupt.
		existing, err := s.jumpRepo.FindActiveByWaitlistID(ctx, tx, waitlistID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("waitlist %d already has %d active jump(s): %w", waitlistID, len(existing), ErrInvariantViolation)
		}

		window, err := s.windowRepo.FindByID(ctx, waitlist.AssociatedBookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		jump := &models.ScheduledJump{
			JumpDate:             waitlist.Day,
			BookingZone:          window.BookingZone,
			NumJumpers:           window.NumJumpers,
			SchedulingMethod:     models.MethodWaitlist,
			Status:               models.JumpScheduled,
			BookedBy:             bookerID,
			ConfirmedBy:          confirmedBy,
			AssociatedBookingID:  waitlist.AssociatedBookingID,
			AssociatedWaitlistID: &waitlistID,
		}
		if err := s.jumpRepo.Create(ctx, tx, jump); err != nil {
			return err
		}

		if err := s.waitlistRepo.UpdateEntryStatus(ctx, tx, entry.ID, models.EntryConfirmed, nil); err != nil {
			return err
		}
		if err := renumberActiveEntries(ctx, tx, s.waitlistRepo, waitlistID); err != nil {
			return err
		}
		if err := s.waitlistRepo.UpdateStatus(ctx, tx, waitlistID, models.WaitlistConfirmed); err != nil {
			return err
		}

		result = jump
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish("reservation.jump.scheduled", result)
	}

	return result, nil
}

// ActiveJumpForWaitlist resolves the single non-canceled jump of a confirmed
// waitlist. A confirmed waitlist with zero or multiple active jumps is corrupt
// state; the read path fails fast rather than guessing which jump is
// authoritative.
func (s *jumpService) ActiveJumpForWaitlist(ctx context.Context, waitlistID uint) (*models.ScheduledJump, error) {
	db := s.jumpRepo.GetDB()

	waitlist, err := s.waitlistRepo.FindByID(ctx, db, waitlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWaitlistNotFound
		}
		return nil, err
	}

	jumps, err := s.jumpRepo.FindActiveByWaitlistID(ctx, db, waitlistID)
	if err != nil {
		return nil, err
	}

	if waitlist.Status == models.WaitlistConfirmed && len(jumps) != 1 {
		return nil, fmt.Errorf("confirmed waitlist %d has %d active jump(s): %w", waitlistID, len(jumps), ErrInvariantViolation)
	}

	switch len(jumps) {
	case 0:
		return nil, ErrJumpNotFound
	case 1:
		return &jumps[0], nil
	default:
		return nil, fmt.Errorf("waitlist %d has %d active jumps: %w", waitlistID, len(jumps), ErrInvariantViolation)
	}
}

// CancelScheduledJump is a leaf in the cancellation graph: it flips the
// status and nothing else. The vacated slot is NOT handed to the next
// waitlist entry; re-promotion is always a fresh admin decision. Repeat
// cancellation is a no-op success.
func (s *jumpService) CancelScheduledJump(ctx context.Context, jumpID uint) error {
	canceled := false

	err := s.jumpRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jump, err := s.jumpRepo.FindByID(ctx, tx, jumpID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJumpNotFound
			}
			return err
		}
		if jump.Status == models.JumpCanceled {
			return nil
		}

		if err := s.jumpRepo.UpdateStatus(ctx, tx, jumpID, models.JumpCanceled); err != nil {
			return err
		}

		canceled = true
		return nil
	})
	if err != nil {
		return err
	}

	if canceled && s.publisher != nil {
		_ = s.publisher.Publish("reservation.jump.canceled", map[string]uint{"scheduled_jump_id": jumpID})
	}

	return nil
}

// CompleteScheduledJump marks a jump completed; once the owning window has no
// scheduled jumps left and at least one completed, the window completes too.
func (s *jumpService) CompleteScheduledJump(ctx context.Context, jumpID uint) (*models.ScheduledJump, error) {
	var result *models.ScheduledJump

	err := s.jumpRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jump, err := s.jumpRepo.FindByID(ctx, tx, jumpID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJumpNotFound
			}
			return err
		}
		if jump.Status == models.JumpCompleted {
			result = jump
			return nil
		}
		if jump.Status == models.JumpCanceled {
			return ErrJumpNotActive
		}

		window, err := s.windowRepo.FindByIDForUpdate(ctx, tx, jump.AssociatedBookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		if err := s.jumpRepo.UpdateStatus(ctx, tx, jumpID, models.JumpCompleted); err != nil {
			return err
		}
		jump.Status = models.JumpCompleted

		if window.Status == models.WindowScheduled {
			remaining, err := s.jumpRepo.FindActiveByBookingID(ctx, tx, window.ID)
			if err != nil {
				return err
			}
			allDone := true
			for i := range remaining {
				if remaining[i].Status != models.JumpCompleted {
					allDone = false
					break
				}
			}
			if allDone && len(remaining) > 0 {
				if err := s.windowRepo.UpdateStatus(ctx, tx, window.ID, models.WindowCompleted); err != nil {
					return err
				}
			}
		}

		result = jump
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
