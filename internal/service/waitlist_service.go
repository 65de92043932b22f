package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"gorm.io/gorm"
)

type JoinWaitlistResult struct {
	Waitlist     *models.Waitlist
	Entry        *models.WaitlistEntry
	UserPosition int
	Created      bool
	Message      string
}

type WaitlistInfoEntry struct {
	Position int       `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

// WaitlistInfo deliberately exposes only positions and join order, never the
// identities of other users on the queue.
type WaitlistInfo struct {
	Exists           bool
	TotalCount       int
	UserPosition     *int
	IsUserOnWaitlist bool
	Entries          []WaitlistInfoEntry
}

type WaitlistService interface {
	JoinWaitlist(ctx context.Context, day time.Time, associatedBookingID uint, userID string) (*JoinWaitlistResult, error)
	GetWaitlistInfo(ctx context.Context, day time.Time, userID string) (*WaitlistInfo, error)
	CancelWaitlistEntry(ctx context.Context, entryID uint) error
}

type waitlistService struct {
	waitlistRepo repository.WaitlistRepository
	windowRepo   repository.WindowRepository
	jumpRepo     repository.JumpRepository
}

func NewWaitlistService(
	waitlistRepo repository.WaitlistRepository,
	windowRepo repository.WindowRepository,
	jumpRepo repository.JumpRepository,
) WaitlistService {
	return &waitlistService{
		waitlistRepo: waitlistRepo,
		windowRepo:   windowRepo,
		jumpRepo:     jumpRepo,
	}
}

// JoinWaitlist locates or lazily creates the waitlist for day and appends the
// user at the back of the queue. The whole flow runs in one transaction with
// the waitlist row (or the occupying window, on first join) locked, so two
// concurrent joins cannot compute the same position. A failed join rolls
// back a lazily created waitlist instead of orphaning it.
func (s *waitlistService) JoinWaitlist(ctx context.Context, day time.Time, associatedBookingID uint, userID string) (*JoinWaitlistResult, error) {
	day = models.Day(day)
	var result *JoinWaitlistResult

	err := s.waitlistRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The occupying window must exist, be active, and actually cover the
		// requested day. Locking it serializes first-join races on the same day.
		window, err := s.windowRepo.FindByIDForUpdate(ctx, tx, associatedBookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWindowNotFound
			}
			return err
		}
		if !window.Active() {
			return ErrWindowNotFound
		}
		if !window.Covers(day) {
			return ErrDayNotOccupied
		}

		waitlist, err := s.waitlistRepo.FindOpenByDayForUpdate(ctx, tx, day)
		created := false
		switch {
		case err == nil:
			if waitlist.Status == models.WaitlistConfirmed {
				return ErrDayAlreadyConfirmed
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// A day that already carries a confirmed jump is spoken for; a
			// waitlist only makes sense while the day is merely window-occupied.
			jumps, err := s.jumpRepo.FindActive(ctx, tx)
			if err != nil {
				return err
			}
			for i := range jumps {
				if models.SameDay(jumps[i].JumpDate, day) {
					return ErrDayAlreadyConfirmed
				}
			}

			waitlist = &models.Waitlist{
				Day:                 day,
				AssociatedBookingID: window.ID,
				Status:              models.WaitlistOpened,
			}
			if err := s.waitlistRepo.Create(ctx, tx, waitlist); err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		_, err = s.waitlistRepo.FindActiveEntryByUser(ctx, tx, waitlist.ID, userID)
		if err == nil {
			return ErrAlreadyOnWaitlist
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		entries, err := s.waitlistRepo.FindActiveEntries(ctx, tx, waitlist.ID)
		if err != nil {
			return err
		}
		position := NextPosition(entries)

		entry := &models.WaitlistEntry{
			WaitlistID:       waitlist.ID,
			WaitlistedUserID: userID,
			ActivePosition:   &position,
			LatestPosition:   position,
			Status:           models.EntryOpen,
		}
		if err := s.waitlistRepo.CreateEntry(ctx, tx, entry); err != nil {
			return err
		}

		message := fmt.Sprintf("added to the existing waitlist for %s at position %d", day.Format(models.DayFormat), position)
		if created {
			message = fmt.Sprintf("waitlist created for %s; you are position %d", day.Format(models.DayFormat), position)
		}

		result = &JoinWaitlistResult{
			Waitlist:     waitlist,
			Entry:        entry,
			UserPosition: position,
			Created:      created,
			Message:      message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *waitlistService) GetWaitlistInfo(ctx context.Context, day time.Time, userID string) (*WaitlistInfo, error) {
	db := s.waitlistRepo.GetDB()

	waitlist, err := s.waitlistRepo.FindOpenByDay(ctx, db, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &WaitlistInfo{Exists: false}, nil
		}
		return nil, err
	}

	entries, err := s.waitlistRepo.FindActiveEntries(ctx, db, waitlist.ID)
	if err != nil {
		return nil, err
	}

	info := &WaitlistInfo{
		Exists:     true,
		TotalCount: len(entries),
		Entries:    make([]WaitlistInfoEntry, 0, len(entries)),
	}
	for i := range entries {
		pos := i + 1
		if p := entries[i].ActivePosition; p != nil {
			pos = *p
		}
		info.Entries = append(info.Entries, WaitlistInfoEntry{
			Position: pos,
			JoinedAt: entries[i].CreatedAt,
		})
		if entries[i].WaitlistedUserID == userID {
			userPos := pos
			info.UserPosition = &userPos
		}
	}

	// Enrollment also counts promoted (confirmed) entries, which no longer
	// hold a position.
	if _, err := s.waitlistRepo.FindActiveEntryByUser(ctx, db, waitlist.ID, userID); err == nil {
		info.IsUserOnWaitlist = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return info, nil
}

// CancelWaitlistEntry marks the entry canceled, clears its active position
// (keeping the latest position for audit), and renumbers the remaining queue
// so positions stay contiguous from 1 in original join order. The parent
// waitlist is left OPENED and re-joinable even when this was the last entry.
// Repeat cancellation is a no-op success.
func (s *waitlistService) CancelWaitlistEntry(ctx context.Context, entryID uint) error {
	return s.waitlistRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.waitlistRepo.FindEntryByID(ctx, tx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.Status == models.EntryCanceled {
			return nil
		}

		// Serialize against joins and other cancellations on this waitlist
		if _, err := s.waitlistRepo.FindByIDForUpdate(ctx, tx, entry.WaitlistID); err != nil {
			return err
		}

		if err := s.waitlistRepo.UpdateEntryStatus(ctx, tx, entry.ID, models.EntryCanceled, nil); err != nil {
			return err
		}

		return renumberActiveEntries(ctx, tx, s.waitlistRepo, entry.WaitlistID)
	})
}
