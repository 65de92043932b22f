package service

import (
	"context"
	"fmt"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// CascadeHandler is the single place allowed to touch more than one entity
// type per cancellation. Every cancellation path goes through it so the same
// rules apply whether a customer or an admin triggered the cancel.
type CascadeHandler struct {
	jumpRepo     repository.JumpRepository
	waitlistRepo repository.WaitlistRepository
}

func NewCascadeHandler(jumpRepo repository.JumpRepository, waitlistRepo repository.WaitlistRepository) *CascadeHandler {
	return &CascadeHandler{jumpRepo: jumpRepo, waitlistRepo: waitlistRepo}
}

// CancelWindowDependents cancels every non-canceled scheduled jump owned by
// the window and closes every waitlist that references it. Entries on closed
// waitlists are kept as historical records. Runs inside the caller's
// transaction; any failure aborts the whole cancellation.
func (h *CascadeHandler) CancelWindowDependents(ctx context.Context, tx *gorm.DB, windowID uint) error {
	jumps, err := h.jumpRepo.FindActiveByBookingID(ctx, tx, windowID)
	if err != nil {
		return fmt.Errorf("find active jumps for window %d: %w", windowID, err)
	}
	for i := range jumps {
		if err := h.jumpRepo.UpdateStatus(ctx, tx, jumps[i].ID, models.JumpCanceled); err != nil {
			return fmt.Errorf("cancel jump %d: %w", jumps[i].ID, err)
		}
	}

	waitlists, err := h.waitlistRepo.FindByBookingID(ctx, tx, windowID)
	if err != nil {
		return fmt.Errorf("find waitlists for window %d: %w", windowID, err)
	}
	for i := range waitlists {
		if waitlists[i].Status == models.WaitlistClosed {
			continue
		}
		if err := h.waitlistRepo.UpdateStatus(ctx, tx, waitlists[i].ID, models.WaitlistClosed); err != nil {
			return fmt.Errorf("close waitlist %d: %w", waitlists[i].ID, err)
		}
	}

	return nil
}
