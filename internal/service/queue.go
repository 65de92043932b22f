package service

import (
	"context"

	"github.com/dropzonehq/reservation-service/internal/models"
	"github.com/dropzonehq/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// NextPosition computes the position a new entry takes: one past the highest
// active position, or 1 on an empty queue.
func NextPosition(entries []models.WaitlistEntry) int {
	maxPos := 0
	for i := range entries {
		if p := entries[i].ActivePosition; p != nil && *p > maxPos {
			maxPos = *p
		}
	}
	return maxPos + 1
}

// RenumberedPositions maps entry ID to the position it should hold so that
// active positions are exactly 1..N. Entries must be in original join order;
// positions are assigned from that order, never from the (possibly stale)
// stored active_position.
func RenumberedPositions(entries []models.WaitlistEntry) map[uint]int {
	positions := make(map[uint]int, len(entries))
	for i := range entries {
		positions[entries[i].ID] = i + 1
	}
	return positions
}

// renumberActiveEntries rewrites active positions to exactly 1..N in join
// order. Shared by entry cancellation and promotion; must run with the
// waitlist row locked.
func renumberActiveEntries(ctx context.Context, tx *gorm.DB, repo repository.WaitlistRepository, waitlistID uint) error {
	entries, err := repo.FindActiveEntries(ctx, tx, waitlistID)
	if err != nil {
		return err
	}

	positions := RenumberedPositions(entries)
	for i := range entries {
		want := positions[entries[i].ID]
		if p := entries[i].ActivePosition; p != nil && *p == want {
			continue
		}
		pos := want
		if err := repo.UpdateEntryPosition(ctx, tx, entries[i].ID, &pos, pos); err != nil {
			return err
		}
	}
	return nil
}
