package repository

import (
	"context"
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitlistRepository interface {
	Create(ctx context.Context, tx *gorm.DB, waitlist *models.Waitlist) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Waitlist, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Waitlist, error)
	FindOpenByDay(ctx context.Context, tx *gorm.DB, day time.Time) (*models.Waitlist, error)
	FindOpenByDayForUpdate(ctx context.Context, tx *gorm.DB, day time.Time) (*models.Waitlist, error)
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.Waitlist, error)
	FindAllWithEntries(ctx context.Context) ([]models.Waitlist, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, waitlistID uint, status models.WaitlistStatus) error

	CreateEntry(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error
	FindEntryByID(ctx context.Context, tx *gorm.DB, entryID uint) (*models.WaitlistEntry, error)
	FindActiveEntries(ctx context.Context, tx *gorm.DB, waitlistID uint) ([]models.WaitlistEntry, error)
	FindActiveEntryByUser(ctx context.Context, tx *gorm.DB, waitlistID uint, userID string) (*models.WaitlistEntry, error)
	UpdateEntryPosition(ctx context.Context, tx *gorm.DB, entryID uint, active *int, latest int) error
	UpdateEntryStatus(ctx context.Context, tx *gorm.DB, entryID uint, status models.EntryStatus, active *int) error

	GetDB() *gorm.DB
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *waitlistRepository) Create(ctx context.Context, tx *gorm.DB, waitlist *models.Waitlist) error {
	return tx.WithContext(ctx).Create(waitlist).Error
}

func (r *waitlistRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	if err := tx.WithContext(ctx).First(&waitlist, id).Error; err != nil {
		return nil, err
	}
	return &waitlist, nil
}

// FindByIDForUpdate locks the waitlist row. Every position-mutating operation
// (join, entry cancel, promotion) takes this lock first so position reads and
// writes are serialized per waitlist.
func (r *waitlistRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&waitlist, id).Error; err != nil {
		return nil, err
	}
	return &waitlist, nil
}

func (r *waitlistRepository) FindOpenByDay(ctx context.Context, tx *gorm.DB, day time.Time) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	err := tx.WithContext(ctx).
		Where("day = ? AND status <> ?", models.Day(day), models.WaitlistClosed).
		First(&waitlist).Error
	if err != nil {
		return nil, err
	}
	return &waitlist, nil
}

func (r *waitlistRepository) FindOpenByDayForUpdate(ctx context.Context, tx *gorm.DB, day time.Time) (*models.Waitlist, error) {
	var waitlist models.Waitlist
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("day = ? AND status <> ?", models.Day(day), models.WaitlistClosed).
		First(&waitlist).Error
	if err != nil {
		return nil, err
	}
	return &waitlist, nil
}

func (r *waitlistRepository) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.Waitlist, error) {
	var waitlists []models.Waitlist
	err := tx.WithContext(ctx).
		Where("associated_booking_id = ?", bookingID).
		Order("day ASC").
		Find(&waitlists).Error
	if err != nil {
		return nil, err
	}
	return waitlists, nil
}

func (r *waitlistRepository) FindAllWithEntries(ctx context.Context) ([]models.Waitlist, error) {
	var waitlists []models.Waitlist
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Order("day ASC").
		Find(&waitlists).Error
	if err != nil {
		return nil, err
	}
	return waitlists, nil
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, waitlistID uint, status models.WaitlistStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Waitlist{}).
		Where("id = ?", waitlistID).
		Update("status", status).Error
}

func (r *waitlistRepository) CreateEntry(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *waitlistRepository) FindEntryByID(ctx context.Context, tx *gorm.DB, entryID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := tx.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindActiveEntries returns the live queue in original join order. Ordering is
// always (created_at, id), never active_position, so renumbering cannot be
// corrupted by a stale position read.
func (r *waitlistRepository) FindActiveEntries(ctx context.Context, tx *gorm.DB, waitlistID uint) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("waitlist_id = ? AND status = ?", waitlistID, models.EntryOpen).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *waitlistRepository) FindActiveEntryByUser(ctx context.Context, tx *gorm.DB, waitlistID uint, userID string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("waitlist_id = ? AND waitlisted_user_id = ? AND status <> ?",
			waitlistID, userID, models.EntryCanceled).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) UpdateEntryPosition(ctx context.Context, tx *gorm.DB, entryID uint, active *int, latest int) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{"active_position": active, "latest_position": latest}).Error
}

func (r *waitlistRepository) UpdateEntryStatus(ctx context.Context, tx *gorm.DB, entryID uint, status models.EntryStatus, active *int) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{"status": status, "active_position": active}).Error
}
