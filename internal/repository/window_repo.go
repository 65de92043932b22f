package repository

import (
	"context"
	"time"

	"github.com/dropzonehq/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// admissionLockKey is the advisory lock key every window creation takes.
// Row locks alone cannot exclude a phantom insert when the active set is
// empty, so admission is serialized on this single transaction-scoped lock.
const admissionLockKey int64 = 824461

type WindowRepository interface {
	Create(ctx context.Context, tx *gorm.DB, window *models.BookingWindow) error
	AcquireAdmissionLock(ctx context.Context, tx *gorm.DB) error
	FindByID(ctx context.Context, id uint) (*models.BookingWindow, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.BookingWindow, error)
	FindActive(ctx context.Context, tx *gorm.DB) ([]models.BookingWindow, error)
	FindActiveForUpdate(ctx context.Context, tx *gorm.DB) ([]models.BookingWindow, error)
	FindInRange(ctx context.Context, from, to *time.Time) ([]models.BookingWindow, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, windowID uint, status models.WindowStatus) error
	GetDB() *gorm.DB
}

type windowRepository struct {
	db *gorm.DB
}

func NewWindowRepository(db *gorm.DB) WindowRepository {
	return &windowRepository{db: db}
}

func (r *windowRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *windowRepository) Create(ctx context.Context, tx *gorm.DB, window *models.BookingWindow) error {
	return tx.WithContext(ctx).Create(window).Error
}

// AcquireAdmissionLock blocks until this transaction holds the window
// admission lock. pg_advisory_xact_lock releases automatically on
// commit or rollback.
func (r *windowRepository) AcquireAdmissionLock(ctx context.Context, tx *gorm.DB) error {
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", admissionLockKey).Error
}

func (r *windowRepository) FindByID(ctx context.Context, id uint) (*models.BookingWindow, error) {
	var window models.BookingWindow
	if err := r.db.WithContext(ctx).First(&window, id).Error; err != nil {
		return nil, err
	}
	return &window, nil
}

// FindByIDForUpdate acquires a row-level lock on the window within the given
// transaction.
func (r *windowRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.BookingWindow, error) {
	var window models.BookingWindow
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&window, id).Error; err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *windowRepository) FindActive(ctx context.Context, tx *gorm.DB) ([]models.BookingWindow, error) {
	var windows []models.BookingWindow
	err := tx.WithContext(ctx).
		Where("status <> ?", models.WindowCanceled).
		Order("window_start_date ASC, id ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

// FindActiveForUpdate locks every non-canceled window row. Window creation
// locks the whole active set so two concurrent creations cannot both see the
// same span as free.
func (r *windowRepository) FindActiveForUpdate(ctx context.Context, tx *gorm.DB) ([]models.BookingWindow, error) {
	var windows []models.BookingWindow
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status <> ?", models.WindowCanceled).
		Order("window_start_date ASC, id ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *windowRepository) FindInRange(ctx context.Context, from, to *time.Time) ([]models.BookingWindow, error) {
	var windows []models.BookingWindow
	q := r.db.WithContext(ctx)
	if from != nil {
		q = q.Where("window_end_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("window_start_date <= ?", *to)
	}
	if err := q.Order("window_start_date ASC, id ASC").Find(&windows).Error; err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *windowRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, windowID uint, status models.WindowStatus) error {
	return tx.WithContext(ctx).
		Model(&models.BookingWindow{}).
		Where("id = ?", windowID).
		Update("status", status).Error
}
