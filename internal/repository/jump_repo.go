package repository

import (
	"context"

	"github.com/dropzonehq/reservation-service/internal/models"
	"gorm.io/gorm"
)

type JumpRepository interface {
	Create(ctx context.Context, tx *gorm.DB, jump *models.ScheduledJump) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduledJump, error)
	FindActive(ctx context.Context, tx *gorm.DB) ([]models.ScheduledJump, error)
	FindActiveByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.ScheduledJump, error)
	FindActiveByWaitlistID(ctx context.Context, tx *gorm.DB, waitlistID uint) ([]models.ScheduledJump, error)
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.ScheduledJump, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, jumpID uint, status models.JumpStatus) error
	GetDB() *gorm.DB
}

type jumpRepository struct {
	db *gorm.DB
}

func NewJumpRepository(db *gorm.DB) JumpRepository {
	return &jumpRepository{db: db}
}

func (r *jumpRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *jumpRepository) Create(ctx context.Context, tx *gorm.DB, jump *models.ScheduledJump) error {
	return tx.WithContext(ctx).Create(jump).Error
}

func (r *jumpRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduledJump, error) {
	var jump models.ScheduledJump
	if err := tx.WithContext(ctx).First(&jump, id).Error; err != nil {
		return nil, err
	}
	return &jump, nil
}

func (r *jumpRepository) FindActive(ctx context.Context, tx *gorm.DB) ([]models.ScheduledJump, error) {
	var jumps []models.ScheduledJump
	err := tx.WithContext(ctx).
		Where("status <> ?", models.JumpCanceled).
		Order("jump_date ASC, id ASC").
		Find(&jumps).Error
	if err != nil {
		return nil, err
	}
	return jumps, nil
}

func (r *jumpRepository) FindActiveByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.ScheduledJump, error) {
	var jumps []models.ScheduledJump
	err := tx.WithContext(ctx).
		Where("associated_booking_id = ? AND status <> ?", bookingID, models.JumpCanceled).
		Order("jump_date ASC, id ASC").
		Find(&jumps).Error
	if err != nil {
		return nil, err
	}
	return jumps, nil
}

func (r *jumpRepository) FindActiveByWaitlistID(ctx context.Context, tx *gorm.DB, waitlistID uint) ([]models.ScheduledJump, error) {
	var jumps []models.ScheduledJump
	err := tx.WithContext(ctx).
		Where("associated_waitlist_id = ? AND status <> ?", waitlistID, models.JumpCanceled).
		Order("id ASC").
		Find(&jumps).Error
	if err != nil {
		return nil, err
	}
	return jumps, nil
}

func (r *jumpRepository) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) ([]models.ScheduledJump, error) {
	var jumps []models.ScheduledJump
	err := tx.WithContext(ctx).
		Where("associated_booking_id = ?", bookingID).
		Order("jump_date ASC, id ASC").
		Find(&jumps).Error
	if err != nil {
		return nil, err
	}
	return jumps, nil
}

func (r *jumpRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, jumpID uint, status models.JumpStatus) error {
	return tx.WithContext(ctx).
		Model(&models.ScheduledJump{}).
		Where("id = ?", jumpID).
		Update("status", status).Error
}
