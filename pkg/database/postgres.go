package database

import (
	"log"

	"github.com/dropzonehq/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.BookingWindow{},
		&models.Waitlist{},
		&models.WaitlistEntry{},
		&models.ScheduledJump{},
		&models.User{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one non-closed waitlist per day, so a join race
	// cannot create two queues for the same date
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_open_day
		ON waitlists (day)
		WHERE status <> 'closed'
	`)

	// Partial unique index: prevents duplicate active enrollment (same user +
	// same waitlist) unless canceled
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_entry_active
		ON waitlist_entries (waitlist_id, waitlisted_user_id)
		WHERE status <> 'canceled'
	`)

	return db
}
