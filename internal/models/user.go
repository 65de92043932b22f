package models

import "time"

// User is a read model of the external user directory, kept in sync by the
// RabbitMQ consumer. The reservation core never writes it outside that sync
// path.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updated_at"`
}
