package consumer

import (
	"encoding/json"
	"log"

	"github.com/dropzonehq/reservation-service/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const deletedKey = "user.deleted"

// UserConsumer keeps the local user read model in sync with the external
// directory. The core only ever reads these rows.
type UserConsumer struct {
	db *gorm.DB
}

func NewUserConsumer(db *gorm.DB) *UserConsumer {
	return &UserConsumer{db: db}
}

// Start listens for directory events and applies them to the local
// reservation DB.
func (uc *UserConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			uc.handleMessage(msg)
		}
		log.Println("[UserConsumer] channel closed, stopping consumer")
	}()
}

func (uc *UserConsumer) handleMessage(msg amqp.Delivery) {
	var user models.User
	if err := json.Unmarshal(msg.Body, &user); err != nil {
		log.Printf("[UserConsumer] failed to unmarshal %q: %v", msg.RoutingKey, err)
		msg.Nack(false, false)
		return
	}
	if user.ID == "" {
		log.Printf("[UserConsumer] dropping %q event without a user id", msg.RoutingKey)
		msg.Nack(false, false)
		return
	}

	if err := uc.apply(msg.RoutingKey, &user); err != nil {
		log.Printf("[UserConsumer] failed to apply %q for user %s: %v", msg.RoutingKey, user.ID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[UserConsumer] applied %q for user %s", msg.RoutingKey, user.ID)
	msg.Ack(false)
}

// apply routes one directory event into the read model. Deletions remove the
// row; any other user.* event upserts on the directory id, so create and
// update need no distinct handling and replays are harmless.
func (uc *UserConsumer) apply(routingKey string, user *models.User) error {
	if routingKey == deletedKey {
		return uc.db.Delete(&models.User{}, "id = ?", user.ID).Error
	}

	return uc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "updated_at"}),
	}).Create(user).Error
}
