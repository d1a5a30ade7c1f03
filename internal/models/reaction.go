package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction — эмодзи-реакция пользователя на сообщение.
// Не более одной на пару (message, user): новая эмодзи заменяет прежнюю.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"not null;uniqueIndex:ux_message_user,priority:1"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:ux_message_user,priority:2"`
	Emoji     string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
