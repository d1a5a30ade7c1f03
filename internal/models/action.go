package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Типы запланированных действий
const (
	ActionTypeReminder    = "reminder"
	ActionTypeBirthday    = "birthday"
	ActionTypeAppointment = "appointment"
	ActionTypeEvent       = "event"
)

// ScheduledAction — напоминание/событие календаря канала.
// Жизненный цикл не зависит от сообщений: канал может быть пустым.
type ScheduledAction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID `gorm:"not null;index"`
	CreatedBy   uuid.UUID `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string
	Type        string `gorm:"not null;check:type IN ('reminder','birthday','appointment','event')"`

	// Дата обязательна, время опционально (формат HH:MM)
	ScheduledDate time.Time `gorm:"not null;index"`
	ScheduledTime string

	Location  string
	ColorCode string

	// Завершение одностороннее: обратного перехода нет
	Completed   bool `gorm:"not null;default:false"`
	CompletedAt *time.Time

	CreatedAt time.Time
}

func (a *ScheduledAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
