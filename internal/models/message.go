package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Виды тела сообщения
const (
	MessageKindText   = "text"
	MessageKindMedia  = "media"
	MessageKindSystem = "system"
)

type Message struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID uuid.UUID `gorm:"not null;index;uniqueIndex:ux_group_author_key,priority:1"`
	UserID  uuid.UUID `gorm:"not null;uniqueIndex:ux_group_author_key,priority:2"`

	// Идемпотентный ключ клиента: повторная отправка с тем же ключом
	// возвращает уже сохраненное сообщение
	ClientKey string `gorm:"not null;uniqueIndex:ux_group_author_key,priority:3"`

	Content string
	Kind    string `gorm:"not null;default:'text';check:kind IN ('text','media','system')"`

	// Порядковый номер в канале, единственный источник порядка
	Seq int64 `gorm:"not null;index:ix_group_seq"`

	// Дерево ответов: ссылка на сообщение того же канала
	ReplyToID *uuid.UUID

	// Откуда переслано (оригинал остается в исходном канале)
	ForwardedFromID *uuid.UUID

	// Мягкое удаление: тело очищается, позиция и id сохраняются
	Deleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	EditedAt  *time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
