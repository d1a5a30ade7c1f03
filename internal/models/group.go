package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Типы каналов
const (
	GroupTypeFamily = "family"
	GroupTypeWork   = "work"
	GroupTypeCustom = "custom"
	GroupTypeDirect = "direct"
)

// Роли участников
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ChatGroup — канал: групповой чат или личная переписка (direct)
type ChatGroup struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"not null"`
	Type string    `gorm:"not null;check:type IN ('family','work','custom','direct')"`

	// Ключ пары для direct-каналов: "minUUID:maxUUID", уникален.
	// Для групповых каналов NULL, уникальный индекс пропускает NULL.
	PairKey *string `gorm:"uniqueIndex"`

	// Счетчик порядковых номеров сообщений, инкрементируется в транзакции отправки
	LastSeq int64 `gorm:"not null;default:0"`

	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	LastActivityAt time.Time `gorm:"index"`

	// Связи
	Members  []GroupMember     `gorm:"foreignKey:GroupID"`
	Messages []Message         `gorm:"foreignKey:GroupID"`
	Actions  []ScheduledAction `gorm:"foreignKey:GroupID"`
}

// GroupMember — участие пользователя в канале с ролью
type GroupMember struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID uuid.UUID `gorm:"not null;uniqueIndex:ux_group_user,priority:1"`
	UserID  uuid.UUID `gorm:"not null;uniqueIndex:ux_group_user,priority:2"`
	Role    string    `gorm:"not null;default:'member';check:role IN ('owner','admin','member')"`
	JoinedAt time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
}

func (g *ChatGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MemberOf возвращает запись участия userID или nil
func (g *ChatGroup) MemberOf(userID uuid.UUID) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// DirectPairKey строит канонический ключ пары: порядок пользователей не важен
func DirectPairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + ":" + bs
}
