package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/models"
)

// SendMessageRequest — входящее сообщение.
// client_key генерирует клиент; повтор с тем же ключом безопасен.
type SendMessageRequest struct {
	Body      string  `json:"body"`
	Kind      string  `json:"kind,omitempty"` // text, media, system
	ClientKey string  `json:"client_key" binding:"required"`
	ReplyTo   *string `json:"reply_to,omitempty"`
}

// MessageResponse — исходящее представление сообщения
type MessageResponse struct {
	ID            uuid.UUID  `json:"id"`
	ChannelID     uuid.UUID  `json:"channel_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Body          string     `json:"body"`
	Kind          string     `json:"kind"`
	Seq           int64      `json:"seq"`
	ReplyTo       *uuid.UUID `json:"reply_to,omitempty"`
	ForwardedFrom *uuid.UUID `json:"forwarded_from,omitempty"`
	Deleted       bool       `json:"deleted"`
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
	User          *UserInfo  `json:"user,omitempty"`
}

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// ToMessageResponse переводит модель в представление API.
// У удаленного сообщения тело всегда пустое, каким бы оно ни было в базе.
func ToMessageResponse(msg *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:            msg.ID,
		ChannelID:     msg.GroupID,
		UserID:        msg.UserID,
		Body:          msg.Content,
		Kind:          msg.Kind,
		Seq:           msg.Seq,
		ReplyTo:       msg.ReplyToID,
		ForwardedFrom: msg.ForwardedFromID,
		Deleted:       msg.Deleted,
		CreatedAt:     msg.CreatedAt,
		EditedAt:      msg.EditedAt,
	}

	if msg.Deleted {
		resp.Body = ""
	}

	if msg.User.ID != uuid.Nil {
		resp.User = &UserInfo{
			ID:        msg.User.ID,
			Username:  msg.User.Username,
			AvatarURL: msg.User.AvatarURL,
		}
	}

	return resp
}
