package database

import (
	"errors"
	"time"

	"github.com/agapovm/rodnya/internal/apperr"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SendInput — параметры отправки сообщения
type SendInput struct {
	GroupID   uuid.UUID
	AuthorID  uuid.UUID
	Content   string
	Kind      string
	ClientKey string
	ReplyTo   *uuid.UUID
}

// SendMessage принимает сообщение в канал.
// Порядковый номер выдается здесь, атомарно на канал: счетчик last_seq
// инкрементируется под блокировкой строки канала в той же транзакции.
// Повторная отправка с тем же (канал, автор, client_key) возвращает уже
// сохраненное сообщение, поэтому повтор после таймаута безопасен.
func (d *Database) SendMessage(in SendInput) (*models.Message, error) {
	if in.ClientKey == "" {
		return nil, apperr.Validationf("client_key is required")
	}

	kind := in.Kind
	if kind == "" {
		kind = models.MessageKindText
	}
	switch kind {
	case models.MessageKindText, models.MessageKindMedia, models.MessageKindSystem:
	default:
		return nil, apperr.Validationf("unknown message kind %q", kind)
	}

	if kind == models.MessageKindText && in.Content == "" {
		return nil, apperr.Validationf("text message body is empty")
	}

	if _, err := d.membership(d.db, in.GroupID, in.AuthorID); err != nil {
		return nil, err
	}

	var message *models.Message

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Message
		err := tx.
			Where("group_id = ? AND user_id = ? AND client_key = ?", in.GroupID, in.AuthorID, in.ClientKey).
			First(&existing).Error
		if err == nil {
			message = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if in.ReplyTo != nil {
			var target models.Message
			err := tx.Where("id = ? AND group_id = ?", *in.ReplyTo, in.GroupID).First(&target).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("reply target not found in channel")
				}
				return err
			}
		}

		now := time.Now()

		res := tx.Model(&models.ChatGroup{}).
			Where("id = ?", in.GroupID).
			Updates(map[string]interface{}{
				"last_seq":         gorm.Expr("last_seq + 1"),
				"last_activity_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFoundf("group %s not found", in.GroupID)
		}

		var seq int64
		if err := tx.Model(&models.ChatGroup{}).
			Where("id = ?", in.GroupID).
			Select("last_seq").
			Scan(&seq).Error; err != nil {
			return err
		}

		message = &models.Message{
			GroupID:   in.GroupID,
			UserID:    in.AuthorID,
			ClientKey: in.ClientKey,
			Content:   in.Content,
			Kind:      kind,
			Seq:       seq,
			ReplyToID: in.ReplyTo,
			CreatedAt: now,
		}

		return tx.Create(message).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Гонка повторов: победила первая вставка, возвращаем ее
			var existing models.Message
			qerr := d.db.
				Where("group_id = ? AND user_id = ? AND client_key = ?", in.GroupID, in.AuthorID, in.ClientKey).
				First(&existing).Error
			if qerr == nil {
				return &existing, nil
			}
			return nil, apperr.Wrap(apperr.Conflict, err, "duplicate send")
		}
		return nil, err
	}

	return message, nil
}

// GetMessage получает сообщение по id
func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.Preload("User").First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("message %s not found", id)
		}
		return nil, err
	}
	return &message, nil
}

// EditMessage меняет текст сообщения. Разрешено только автору и только
// пока сообщение не удалено. Порядковый номер и позиция не меняются.
func (d *Database) EditMessage(id string, actor uuid.UUID, content string) (*models.Message, error) {
	message, err := d.GetMessage(id)
	if err != nil {
		return nil, err
	}

	if message.UserID != actor {
		return nil, apperr.Permissionf("only the author can edit a message")
	}
	if message.Deleted {
		return nil, apperr.Permissionf("deleted message cannot be edited")
	}
	// Редактируется только текст, как и в контекстном меню
	if message.Kind != models.MessageKindText {
		return nil, apperr.Permissionf("only text messages can be edited")
	}
	if content == "" {
		return nil, apperr.Validationf("text message body is empty")
	}

	now := time.Now()
	message.Content = content
	message.EditedAt = &now

	if err := d.db.Save(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// SoftDeleteMessage помечает сообщение удаленным: тело очищается,
// id и порядковый номер остаются, дерево ответов не рвется.
// Разрешено автору либо участнику с ролью admin/owner.
func (d *Database) SoftDeleteMessage(id string, actor uuid.UUID) error {
	message, err := d.GetMessage(id)
	if err != nil {
		return err
	}

	if message.UserID != actor {
		member, err := d.membership(d.db, message.GroupID, actor)
		if err != nil {
			return err
		}
		if member.Role != models.RoleAdmin && member.Role != models.RoleOwner {
			return apperr.Permissionf("only the author or an admin can delete a message")
		}
	}

	if message.Deleted {
		return nil
	}

	return d.db.Model(&models.Message{}).
		Where("id = ?", message.ID).
		Updates(map[string]interface{}{
			"content": "",
			"deleted": true,
		}).Error
}

// ForwardMessage пересылает сообщение в другой канал: в целевом канале
// создается новое сообщение со ссылкой на оригинал, оригинал не трогается
func (d *Database) ForwardMessage(id string, toGroupID, actor uuid.UUID) (*models.Message, error) {
	original, err := d.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if original.Deleted {
		return nil, apperr.Validationf("deleted message cannot be forwarded")
	}

	if _, err := d.membership(d.db, original.GroupID, actor); err != nil {
		return nil, err
	}

	forwarded, err := d.SendMessage(SendInput{
		GroupID:   toGroupID,
		AuthorID:  actor,
		Content:   original.Content,
		Kind:      original.Kind,
		ClientKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	if err := d.db.Model(&models.Message{}).
		Where("id = ?", forwarded.ID).
		Update("forwarded_from_id", original.ID).Error; err != nil {
		return nil, err
	}
	forwarded.ForwardedFromID = &original.ID

	return forwarded, nil
}

// GetGroupMessages отдает страницу истории канала.
// Порядок всегда по возрастанию порядкового номера, страница задается
// (skip, limit); это единственный порядок, согласованный с seq.
func (d *Database) GetGroupMessages(groupID string, skip, limit int) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("group_id = ?", groupID).
		Order("seq ASC").
		Offset(skip).
		Limit(limit).
		Preload("User").
		Find(&messages).Error

	return messages, err
}

// LastMessage возвращает последнее по порядку сообщение канала или nil
func (d *Database) LastMessage(groupID string) (*models.Message, error) {
	var message models.Message
	err := d.db.
		Where("group_id = ?", groupID).
		Order("seq DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}
