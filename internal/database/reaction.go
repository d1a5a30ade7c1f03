package database

import (
	"time"

	"github.com/agapovm/rodnya/internal/apperr"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// SetReaction ставит реакцию пользователя на сообщение.
// Upsert: прежняя эмодзи того же пользователя заменяется, у пары
// (сообщение, пользователь) не бывает двух строк. Повторные вызовы
// с разных устройств сходятся к одному состоянию без координации.
func (d *Database) SetReaction(messageID, userID uuid.UUID, emoji string) error {
	if emoji == "" {
		return apperr.Validationf("emoji is required")
	}

	message, err := d.GetMessage(messageID.String())
	if err != nil {
		return err
	}
	if message.Deleted {
		return apperr.Validationf("deleted message cannot be reacted to")
	}

	if _, err := d.membership(d.db, message.GroupID, userID); err != nil {
		return err
	}

	reaction := &models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}

	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
	}).Create(reaction).Error
}

// ClearReaction снимает реакцию пользователя; отсутствие строки не ошибка
func (d *Database) ClearReaction(messageID, userID uuid.UUID) error {
	return d.db.
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Reaction{}).Error
}

// ReactionCounts агрегирует реакции сообщения по эмодзи.
// Считается заново на каждом чтении, кэшируемых счетчиков нет.
func (d *Database) ReactionCounts(messageID uuid.UUID) (map[string]int, error) {
	var rows []struct {
		Emoji string
		Count int
	}

	err := d.db.Model(&models.Reaction{}).
		Select("emoji, COUNT(*) as count").
		Where("message_id = ?", messageID).
		Group("emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Emoji] = row.Count
	}
	return counts, nil
}
