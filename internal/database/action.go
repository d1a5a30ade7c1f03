package database

import (
	"errors"
	"time"

	"github.com/agapovm/rodnya/internal/apperr"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleInput — параметры создания запланированного действия
type ScheduleInput struct {
	GroupID       uuid.UUID
	Actor         uuid.UUID
	Title         string
	Description   string
	Type          string
	ScheduledDate string // YYYY-MM-DD
	ScheduledTime string // HH:MM, опционально
	Location      string
	ColorCode     string
}

// ScheduleAction создает напоминание/событие в календаре канала
func (d *Database) ScheduleAction(in ScheduleInput) (*models.ScheduledAction, error) {
	if _, err := d.membership(d.db, in.GroupID, in.Actor); err != nil {
		return nil, err
	}

	if in.Title == "" {
		return nil, apperr.Validationf("title is required")
	}

	switch in.Type {
	case models.ActionTypeReminder, models.ActionTypeBirthday,
		models.ActionTypeAppointment, models.ActionTypeEvent:
	default:
		return nil, apperr.Validationf("unknown action type %q", in.Type)
	}

	date, err := time.Parse("2006-01-02", in.ScheduledDate)
	if err != nil {
		return nil, apperr.Validationf("scheduled_date must be YYYY-MM-DD")
	}

	if in.ScheduledTime != "" {
		if _, err := time.Parse("15:04", in.ScheduledTime); err != nil {
			return nil, apperr.Validationf("scheduled_time must be HH:MM")
		}
	}

	action := &models.ScheduledAction{
		GroupID:       in.GroupID,
		CreatedBy:     in.Actor,
		Title:         in.Title,
		Description:   in.Description,
		Type:          in.Type,
		ScheduledDate: date,
		ScheduledTime: in.ScheduledTime,
		Location:      in.Location,
		ColorCode:     in.ColorCode,
		CreatedAt:     time.Now(),
	}

	if err := d.db.Create(action).Error; err != nil {
		return nil, err
	}
	return action, nil
}

// GetAction получает действие по id
func (d *Database) GetAction(id string) (*models.ScheduledAction, error) {
	var action models.ScheduledAction
	if err := d.db.First(&action, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("scheduled action %s not found", id)
		}
		return nil, err
	}
	return &action, nil
}

// CompleteAction помечает действие выполненным. Переход односторонний;
// повторный вызов по уже выполненному действию ничего не меняет,
// completed_at остается от первого вызова.
func (d *Database) CompleteAction(id string, actor uuid.UUID) (*models.ScheduledAction, error) {
	action, err := d.GetAction(id)
	if err != nil {
		return nil, err
	}

	if _, err := d.membership(d.db, action.GroupID, actor); err != nil {
		return nil, err
	}

	if action.Completed {
		return action, nil
	}

	now := time.Now()
	err = d.db.Model(&models.ScheduledAction{}).
		Where("id = ? AND completed = ?", action.ID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		}).Error
	if err != nil {
		return nil, err
	}

	return d.GetAction(id)
}

// GetGroupActions отдает действия канала, все или только предстоящие.
// Предстоящие — это не выполненные с датой не раньше сегодняшнего дня;
// фильтр чисто читающий, состояние действий не меняет.
func (d *Database) GetGroupActions(groupID string, upcomingOnly bool, now time.Time) ([]models.ScheduledAction, error) {
	query := d.db.Where("group_id = ?", groupID)

	if upcomingOnly {
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		query = query.Where("completed = ? AND scheduled_date >= ?", false, startOfDay)
	}

	var actions []models.ScheduledAction
	err := query.Order("scheduled_date ASC, created_at ASC").Find(&actions).Error
	return actions, err
}
