package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/models"
	"github.com/agapovm/rodnya/internal/schedule"
)

type ScheduleActionRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ActionType    string `json:"action_type" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time"`                   // HH:MM
	Location      string `json:"location"`
	ColorCode     string `json:"color_code"`
}

type ActionResponse struct {
	ID            uuid.UUID  `json:"id"`
	ChannelID     uuid.UUID  `json:"channel_id"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ActionType    string     `json:"action_type"`
	ScheduledDate string     `json:"scheduled_date"`
	ScheduledTime string     `json:"scheduled_time,omitempty"`
	Location      string     `json:"location,omitempty"`
	ColorCode     string     `json:"color_code,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	WhenLabel     string     `json:"when_label"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToActionResponse переводит модель в представление API,
// метка when_label считается относительно now
func ToActionResponse(action *models.ScheduledAction, now time.Time) ActionResponse {
	return ActionResponse{
		ID:            action.ID,
		ChannelID:     action.GroupID,
		CreatedBy:     action.CreatedBy,
		Title:         action.Title,
		Description:   action.Description,
		ActionType:    action.Type,
		ScheduledDate: action.ScheduledDate.Format("2006-01-02"),
		ScheduledTime: action.ScheduledTime,
		Location:      action.Location,
		ColorCode:     action.ColorCode,
		Completed:     action.Completed,
		CompletedAt:   action.CompletedAt,
		WhenLabel:     schedule.RelativeLabel(action.ScheduledDate, now),
		CreatedAt:     action.CreatedAt,
	}
}
