// Package policy — правила контекстного меню сообщения.
// Чистая функция без побочных эффектов: клиент и сервер выводят
// одинаковый набор действий, клиент не может нарисовать действие,
// которое сервер потом отвергнет.
package policy

import (
	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
)

// Action — пункт контекстного меню
type Action string

const (
	ActionReply   Action = "reply"
	ActionCopy    Action = "copy"
	ActionForward Action = "forward"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionReact   Action = "react"
)

// PermittedActions возвращает действия, доступные actor над message
// при его роли в канале. Не-участник не получает ничего.
func PermittedActions(message *models.Message, actor uuid.UUID, role string) []Action {
	if role == "" {
		return nil
	}

	actions := make([]Action, 0, 6)

	if !message.Deleted {
		actions = append(actions, ActionReply, ActionForward, ActionReact)

		if message.Kind == models.MessageKindText {
			actions = append(actions, ActionCopy)

			if message.UserID == actor {
				actions = append(actions, ActionEdit)
			}
		}
	}

	if message.UserID == actor || role == models.RoleAdmin || role == models.RoleOwner {
		actions = append(actions, ActionDelete)
	}

	return actions
}
