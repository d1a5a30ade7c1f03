package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/database"
	"github.com/agapovm/rodnya/internal/handlers/dto"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/internal/policy"
	"github.com/agapovm/rodnya/internal/realtime"
)

type MessageHandler struct {
	db  *database.Database
	hub *realtime.Hub
}

func NewMessageHandler(db *database.Database, hub *realtime.Hub) *MessageHandler {
	return &MessageHandler{db: db, hub: hub}
}

// GetMessages отдает страницу истории канала.
// Страница задается (skip, limit), порядок всегда по возрастанию
// порядкового номера — он единственный источник порядка, не время.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	groupID := c.Param("id")

	group, err := h.db.GetGroup(groupID)
	if err != nil {
		respondError(c, err)
		return
	}

	if group.MemberOf(userID) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this channel"})
		return
	}

	skip := 0
	if s := c.Query("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	messages, err := h.db.GetGroupMessages(groupID, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = dto.ToMessageResponse(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == limit,
	})
}

// SendMessage принимает сообщение в канал. Повтор с тем же client_key
// возвращает уже сохраненное сообщение, дубликата не будет.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var replyTo *uuid.UUID
	if req.ReplyTo != nil {
		id, err := uuid.Parse(*req.ReplyTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reply_to id"})
			return
		}
		replyTo = &id
	}

	message, err := h.db.SendMessage(database.SendInput{
		GroupID:   groupID,
		AuthorID:  userID,
		Content:   req.Body,
		Kind:      req.Kind,
		ClientKey: req.ClientKey,
		ReplyTo:   replyTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.ToMessageResponse(message)
	h.hub.Publish(groupID, realtime.EventMessageNew, userID, response)

	c.JSON(http.StatusCreated, response)
}

// EditMessage меняет текст сообщения; только автор, только не удаленное
func (h *MessageHandler) EditMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	var req struct {
		Body string `json:"body" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.db.EditMessage(messageID, userID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.ToMessageResponse(message)
	h.hub.Publish(message.GroupID, realtime.EventMessageEdited, userID, response)

	c.JSON(http.StatusOK, response)
}

// DeleteMessage помечает сообщение удаленным: позиция и id остаются,
// тело очищается у всех клиентов
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	message, err := h.db.GetMessage(messageID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.SoftDeleteMessage(messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(message.GroupID, realtime.EventMessageDeleted, userID, gin.H{
		"message_id": message.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "message deleted successfully"})
}

// ForwardMessage пересылает сообщение в другой канал; оригинал не трогается
func (h *MessageHandler) ForwardMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	var req struct {
		ToChannelID string `json:"to_channel_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	toChannelID, err := uuid.Parse(req.ToChannelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	forwarded, err := h.db.ForwardMessage(messageID, toChannelID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.ToMessageResponse(forwarded)
	h.hub.Publish(toChannelID, realtime.EventMessageNew, userID, response)

	c.JSON(http.StatusCreated, response)
}

// GetMenu отдает действия, доступные вызывающему над сообщением.
// Тот же набор сервер применяет при мутациях: клиент не увидит
// действия, которое сервер потом отвергнет.
func (h *MessageHandler) GetMenu(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	message, err := h.db.GetMessage(messageID)
	if err != nil {
		respondError(c, err)
		return
	}

	group, err := h.db.GetGroup(message.GroupID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	role := ""
	if member := group.MemberOf(userID); member != nil {
		role = member.Role
	}

	c.JSON(http.StatusOK, gin.H{
		"actions": policy.PermittedActions(message, userID, role),
	})
}
