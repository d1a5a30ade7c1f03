package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/database"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/internal/realtime"
)

type ReactionHandler struct {
	db  *database.Database
	hub *realtime.Hub
}

func NewReactionHandler(db *database.Database, hub *realtime.Hub) *ReactionHandler {
	return &ReactionHandler{db: db, hub: hub}
}

// SetReaction ставит реакцию; прежняя эмодзи пользователя заменяется.
// Повторные вызовы с разных устройств сходятся к одному состоянию.
func (h *ReactionHandler) SetReaction(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.SetReaction(messageID, userID, req.Emoji); err != nil {
		respondError(c, err)
		return
	}

	message, err := h.db.GetMessage(messageID.String())
	if err == nil {
		h.hub.Publish(message.GroupID, realtime.EventReactionSet, userID, gin.H{
			"message_id": messageID,
			"emoji":      req.Emoji,
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "reaction set"})
}

// ClearReaction снимает реакцию; отсутствие реакции не ошибка
func (h *ReactionHandler) ClearReaction(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.db.ClearReaction(messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	if message, err := h.db.GetMessage(messageID.String()); err == nil {
		h.hub.Publish(message.GroupID, realtime.EventReactionCleared, userID, gin.H{
			"message_id": messageID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "reaction cleared"})
}

// GetReactions отдает свежие агрегаты эмодзи → количество.
// Только участнику канала сообщения.
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	message, err := h.db.GetMessage(messageID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.db.IsMember(message.GroupID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this channel"})
		return
	}

	counts, err := h.db.ReactionCounts(messageID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": counts})
}
