package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/database"
	"github.com/agapovm/rodnya/internal/handlers/dto"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/internal/realtime"
)

type ActionHandler struct {
	db  *database.Database
	hub *realtime.Hub
}

func NewActionHandler(db *database.Database, hub *realtime.Hub) *ActionHandler {
	return &ActionHandler{db: db, hub: hub}
}

// ScheduleAction создает напоминание/событие в календаре канала
func (h *ActionHandler) ScheduleAction(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req dto.ScheduleActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.db.ScheduleAction(database.ScheduleInput{
		GroupID:       groupID,
		Actor:         userID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.ActionType,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Location:      req.Location,
		ColorCode:     req.ColorCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.ToActionResponse(action, time.Now())
	h.hub.Publish(groupID, realtime.EventActionScheduled, userID, response)

	c.JSON(http.StatusCreated, response)
}

// GetActions отдает календарь канала; filter=upcoming оставляет
// только невыполненные действия с датой не раньше сегодняшней
func (h *ActionHandler) GetActions(c *gin.Context) {
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

	now := time.Now()
	upcomingOnly := c.DefaultQuery("filter", "all") == "upcoming"

	actions, err := h.db.GetGroupActions(groupID, upcomingOnly, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get scheduled actions"})
		return
	}

	result := make([]dto.ActionResponse, len(actions))
	for i := range actions {
		result[i] = dto.ToActionResponse(&actions[i], now)
	}

	c.JSON(http.StatusOK, gin.H{"actions": result})
}

// CompleteAction помечает действие выполненным; повторный вызов
// ничего не меняет и не ошибка
func (h *ActionHandler) CompleteAction(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	actionID := c.Param("id")

	action, err := h.db.CompleteAction(actionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.ToActionResponse(action, time.Now())
	h.hub.Publish(action.GroupID, realtime.EventActionCompleted, userID, response)

	c.JSON(http.StatusOK, response)
}
