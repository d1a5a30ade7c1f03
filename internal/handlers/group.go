package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/database"
	"github.com/agapovm/rodnya/internal/handlers/dto"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/agapovm/rodnya/internal/realtime"
)

const activeGroupTTL = 30 * 24 * time.Hour

type GroupHandler struct {
	db    *database.Database
	redis *redis.Client
	hub   *realtime.Hub
}

func NewGroupHandler(db *database.Database, rdb *redis.Client, hub *realtime.Hub) *GroupHandler {
	return &GroupHandler{db: db, redis: rdb, hub: hub}
}

// CreateGroup создает канал. Новый канал становится активным для
// создателя: представление откроет его сразу после создания.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name      string   `json:"name" binding:"required"`
		Type      string   `json:"type" binding:"required,oneof=family work custom direct"`
		MemberIDs []string `json:"member_ids"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
			return
		}
		memberIDs = append(memberIDs, id)
	}

	group, err := h.db.CreateGroup(userID, req.Name, req.Type, memberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setActiveGroup(userID, group.ID)

	c.JSON(http.StatusCreated, formatGroupResponse(group))
}

// ListGroups отдает каналы пользователя в серверном порядке
// (по последней активности) вместе с активным каналом
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	groups, err := h.db.ListGroups(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups":       h.formatGroupList(groups),
		"active_group": h.activeGroup(userID),
	})
}

// GetGroup отдает канал с участниками и подписчиками онлайн
func (h *GroupHandler) GetGroup(c *gin.Context) {
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

	response := formatGroupResponse(group)
	response["online_users"] = h.hub.ChannelUsers(group.ID)

	h.setActiveGroup(userID, group.ID)

	c.JSON(http.StatusOK, response)
}

// DeleteGroup удаляет канал каскадно вместе с сообщениями,
// реакциями и календарем. Только владелец.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	groupID := c.Param("id")

	group, err := h.db.GetGroup(groupID)
	if err != nil {
		respondError(c, err)
		return
	}

	member := group.MemberOf(userID)
	if member == nil || member.Role != models.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete a channel"})
		return
	}

	if err := h.db.DeleteGroup(groupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "group deleted successfully"})
}

// JoinGroup добавляет пользователя в групповой канал
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	groupID := c.Param("id")

	group, err := h.db.GetGroup(groupID)
	if err != nil {
		respondError(c, err)
		return
	}

	if group.Type == models.GroupTypeDirect {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot join a direct channel"})
		return
	}

	if err := h.db.AddMember(group.ID, userID, models.RoleMember); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined group successfully"})
}

// LeaveGroup выводит пользователя из канала вместе с его реакциями
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	groupID := c.Param("id")

	group, err := h.db.GetGroup(groupID)
	if err != nil {
		respondError(c, err)
		return
	}

	if group.Type == models.GroupTypeDirect {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot leave a direct channel"})
		return
	}

	member := group.MemberOf(userID)
	if member == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this channel"})
		return
	}
	if member.Role == models.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner cannot leave the channel"})
		return
	}

	if err := h.db.RemoveMember(group.ID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left group successfully"})
}

// GetMembers отдает участников канала с ролями
func (h *GroupHandler) GetMembers(c *gin.Context) {
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

	onlineUsers := h.hub.ChannelUsers(group.ID)
	online := make(map[uuid.UUID]bool, len(onlineUsers))
	for _, id := range onlineUsers {
		online[id] = true
	}

	members := make([]gin.H, len(group.Members))
	for i, member := range group.Members {
		members[i] = gin.H{
			"id":           member.UserID,
			"username":     member.User.Username,
			"avatar_url":   member.User.AvatarURL,
			"role":         member.Role,
			"joined_at":    member.JoinedAt,
			"last_seen_at": member.User.LastSeenAt,
			"is_online":    online[member.UserID],
		}
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// ListDirectChats отдает личные переписки пользователя
func (h *GroupHandler) ListDirectChats(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	chats, err := h.db.ListDirectChats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get direct chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": h.formatGroupList(chats)})
}

// ResolveDirectChat находит или создает личную переписку с собеседником.
// Идемпотентна: на одну пару пользователей канал всегда один.
func (h *GroupHandler) ResolveDirectChat(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	chat, err := h.db.ResolveDirectChat(userID, targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatGroupResponse(chat))
}

func (h *GroupHandler) formatGroupList(groups []models.ChatGroup) []gin.H {
	out := make([]gin.H, len(groups))
	for i, group := range groups {
		response := formatGroupResponse(&group)

		if last, err := h.db.LastMessage(group.ID.String()); err == nil && last != nil {
			response["last_message"] = dto.ToMessageResponse(last)
		}

		response["online_count"] = len(h.hub.ChannelUsers(group.ID))

		out[i] = response
	}
	return out
}

// setActiveGroup запоминает активный канал пользователя; это политика
// представления, реестр каналов от нее не зависит
func (h *GroupHandler) setActiveGroup(userID, groupID uuid.UUID) {
	h.redis.Set(context.Background(), "active_group:"+userID.String(), groupID.String(), activeGroupTTL)
}

func (h *GroupHandler) activeGroup(userID uuid.UUID) string {
	val, err := h.redis.Get(context.Background(), "active_group:"+userID.String()).Result()
	if err != nil {
		return ""
	}
	return val
}

// formatGroupResponse форматирует ответ для канала
func formatGroupResponse(group *models.ChatGroup) gin.H {
	members := make([]gin.H, len(group.Members))
	for i, member := range group.Members {
		members[i] = gin.H{
			"id":         member.UserID,
			"username":   member.User.Username,
			"avatar_url": member.User.AvatarURL,
			"role":       member.Role,
		}
	}

	return gin.H{
		"id":               group.ID,
		"name":             group.Name,
		"type":             group.Type,
		"created_by":       group.CreatedBy,
		"created_at":       group.CreatedAt,
		"last_activity_at": group.LastActivityAt,
		"members":          members,
	}
}
