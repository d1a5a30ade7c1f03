package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/agapovm/rodnya/internal/handlers"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/pkg/auth"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Group     *handlers.GroupHandler
	Message   *handlers.MessageHandler
	Reaction  *handlers.ReactionHandler
	Action    *handlers.ActionHandler
	WebSocket *handlers.WebSocketHandler
}

func APIEndpoints(r *gin.Engine, h *Handlers, jwtMgr *auth.JWTManager, rdb *redis.Client) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), h.Auth.Logout)
	}

	api := r.Group("/", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		// Пользователи
		api.GET("/users/me", h.User.GetMe)
		api.PUT("/users/me", h.User.UpdateMe)
		api.GET("/users/search", h.User.SearchUsers)
		api.GET("/users/:id", h.User.GetUser)

		// Каналы
		api.GET("/chat-groups", h.Group.ListGroups)
		api.POST("/chat-groups", h.Group.CreateGroup)
		api.GET("/chat-groups/:id", h.Group.GetGroup)
		api.DELETE("/chat-groups/:id", h.Group.DeleteGroup)
		api.POST("/chat-groups/:id/join", h.Group.JoinGroup)
		api.POST("/chat-groups/:id/leave", h.Group.LeaveGroup)
		api.GET("/chat-groups/:id/members", h.Group.GetMembers)

		// Сообщения канала
		api.GET("/chat-groups/:id/messages", h.Message.GetMessages)
		api.POST("/chat-groups/:id/messages", h.Message.SendMessage)

		// Операции над сообщением
		api.PUT("/messages/:id", h.Message.EditMessage)
		api.DELETE("/messages/:id", h.Message.DeleteMessage)
		api.POST("/messages/:id/forward", h.Message.ForwardMessage)
		api.GET("/messages/:id/menu", h.Message.GetMenu)

		// Реакции
		api.PUT("/messages/:id/reaction", h.Reaction.SetReaction)
		api.DELETE("/messages/:id/reaction", h.Reaction.ClearReaction)
		api.GET("/messages/:id/reactions", h.Reaction.GetReactions)

		// Календарь канала
		api.POST("/chat-groups/:id/scheduled-actions", h.Action.ScheduleAction)
		api.GET("/chat-groups/:id/scheduled-actions", h.Action.GetActions)
		api.PUT("/scheduled-actions/:id/complete", h.Action.CompleteAction)

		// Личные переписки: те же обработчики сообщений, что и у групп
		api.GET("/direct-chats", h.Group.ListDirectChats)
		api.POST("/direct-chats", h.Group.ResolveDirectChat)
		api.GET("/direct-chats/:id/messages", h.Message.GetMessages)
		api.POST("/direct-chats/:id/messages", h.Message.SendMessage)
	}

	// WebSocket: токен может прийти query-параметром
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), h.WebSocket.HandleWebSocket)
}
