package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agapovm/rodnya/internal/database"
	"github.com/agapovm/rodnya/internal/middleware"
	"github.com/agapovm/rodnya/internal/models"
	"github.com/agapovm/rodnya/internal/realtime"
)

type testEnv struct {
	db     *database.Database
	router *gin.Engine
	userID uuid.UUID
}

// newTestEnv поднимает маршруты поверх in-memory базы.
// Аутентификация подменена: userID кладется в контекст напрямую.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	d := database.NewDatabase(db)
	hub := realtime.NewHub(func(userID, channelID uuid.UUID) bool {
		return d.IsMember(channelID, userID)
	})
	go hub.Run()
	t.Cleanup(hub.Stop)

	// Недоступный redis: активный канал деградирует без ошибок наружу
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	env := &testEnv{db: d}

	router := gin.New()
	stubAuth := func(c *gin.Context) {
		c.Set(middleware.UserIDKey, env.userID)
		c.Next()
	}

	messageHandler := NewMessageHandler(d, hub)
	groupHandler := NewGroupHandler(d, rdb, hub)
	reactionHandler := NewReactionHandler(d, hub)

	api := router.Group("/", stubAuth)
	api.POST("/chat-groups/:id/messages", messageHandler.SendMessage)
	api.GET("/chat-groups/:id/messages", messageHandler.GetMessages)
	api.PUT("/messages/:id", messageHandler.EditMessage)
	api.DELETE("/messages/:id", messageHandler.DeleteMessage)
	api.GET("/messages/:id/menu", messageHandler.GetMenu)
	api.PUT("/messages/:id/reaction", reactionHandler.SetReaction)
	api.GET("/messages/:id/reactions", reactionHandler.GetReactions)
	api.DELETE("/chat-groups/:id", groupHandler.DeleteGroup)

	env.router = router
	return env
}

func (e *testEnv) as(userID uuid.UUID) *testEnv {
	e.userID = userID
	return e
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	if err := e.db.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return user
}

func (e *testEnv) group(t *testing.T, creator uuid.UUID, members ...uuid.UUID) *models.ChatGroup {
	t.Helper()
	group, err := e.db.CreateGroup(creator, "Семья", models.GroupTypeFamily, members)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

func TestSendMessageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	group := env.group(t, alice.ID)
	path := fmt.Sprintf("/chat-groups/%s/messages", group.ID)

	body := gin.H{"body": "Привет", "client_key": "k1"}

	w := env.as(alice.ID).do(t, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var first struct {
		ID  uuid.UUID `json:"id"`
		Seq int64     `json:"seq"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Seq != 1 {
		t.Errorf("expected seq 1, got %d", first.Seq)
	}

	// Повтор с тем же client_key отдает то же сообщение
	w = env.do(t, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("retry: expected 201, got %d", w.Code)
	}
	var second struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode retry: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry created a new message: %s vs %s", first.ID, second.ID)
	}

	// Без client_key запрос не проходит биндинг
	w = env.do(t, http.MethodPost, path, gin.H{"body": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without client_key, got %d", w.Code)
	}
}

func TestSendMessageEndpointForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	stranger := env.user(t, "stranger")
	group := env.group(t, alice.ID)
	path := fmt.Sprintf("/chat-groups/%s/messages", group.ID)

	w := env.as(stranger.ID).do(t, http.MethodPost, path, gin.H{"body": "x", "client_key": "k1"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-member, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetMessagesEndpointPaging(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	group := env.group(t, alice.ID)
	env.as(alice.ID)

	for i := 0; i < 5; i++ {
		w := env.do(t, http.MethodPost,
			fmt.Sprintf("/chat-groups/%s/messages", group.ID),
			gin.H{"body": "m", "client_key": uuid.NewString()})
		if w.Code != http.StatusCreated {
			t.Fatalf("send %d: %d", i, w.Code)
		}
	}

	w := env.do(t, http.MethodGet,
		fmt.Sprintf("/chat-groups/%s/messages?skip=0&limit=3", group.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var page struct {
		Messages []struct {
			Seq int64 `json:"seq"`
		} `json:"messages"`
		HasMore bool `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(page.Messages))
	}
	for i, m := range page.Messages {
		if m.Seq != int64(i+1) {
			t.Errorf("message %d: expected seq %d, got %d", i, i+1, m.Seq)
		}
	}
	if !page.HasMore {
		t.Error("expected has_more on a full page")
	}
}

func TestEditMessageEndpointPermission(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	group := env.group(t, alice.ID, bob.ID)

	w := env.as(alice.ID).do(t, http.MethodPost,
		fmt.Sprintf("/chat-groups/%s/messages", group.ID),
		gin.H{"body": "typo", "client_key": "k1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	var msg struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Чужое сообщение не редактируется
	w = env.as(bob.ID).do(t, http.MethodPut,
		fmt.Sprintf("/messages/%s", msg.ID), gin.H{"body": "hacked"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-author edit, got %d", w.Code)
	}

	w = env.as(alice.ID).do(t, http.MethodPut,
		fmt.Sprintf("/messages/%s", msg.ID), gin.H{"body": "fixed"})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for author edit, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMenuEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	group := env.group(t, alice.ID, bob.ID)

	w := env.as(alice.ID).do(t, http.MethodPost,
		fmt.Sprintf("/chat-groups/%s/messages", group.ID),
		gin.H{"body": "hi", "client_key": "k1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	var msg struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	menu := func(userID uuid.UUID) map[string]bool {
		w := env.as(userID).do(t, http.MethodGet, fmt.Sprintf("/messages/%s/menu", msg.ID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("menu: %d", w.Code)
		}
		var resp struct {
			Actions []string `json:"actions"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode menu: %v", err)
		}
		set := make(map[string]bool, len(resp.Actions))
		for _, a := range resp.Actions {
			set[a] = true
		}
		return set
	}

	authorMenu := menu(alice.ID)
	if !authorMenu["edit"] || !authorMenu["delete"] || !authorMenu["copy"] {
		t.Errorf("author menu incomplete: %v", authorMenu)
	}

	memberMenu := menu(bob.ID)
	if memberMenu["edit"] || memberMenu["delete"] {
		t.Errorf("member menu too permissive: %v", memberMenu)
	}
	if !memberMenu["reply"] || !memberMenu["react"] {
		t.Errorf("member menu incomplete: %v", memberMenu)
	}
}

func TestGetReactionsEndpointMembersOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	stranger := env.user(t, "stranger")
	group := env.group(t, alice.ID, bob.ID)

	w := env.as(alice.ID).do(t, http.MethodPost,
		fmt.Sprintf("/chat-groups/%s/messages", group.ID),
		gin.H{"body": "hi", "client_key": "k1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	var msg struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = env.as(bob.ID).do(t, http.MethodPut,
		fmt.Sprintf("/messages/%s/reaction", msg.ID), gin.H{"emoji": "👍"})
	if w.Code != http.StatusOK {
		t.Fatalf("react: %d: %s", w.Code, w.Body.String())
	}

	path := fmt.Sprintf("/messages/%s/reactions", msg.ID)

	// Не участник канала агрегаты не видит
	w = env.as(stranger.ID).do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-member, got %d", w.Code)
	}

	w = env.as(alice.ID).do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for member, got %d", w.Code)
	}
	var resp struct {
		Reactions map[string]int `json:"reactions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reactions["👍"] != 1 {
		t.Errorf("unexpected counts: %v", resp.Reactions)
	}
}

func TestDeleteGroupEndpointOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	group := env.group(t, alice.ID, bob.ID)
	path := fmt.Sprintf("/chat-groups/%s", group.ID)

	w := env.as(bob.ID).do(t, http.MethodDelete, path, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for member delete, got %d", w.Code)
	}

	w = env.as(alice.ID).do(t, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for owner delete, got %d: %s", w.Code, w.Body.String())
	}
}
