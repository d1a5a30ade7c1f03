// Package realtime — push-доставка событий канала поверх websocket.
// Необязательный транспорт: источником порядка остаются порядковые
// номера сообщений, клиент на опросе получает ровно то же состояние.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType определяет типы событий
type EventType string

const (
	// Служебные
	EventPing        EventType = "ping"
	EventPong        EventType = "pong"
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"

	// События сообщений
	EventMessageNew     EventType = "message_new"
	EventMessageEdited  EventType = "message_edited"
	EventMessageDeleted EventType = "message_deleted"

	// События реакций
	EventReactionSet     EventType = "reaction_set"
	EventReactionCleared EventType = "reaction_cleared"

	// События календаря
	EventActionScheduled EventType = "action_scheduled"
	EventActionCompleted EventType = "action_completed"
)

type Event struct {
	Type      EventType       `json:"type"`
	ChannelID *uuid.UUID      `json:"channel_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MembershipChecker решает, можно ли пользователю подписаться на канал
type MembershipChecker func(userID, channelID uuid.UUID) bool

type Hub struct {
	clients map[uuid.UUID]*Client

	// Соединения по UserID (у пользователя может быть несколько устройств)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подписчики каналов
	channels map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	events     chan *outgoing

	canSubscribe MembershipChecker

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type outgoing struct {
	channelID uuid.UUID
	payload   []byte
}

// NewHub создает новый Hub
func NewHub(canSubscribe MembershipChecker) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:      make(map[uuid.UUID]*Client),
		userClients:  make(map[uuid.UUID]map[uuid.UUID]*Client),
		channels:     make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		events:       make(chan *outgoing, 64),
		canSubscribe: canSubscribe,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.events:
			h.fanOut(ev.channelID, ev.payload)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

// Register регистрирует новое соединение
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию соединения
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish рассылает событие всем подписчикам канала
func (h *Hub) Publish(channelID uuid.UUID, eventType EventType, actor uuid.UUID, data interface{}) {
	ev := Event{
		Type:      eventType,
		ChannelID: &channelID,
		UserID:    actor,
		Timestamp: time.Now(),
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("marshal event %s: %v", eventType, err)
			return
		}
		ev.Data = raw
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("marshal event %s: %v", eventType, err)
		return
	}

	select {
	case h.events <- &outgoing{channelID: channelID, payload: payload}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for channelID := range client.Channels {
		h.dropSubscriptionUnsafe(client, channelID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// Subscribe подписывает соединение на события канала.
// Подписка разрешена только участнику канала.
func (h *Hub) Subscribe(client *Client, channelID uuid.UUID) error {
	if h.canSubscribe != nil && !h.canSubscribe(client.UserID, channelID) {
		return ErrNotChannelMember
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[channelID]; !ok {
		h.channels[channelID] = make(map[uuid.UUID]*Client)
	}

	h.channels[channelID][client.ID] = client
	client.mu.Lock()
	client.Channels[channelID] = true
	client.mu.Unlock()

	return nil
}

// Unsubscribe снимает подписку соединения на канал
func (h *Hub) Unsubscribe(client *Client, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscriptionUnsafe(client, channelID)
}

func (h *Hub) dropSubscriptionUnsafe(client *Client, channelID uuid.UUID) {
	if subs, ok := h.channels[channelID]; ok {
		delete(subs, client.ID)
		if len(subs) == 0 {
			delete(h.channels, channelID)
		}
	}

	client.mu.Lock()
	delete(client.Channels, channelID)
	client.mu.Unlock()
}

func (h *Hub) fanOut(channelID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.channels[channelID]; ok {
		for _, client := range subs {
			select {
			case client.Send <- payload:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev := Event{
		Type:      EventPing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(ev); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// OnlineUsers возвращает пользователей с активными соединениями
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// ChannelUsers возвращает пользователей, подписанных на канал
func (h *Hub) ChannelUsers(channelID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	if subs, ok := h.channels[channelID]; ok {
		for _, client := range subs {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
