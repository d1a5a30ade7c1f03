// Package subscription — подписка на канал поверх опроса.
// Транспорт подключаемый: сейчас периодический опрос HTTP,
// позже push, контракт порядка и идемпотентности один и тот же.
package subscription

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/agapovm/rodnya/internal/models"
	"github.com/google/uuid"
)

// Fetcher — транспорт получения страницы истории канала
type Fetcher interface {
	FetchMessages(ctx context.Context, channelID uuid.UUID, skip, limit int) ([]models.Message, error)
}

// Update — свежая страница активного канала
type Update struct {
	ChannelID uuid.UUID
	Messages  []models.Message
}

// Manager опрашивает ровно один активный канал. Переключение канала
// отменяет незавершенный запрос прежнего; ответ, пришедший после
// переключения, отбрасывается и не может затереть состояние нового
// активного канала.
type Manager struct {
	fetcher  Fetcher
	interval time.Duration
	limit    int
	updates  chan Update

	mu     sync.Mutex
	active uuid.UUID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(fetcher Fetcher, interval time.Duration, limit int) *Manager {
	return &Manager{
		fetcher:  fetcher,
		interval: interval,
		limit:    limit,
		updates:  make(chan Update, 8),
	}
}

// Updates — поток страниц активного канала
func (m *Manager) Updates() <-chan Update {
	return m.updates
}

// Active — текущий активный канал
func (m *Manager) Active() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetActive переключает активный канал и перезапускает цикл опроса.
// Запрос прежнего канала отменяется немедленно.
func (m *Manager) SetActive(channelID uuid.UUID) {
	m.mu.Lock()
	if m.active == channelID {
		m.mu.Unlock()
		return
	}

	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.active = channelID
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.poll(ctx, channelID)
}

// Stop останавливает опрос и дожидается завершения цикла
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.active = uuid.Nil
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) poll(ctx context.Context, channelID uuid.UUID) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.fetchOnce(ctx, channelID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.fetchOnce(ctx, channelID)
		}
	}
}

func (m *Manager) fetchOnce(ctx context.Context, channelID uuid.UUID) {
	messages, err := m.fetcher.FetchMessages(ctx, channelID, 0, m.limit)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("poll %s failed: %v", channelID, err)
		}
		return
	}

	// Защита от устаревшего ответа: канал могли переключить,
	// пока запрос был в полете
	m.mu.Lock()
	stale := m.active != channelID
	m.mu.Unlock()
	if stale {
		return
	}

	select {
	case m.updates <- Update{ChannelID: channelID, Messages: messages}:
	case <-ctx.Done():
	}
}
