package subscription

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Draft — составленное, но еще не подтвержденное сообщение
type Draft struct {
	ChannelID  uuid.UUID
	ClientKey  string
	Content    string
	ComposedAt time.Time
}

// Outbox хранит черновики до подтверждения отправки.
// Сетевой сбой не теряет текст: черновик остается, повтор идет
// с тем же client_key, поэтому дубликата на сервере не будет.
type Outbox struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewOutbox() *Outbox {
	return &Outbox{drafts: make(map[string]Draft)}
}

// Put кладет черновик; повторный Put с тем же ключом обновляет текст
func (o *Outbox) Put(channelID uuid.UUID, clientKey, content string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.drafts[clientKey]; ok {
		existing.Content = content
		o.drafts[clientKey] = existing
		return
	}

	o.drafts[clientKey] = Draft{
		ChannelID:  channelID,
		ClientKey:  clientKey,
		Content:    content,
		ComposedAt: time.Now(),
	}
}

// Confirm удаляет черновик после подтвержденной отправки;
// повторное подтверждение ничего не делает
func (o *Outbox) Confirm(clientKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.drafts, clientKey)
}

// Pending — неподтвержденные черновики канала в порядке написания
func (o *Outbox) Pending(channelID uuid.UUID) []Draft {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []Draft
	for _, d := range o.drafts {
		if d.ChannelID == channelID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ComposedAt.Before(out[j].ComposedAt)
	})
	return out
}
