package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agapovm/rodnya/internal/models"
)

// blockingFetcher отдает ответ только после release, имитируя
// запрос, зависший в полете
type blockingFetcher struct {
	mu      sync.Mutex
	release map[uuid.UUID]chan struct{}
	served  map[uuid.UUID]int
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{
		release: make(map[uuid.UUID]chan struct{}),
		served:  make(map[uuid.UUID]int),
	}
}

func (f *blockingFetcher) gate(channelID uuid.UUID) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.release[channelID]; !ok {
		f.release[channelID] = make(chan struct{})
	}
	return f.release[channelID]
}

func (f *blockingFetcher) FetchMessages(ctx context.Context, channelID uuid.UUID, skip, limit int) ([]models.Message, error) {
	select {
	case <-f.gate(channelID):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	f.served[channelID]++
	f.mu.Unlock()

	return []models.Message{{GroupID: channelID, Content: "m"}}, nil
}

func TestManagerDeliversActiveChannel(t *testing.T) {
	fetcher := newBlockingFetcher()
	m := NewManager(fetcher, time.Hour, 50)
	defer m.Stop()

	channel := uuid.New()
	gate := fetcher.gate(channel)

	m.SetActive(channel)
	close(gate)

	select {
	case update := <-m.Updates():
		if update.ChannelID != channel {
			t.Errorf("update for wrong channel: %s", update.ChannelID)
		}
		if len(update.Messages) != 1 {
			t.Errorf("expected 1 message, got %d", len(update.Messages))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestManagerDropsStaleResponse(t *testing.T) {
	fetcher := newBlockingFetcher()
	m := NewManager(fetcher, time.Hour, 50)
	defer m.Stop()

	first := uuid.New()
	second := uuid.New()
	firstGate := fetcher.gate(first)
	secondGate := fetcher.gate(second)

	// Запрос первого канала висит в полете, пользователь переключается
	m.SetActive(first)
	m.SetActive(second)

	// Ответ первого канала приходит уже после переключения
	close(firstGate)
	close(secondGate)

	select {
	case update := <-m.Updates():
		if update.ChannelID != second {
			t.Errorf("stale update leaked through: %s", update.ChannelID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}

	// Повторных доставок первого канала быть не должно
	select {
	case update := <-m.Updates():
		if update.ChannelID == first {
			t.Error("stale update delivered after switch")
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerSetActiveSameChannelNoop(t *testing.T) {
	fetcher := newBlockingFetcher()
	m := NewManager(fetcher, time.Hour, 50)
	defer m.Stop()

	channel := uuid.New()
	m.SetActive(channel)
	m.SetActive(channel)

	if m.Active() != channel {
		t.Errorf("active channel lost: %s", m.Active())
	}
}

func TestOutboxRetainsUntilConfirm(t *testing.T) {
	o := NewOutbox()
	channel := uuid.New()

	o.Put(channel, "k1", "первое")
	o.Put(channel, "k2", "второе")

	pending := o.Pending(channel)
	if len(pending) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(pending))
	}
	if pending[0].ClientKey != "k1" || pending[1].ClientKey != "k2" {
		t.Errorf("drafts out of compose order: %s, %s", pending[0].ClientKey, pending[1].ClientKey)
	}

	// Повторный Put тем же ключом правит текст, не плодит черновик
	o.Put(channel, "k1", "первое поправленное")
	pending = o.Pending(channel)
	if len(pending) != 2 {
		t.Fatalf("re-put duplicated a draft: %d", len(pending))
	}
	if pending[0].Content != "первое поправленное" {
		t.Errorf("re-put did not update content: %q", pending[0].Content)
	}

	o.Confirm("k1")
	pending = o.Pending(channel)
	if len(pending) != 1 || pending[0].ClientKey != "k2" {
		t.Errorf("confirm did not remove the draft: %v", pending)
	}

	// Повторное подтверждение безвредно
	o.Confirm("k1")

	// Черновики чужого канала не видны
	if got := o.Pending(uuid.New()); len(got) != 0 {
		t.Errorf("foreign channel sees drafts: %v", got)
	}
}
