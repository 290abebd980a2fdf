package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// Bus is an in-process publisher with per-game subscriptions, used by
// the WebSocket feed. Slow subscribers drop events rather than blocking
// the publishing path.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event // gameID -> subscriber set
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel of events for one game and a cancel
// function. Cancel is idempotent and closes the channel.
func (b *Bus) Subscribe(gameID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, subscriberBuffer)
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[int]chan Event)
	}
	b.subs[gameID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[gameID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(b.subs, gameID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Bus) Publish(_ context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.GameID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
