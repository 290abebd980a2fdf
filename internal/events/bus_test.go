package events

import (
	"context"
	"testing"
	"time"
)

func TestBusDeliversPerGame(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	feedA, cancelA := b.Subscribe("game-a")
	defer cancelA()
	feedB, cancelB := b.Subscribe("game-b")
	defer cancelB()

	b.Publish(ctx, Event{Kind: KindMove, GameID: "game-a", Move: "e2e4"})

	select {
	case ev := <-feedA:
		if ev.Kind != KindMove || ev.Move != "e2e4" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber A got nothing")
	}

	select {
	case ev := <-feedB:
		t.Fatalf("subscriber B leaked event %+v", ev)
	default:
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	b := NewBus()
	feed, cancel := b.Subscribe("game-a")
	cancel()
	cancel() // idempotent

	if _, open := <-feed; open {
		t.Fatalf("channel still open after cancel")
	}

	// Publishing to a game with no subscribers must not block.
	b.Publish(context.Background(), Event{Kind: KindMove, GameID: "game-a"})
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBus()
	feed, cancel := b.Subscribe("game-a")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(context.Background(), Event{Kind: KindTurn, GameID: "game-a"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
	if len(feed) != subscriberBuffer {
		t.Fatalf("buffered = %d, want %d", len(feed), subscriberBuffer)
	}
}
