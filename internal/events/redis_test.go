package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisPublisher(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	pub, err := NewRedisPublisher("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisPublisher: %v", err)
	}
	defer pub.Close()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(ctx, Channel("game-1"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub.Publish(ctx, Event{Kind: KindOutcome, GameID: "game-1", Outcome: "WHITE_WINS"})

	select {
	case msg := <-sub.Channel():
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("payload %q: %v", msg.Payload, err)
		}
		if ev.Kind != KindOutcome || ev.GameID != "game-1" || ev.Outcome != "WHITE_WINS" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message on %s", Channel("game-1"))
	}
}

func TestRedisPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewRedisPublisher("http://localhost:6379"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
