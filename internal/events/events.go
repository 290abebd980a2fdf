// Package events carries the outbound notifications the session layer
// publishes to interested listeners: status snapshots, board placement,
// turn changes, moves, history and terminal outcomes.
package events

import (
	"context"

	"github.com/nvidales/chess-server/pkg/gamedto"
)

type Kind string

const (
	KindStatus             Kind = "game_status"
	KindBoard              Kind = "board_fen"
	KindTurn               Kind = "player_turn"
	KindMove               Kind = "move_received"
	KindHistory            Kind = "moves_history"
	KindOutcome            Kind = "game_over"
	KindPlayerJoined       Kind = "player_joined"
	KindPlayerReconnected  Kind = "player_reconnected"
	KindPlayerDisconnected Kind = "player_disconnected"
	KindDrawOffer          Kind = "draw_offer"
)

// Event is one outbound notification. Only the fields relevant to the
// kind are set.
type Event struct {
	Kind   Kind   `json:"kind"`
	GameID string `json:"game_id"`

	Player   string `json:"player,omitempty"`
	Move     string `json:"move,omitempty"`
	Turn     string `json:"turn,omitempty"`
	BoardFen string `json:"board_fen,omitempty"`
	History  string `json:"history,omitempty"`
	Outcome  string `json:"outcome,omitempty"`

	Status *gamedto.GameStatus `json:"status,omitempty"`
}

// Publisher delivers events to external listeners. Implementations must
// tolerate being called from timer callbacks and must not block the
// caller for long; the session manager publishes outside its lock.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Multi fans one event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}
