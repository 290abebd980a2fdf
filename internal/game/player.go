package game

import "github.com/nvidales/chess-server/internal/board"

// Player occupies a seat. Once play has started a departing player is
// marked disconnected, never removed: the seat and its rating
// association must survive for forfeiture and rating finalization.
type Player struct {
	Nickname     string
	ID           int64
	Elo          int
	Color        board.Color
	IsReady      bool
	IsConnected  bool
	ConnectionID string
	IsBot        bool
}

func NewPlayer(nickname string, id int64, elo int, color board.Color) *Player {
	return &Player{
		Nickname:    nickname,
		ID:          id,
		Elo:         elo,
		Color:       color,
		IsConnected: true,
	}
}
