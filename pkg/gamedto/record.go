package gamedto

import "time"

// CompletedGame is the persistence record written once at finalization.
type CompletedGame struct {
	GameID string `json:"game_id"`

	WhitePlayerID  int64 `json:"white_player_id"`
	WhiteEloBefore int   `json:"white_elo_before"`
	WhiteEloAfter  int   `json:"white_elo_after"`

	BlackPlayerID  int64 `json:"black_player_id"`
	BlackEloBefore int   `json:"black_elo_before"`
	BlackEloAfter  int   `json:"black_elo_after"`

	EloChange    int    `json:"elo_change"`
	TotalMoves   int    `json:"total_moves"`
	MovesHistory string `json:"moves_history"`
	Outcome      string `json:"outcome"`

	CreatedAt time.Time `json:"created_at"`
}
