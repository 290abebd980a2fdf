package gamedto

type CreateGameRequest struct {
	RoomName string `json:"room_name,omitempty"`
	Password string `json:"password,omitempty"`
}

type JoinGameRequest struct {
	Nickname string `json:"nickname"`
	PlayerID int64  `json:"player_id"`
	Elo      int    `json:"elo"`
	Password string `json:"password,omitempty"`
}

type MoveRequest struct {
	Nickname string `json:"nickname"`
	Move     string `json:"move"`
}

type PromoteRequest struct {
	Nickname string `json:"nickname"`
	// Piece is the uppercase piece letter: Q, R, B or N.
	Piece string `json:"piece"`
}

type PlayerRequest struct {
	Nickname string `json:"nickname"`
}
