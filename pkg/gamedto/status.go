package gamedto

// StatusVersion identifies the GameStatus payload shape for external
// listeners; bump it when fields change meaning.
const StatusVersion = 1

// GameStatus is the single outbound status payload. All status pushes
// use this structure, never ad hoc maps.
type GameStatus struct {
	Version  int    `json:"version"`
	GameID   string `json:"game_id"`
	RoomName string `json:"room_name,omitempty"`
	State    string `json:"state"`
	Outcome  string `json:"outcome"`

	White       string `json:"white,omitempty"`
	WhiteReady  bool   `json:"white_ready"`
	WhiteOnline bool   `json:"white_online"`
	WhiteElo    int    `json:"white_elo"`

	Black       string `json:"black,omitempty"`
	BlackReady  bool   `json:"black_ready"`
	BlackOnline bool   `json:"black_online"`
	BlackElo    int    `json:"black_elo"`

	CurrentTurn  string `json:"current_turn"`
	BoardFen     string `json:"board_fen"`
	MovesHistory string `json:"moves_history"`
}

// GameSummary is the lobby-listing entry for one live game.
type GameSummary struct {
	GameID      string `json:"game_id"`
	RoomName    string `json:"room_name"`
	IsPrivate   bool   `json:"is_private"`
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	White       string `json:"white"`
	Black       string `json:"black"`
}
