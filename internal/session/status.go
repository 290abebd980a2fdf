package session

import (
	"sort"
	"strings"

	"github.com/nvidales/chess-server/internal/board"
	"github.com/nvidales/chess-server/internal/game"
	"github.com/nvidales/chess-server/internal/rules"
	"github.com/nvidales/chess-server/pkg/gamedto"
)

func (m *Manager) statusLocked(g *game.Game) *gamedto.GameStatus {
	st := &gamedto.GameStatus{
		Version:      gamedto.StatusVersion,
		GameID:       g.ID,
		RoomName:     g.RoomName,
		State:        string(g.State),
		Outcome:      string(g.Outcome),
		CurrentTurn:  g.CurrentTurn.String(),
		BoardFen:     g.Board.FenPlacement(),
		MovesHistory: strings.Join(g.MovesHistory, ","),
	}
	if p := g.WhitePlayer; p != nil {
		st.White = p.Nickname
		st.WhiteReady = p.IsReady
		st.WhiteOnline = p.IsConnected
		st.WhiteElo = p.Elo
	}
	if p := g.BlackPlayer; p != nil {
		st.Black = p.Nickname
		st.BlackReady = p.IsReady
		st.BlackOnline = p.IsConnected
		st.BlackElo = p.Elo
	}
	return st
}

func (m *Manager) lookupLocked(gameID string) (*game.Game, bool) {
	if g, ok := m.games[gameID]; ok {
		return g, true
	}
	g, ok := m.archived[gameID]
	return g, ok
}

// Status returns the full snapshot for a live or archived game.
func (m *Manager) Status(gameID string) (*gamedto.GameStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookupLocked(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	return m.statusLocked(g), nil
}

// FenPlacement returns the current board placement.
func (m *Manager) FenPlacement(gameID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookupLocked(gameID)
	if !ok {
		return "", ErrGameNotFound
	}
	return g.Board.FenPlacement(), nil
}

// CurrentTurn returns the color to move.
func (m *Manager) CurrentTurn(gameID string) (board.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookupLocked(gameID)
	if !ok {
		return board.White, ErrGameNotFound
	}
	return g.CurrentTurn, nil
}

// MovesHistory returns the comma-joined move record.
func (m *Manager) MovesHistory(gameID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.lookupLocked(gameID)
	if !ok {
		return "", ErrGameNotFound
	}
	return strings.Join(g.MovesHistory, ","), nil
}

// ValidMoves lists the legal destinations from a square, castles
// included, in algebraic form.
func (m *Manager) ValidMoves(gameID, square string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	src, err := board.FromAlgebraic(square)
	if err != nil {
		return nil, err
	}
	coords := rules.ValidMoves(g.Board, src, g.LastMove)
	moves := make([]string, 0, len(coords))
	for _, c := range coords {
		moves = append(moves, c.Algebraic())
	}
	sort.Strings(moves)
	return moves, nil
}

// ActiveGames lists every live game for the lobby, newest first.
func (m *Manager) ActiveGames() []gamedto.GameSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		live = append(live, g)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })

	out := make([]gamedto.GameSummary, 0, len(live))
	for _, g := range live {
		s := gamedto.GameSummary{
			GameID:    g.ID,
			RoomName:  g.RoomName,
			IsPrivate: g.IsPrivate(),
			State:     string(g.State),
		}
		if g.WhitePlayer != nil {
			s.White = g.WhitePlayer.Nickname
			s.PlayerCount++
		}
		if g.BlackPlayer != nil {
			s.Black = g.BlackPlayer.Nickname
			s.PlayerCount++
		}
		out = append(out, s)
	}
	return out
}

// GetGame returns the live game, for callers that inspect state
// directly. Tests use it; handlers go through Status.
func (m *Manager) GetGame(gameID string) (*game.Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	return g, ok
}

// GetArchivedGame returns a finished game still in retention.
func (m *Manager) GetArchivedGame(gameID string) (*game.Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.archived[gameID]
	return g, ok
}
