package session

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/game"
	"github.com/nvidales/chess-server/internal/obslog"
)

const suggestTimeout = 10 * time.Second

// runBotMove plays one move for the automated seat. It retries with
// fresh suggestions when the service proposes an illegal move; if every
// attempt fails the bot skips the turn and waits for the next trigger.
// Moves go through the same validation path as human moves; a
// suggestion is never trusted.
func (m *Manager) runBotMove(gameID string) {
	retries := m.cfg.Gameplay.BotMaxRetries
	if retries <= 0 {
		retries = 1
	}

	var botName string
	for attempt := 1; attempt <= retries; attempt++ {
		time.Sleep(m.cfg.Gameplay.BotMoveDelay())

		m.mu.Lock()
		g, ok := m.games[gameID]
		if !ok || m.closed || g.State != game.StatePlaying {
			m.mu.Unlock()
			return
		}
		seat := g.PlayerByColor(g.CurrentTurn)
		if seat == nil || !seat.IsBot {
			m.mu.Unlock()
			return
		}
		botName = seat.Nickname
		fen := g.Board.FenPlacement()
		history := strings.Join(g.MovesHistory, ",")
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		suggestion, err := m.suggester.SuggestMove(ctx, fen, history)
		cancel()
		if err != nil {
			obslog.L().Warn("bot_suggestion_error",
				zap.String("game_id", gameID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		var promotion byte
		if len(suggestion) == 5 {
			promotion = suggestion[4]
			if promotion >= 'a' {
				promotion -= 'a' - 'A'
			}
			suggestion = suggestion[:4]
		}

		if err := m.TryMakeMove(gameID, botName, suggestion); err != nil {
			obslog.L().Warn("bot_move_rejected",
				zap.String("game_id", gameID),
				zap.String("move", suggestion),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		// The engine may or may not name the promotion piece; default
		// to a queen when it doesn't.
		m.mu.Lock()
		pending := false
		if g, ok := m.games[gameID]; ok {
			pending = g.State == game.StatePromoting
		}
		m.mu.Unlock()
		if pending {
			if promotion == 0 {
				promotion = 'Q'
			}
			if err := m.TryPromotePiece(gameID, botName, promotion); err != nil {
				m.TryPromotePiece(gameID, botName, 'Q')
			}
		}
		return
	}

	obslog.L().Warn("bot_out_of_retries",
		zap.String("game_id", gameID),
		zap.String("nickname", botName))
}
