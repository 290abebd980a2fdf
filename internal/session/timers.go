package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/board"
	"github.com/nvidales/chess-server/internal/events"
	"github.com/nvidales/chess-server/internal/game"
	"github.com/nvidales/chess-server/internal/obslog"
)

// Timer callbacks fire without the lock, so every callback re-acquires
// it and re-validates the condition it was scheduled for before acting.
// A callback that lost its race is a no-op.

func reconnKey(gameID, nickname string) string { return gameID + "/" + nickname }

func (m *Manager) scheduleReconnTimerLocked(gameID, nickname string) {
	key := reconnKey(gameID, nickname)
	if t, ok := m.reconnTimers[key]; ok {
		t.Stop()
	}
	m.reconnTimers[key] = time.AfterFunc(m.cfg.Gameplay.ReconnectionTimeout(), func() {
		m.forfeitDisconnected(gameID, nickname)
	})
}

func (m *Manager) cancelReconnTimerLocked(gameID, nickname string) {
	key := reconnKey(gameID, nickname)
	if t, ok := m.reconnTimers[key]; ok {
		t.Stop()
		delete(m.reconnTimers, key)
	}
}

// forfeitDisconnected ends the game against a player whose reconnection
// window expired. The seat may have reconnected or the game may have
// ended between scheduling and firing.
func (m *Manager) forfeitDisconnected(gameID, nickname string) {
	m.mu.Lock()
	delete(m.reconnTimers, reconnKey(gameID, nickname))
	g, ok := m.games[gameID]
	if !ok || m.closed {
		m.mu.Unlock()
		return
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil || seat.IsConnected {
		m.mu.Unlock()
		return
	}
	if g.State != game.StatePlaying && g.State != game.StatePromoting {
		m.mu.Unlock()
		return
	}

	if seat.Color == board.White {
		g.Outcome = game.ReasonWhiteDisconnected
	} else {
		g.Outcome = game.ReasonBlackDisconnected
	}
	g.State = game.StateFinished
	fin := m.finalizeLocked(g)
	m.mu.Unlock()

	obslog.L().Info("game_forfeited_on_disconnect",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname),
		zap.String("outcome", string(g.Outcome)))
	m.afterFinish(gameID, fin)
}

func (m *Manager) scheduleCleanTimerLocked(gameID string) {
	if t, ok := m.cleanTimers[gameID]; ok {
		t.Stop()
	}
	m.cleanTimers[gameID] = time.AfterFunc(m.cfg.Gameplay.InactivityDeleteTimeout(), func() {
		m.dropGame(gameID)
	})
}

func (m *Manager) cancelCleanTimerLocked(gameID string) {
	if t, ok := m.cleanTimers[gameID]; ok {
		t.Stop()
		delete(m.cleanTimers, gameID)
	}
}

// dropGame removes an abandoned waiting room or an expired archive
// entry. A waiting room whose players showed activity in the meantime
// has had its timer cancelled, so only rooms nobody touched get here:
// empty ones and pre-seated rematches nobody readied in.
func (m *Manager) dropGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cleanTimers, gameID)

	if _, ok := m.archived[gameID]; ok {
		delete(m.archived, gameID)
		return
	}
	g, ok := m.games[gameID]
	if !ok {
		return
	}
	if g.State == game.StateWaiting && (!m.hasHumanLocked(g) || !m.humanReadyLocked(g)) {
		m.cancelBotTimerLocked(gameID)
		delete(m.games, gameID)
		obslog.L().Info("game_removed_inactive", zap.String("game_id", gameID))
	}
}

func (m *Manager) humanReadyLocked(g *game.Game) bool {
	if g.WhitePlayer != nil && !g.WhitePlayer.IsBot && g.WhitePlayer.IsReady {
		return true
	}
	return g.BlackPlayer != nil && !g.BlackPlayer.IsBot && g.BlackPlayer.IsReady
}

func (m *Manager) scheduleBotJoinLocked(gameID string) {
	if _, ok := m.botTimers[gameID]; ok {
		return
	}
	m.botTimers[gameID] = time.AfterFunc(m.cfg.Gameplay.BotJoinDelay(), func() {
		m.botJoin(gameID)
	})
}

func (m *Manager) cancelBotTimerLocked(gameID string) {
	if t, ok := m.botTimers[gameID]; ok {
		t.Stop()
		delete(m.botTimers, gameID)
	}
}

// botJoin seats the automated opponent if the room is still waiting on
// a second player. The bot's rating tracks the human's plus an offset,
// and the bot is born ready.
func (m *Manager) botJoin(gameID string) {
	m.mu.Lock()
	delete(m.botTimers, gameID)
	g, ok := m.games[gameID]
	if !ok || m.closed || g.State != game.StateWaiting {
		m.mu.Unlock()
		return
	}
	if g.WhitePlayer != nil && g.BlackPlayer != nil {
		m.mu.Unlock()
		return
	}
	human := g.WhitePlayer
	color := board.Black
	if human == nil {
		human = g.BlackPlayer
		color = board.White
	}
	if human == nil {
		m.mu.Unlock()
		return
	}

	bot := game.NewPlayer(m.cfg.Gameplay.BotName, 0, human.Elo+m.cfg.Gameplay.BotEloOffset, color)
	bot.IsBot = true
	bot.IsReady = true
	if color == board.White {
		g.WhitePlayer = bot
	} else {
		g.BlackPlayer = bot
	}

	started := false
	if human.IsReady {
		g.State = game.StatePlaying
		started = true
	}
	botToMove := started && m.botToMoveLocked(g)
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("bot_joined",
		zap.String("game_id", gameID),
		zap.String("nickname", bot.Nickname),
		zap.String("color", color.String()),
		zap.Int("elo", bot.Elo))
	m.publish(events.Event{Kind: events.KindPlayerJoined, GameID: gameID, Player: bot.Nickname, Status: status})
	if started {
		m.publish(events.Event{Kind: events.KindTurn, GameID: gameID, Turn: board.White.String()})
		if botToMove {
			go m.runBotMove(gameID)
		}
	}
}
