package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/board"
	"github.com/nvidales/chess-server/internal/elo"
	"github.com/nvidales/chess-server/internal/events"
	"github.com/nvidales/chess-server/internal/game"
	"github.com/nvidales/chess-server/internal/obslog"
	"github.com/nvidales/chess-server/internal/store"
	"github.com/nvidales/chess-server/pkg/gamedto"
)

const persistTimeout = 5 * time.Second

// TryMakeMove applies one move on behalf of a seated player. The board
// is only touched when the mover owns the current turn and the move is
// legal; any rejection leaves the game untouched.
func (m *Manager) TryMakeMove(gameID, nickname, move string) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	if g.State != game.StatePlaying {
		m.mu.Unlock()
		return ErrWrongState
	}
	if seat.Color != g.CurrentTurn {
		m.mu.Unlock()
		return ErrNotYourTurn
	}
	if !g.MakeMove(move) {
		m.mu.Unlock()
		return ErrIllegalMove
	}

	// A completed move retracts any standing draw offer.
	delete(m.drawOffers, gameID)

	var fin *finishResult
	if g.State == game.StateFinished {
		fin = m.finalizeLocked(g)
	}
	botNext := fin == nil && g.State == game.StatePlaying && m.botToMoveLocked(g)
	turn := g.CurrentTurn.String()
	fen := g.Board.FenPlacement()
	history := strings.Join(g.MovesHistory, ",")
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("move_made",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname),
		zap.String("move", move))
	m.publish(events.Event{Kind: events.KindMove, GameID: gameID, Player: nickname, Move: move})
	m.publish(events.Event{Kind: events.KindBoard, GameID: gameID, BoardFen: fen})
	m.publish(events.Event{Kind: events.KindHistory, GameID: gameID, History: history})
	m.publish(events.Event{Kind: events.KindStatus, GameID: gameID, Status: status})
	if fin != nil {
		m.afterFinish(gameID, fin)
		return nil
	}
	m.publish(events.Event{Kind: events.KindTurn, GameID: gameID, Turn: turn})
	if botNext {
		go m.runBotMove(gameID)
	}
	return nil
}

// TryPromotePiece resolves a pending promotion. Only the player whose
// pawn reached the last rank may choose, and only to Q, R, B or N.
func (m *Manager) TryPromotePiece(gameID, nickname string, letter byte) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	if g.State != game.StatePromoting {
		m.mu.Unlock()
		return ErrNotPromoting
	}
	if seat.Color != g.CurrentTurn {
		m.mu.Unlock()
		return ErrNotYourTurn
	}
	entry, ok := g.PromotePiece(board.ParsePieceType(letter))
	if !ok {
		m.mu.Unlock()
		return ErrIllegalMove
	}

	var fin *finishResult
	if g.State == game.StateFinished {
		fin = m.finalizeLocked(g)
	}
	botNext := fin == nil && g.State == game.StatePlaying && m.botToMoveLocked(g)
	turn := g.CurrentTurn.String()
	fen := g.Board.FenPlacement()
	history := strings.Join(g.MovesHistory, ",")
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("piece_promoted",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname),
		zap.String("entry", entry))
	m.publish(events.Event{Kind: events.KindMove, GameID: gameID, Player: nickname, Move: entry})
	m.publish(events.Event{Kind: events.KindBoard, GameID: gameID, BoardFen: fen})
	m.publish(events.Event{Kind: events.KindHistory, GameID: gameID, History: history})
	m.publish(events.Event{Kind: events.KindStatus, GameID: gameID, Status: status})
	if fin != nil {
		m.afterFinish(gameID, fin)
		return nil
	}
	m.publish(events.Event{Kind: events.KindTurn, GameID: gameID, Turn: turn})
	if botNext {
		go m.runBotMove(gameID)
	}
	return nil
}

// Resign ends the game in the opponent's favor.
func (m *Manager) Resign(gameID, nickname string) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	if g.State != game.StatePlaying && g.State != game.StatePromoting {
		m.mu.Unlock()
		return ErrWrongState
	}

	if seat.Color == board.White {
		g.Outcome = game.ReasonWhiteResigns
	} else {
		g.Outcome = game.ReasonBlackResigns
	}
	g.State = game.StateFinished
	fin := m.finalizeLocked(g)
	m.mu.Unlock()

	obslog.L().Info("player_resigned",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname))
	m.afterFinish(gameID, fin)
	return nil
}

// OfferDraw records a standing draw offer and relays it to the room.
// A newer offer replaces an older one.
func (m *Manager) OfferDraw(gameID, nickname string) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	if g.State != game.StatePlaying && g.State != game.StatePromoting {
		m.mu.Unlock()
		return ErrWrongState
	}
	m.drawOffers[gameID] = seat.Color
	m.mu.Unlock()

	m.publish(events.Event{Kind: events.KindDrawOffer, GameID: gameID, Player: nickname})
	return nil
}

// AcceptDraw ends the game as a draw. Only the opponent of the offering
// player may accept, and only while the offer stands.
func (m *Manager) AcceptDraw(gameID, nickname string) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	offeredBy, pending := m.drawOffers[gameID]
	if !pending || offeredBy == seat.Color {
		m.mu.Unlock()
		return ErrNoDrawOffer
	}

	g.Outcome = game.ReasonDraw
	g.State = game.StateFinished
	fin := m.finalizeLocked(g)
	m.mu.Unlock()

	obslog.L().Info("draw_agreed", zap.String("game_id", gameID))
	m.afterFinish(gameID, fin)
	return nil
}

// DeclineDraw clears a standing offer.
func (m *Manager) DeclineDraw(gameID, nickname string) error {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil {
		m.mu.Unlock()
		return ErrNotInGame
	}
	offeredBy, pending := m.drawOffers[gameID]
	if !pending || offeredBy == seat.Color {
		m.mu.Unlock()
		return ErrNoDrawOffer
	}
	delete(m.drawOffers, gameID)
	m.mu.Unlock()
	return nil
}

type finishResult struct {
	status  *gamedto.GameStatus
	outcome game.OverReason
	record  *gamedto.CompletedGame

	whiteID, blackID         int64
	whiteRating, blackRating int
	whiteBot, blackBot       bool
}

// finalizeLocked settles a finished game: ratings are computed and
// applied to the seats, the game moves from the live map to the
// archive, its timers are cancelled and archive retention is scheduled.
// The returned result carries everything afterFinish needs so no game
// state is read outside the lock.
func (m *Manager) finalizeLocked(g *game.Game) *finishResult {
	delete(m.games, g.ID)
	delete(m.drawOffers, g.ID)
	m.archived[g.ID] = g
	m.cancelBotTimerLocked(g.ID)
	if g.WhitePlayer != nil {
		m.cancelReconnTimerLocked(g.ID, g.WhitePlayer.Nickname)
	}
	if g.BlackPlayer != nil {
		m.cancelReconnTimerLocked(g.ID, g.BlackPlayer.Nickname)
	}
	m.scheduleCleanTimerLocked(g.ID)

	fin := &finishResult{outcome: g.Outcome}
	white, black := g.WhitePlayer, g.BlackPlayer
	if white != nil && black != nil {
		floor := m.cfg.Gameplay.MinimumElo
		delta := elo.Delta(white.Elo, black.Elo, whiteScore(g.Outcome), m.cfg.Gameplay.KFactor)
		g.EloChange = delta
		g.WhiteEloBefore, g.BlackEloBefore = white.Elo, black.Elo
		g.WhiteEloAfter = elo.Clamp(white.Elo+delta, floor)
		g.BlackEloAfter = elo.Clamp(black.Elo-delta, floor)
		white.Elo, black.Elo = g.WhiteEloAfter, g.BlackEloAfter

		fin.whiteID, fin.blackID = white.ID, black.ID
		fin.whiteRating, fin.blackRating = white.Elo, black.Elo
		fin.whiteBot, fin.blackBot = white.IsBot, black.IsBot
		fin.record = &gamedto.CompletedGame{
			GameID:         g.ID,
			WhitePlayerID:  white.ID,
			WhiteEloBefore: g.WhiteEloBefore,
			WhiteEloAfter:  g.WhiteEloAfter,
			BlackPlayerID:  black.ID,
			BlackEloBefore: g.BlackEloBefore,
			BlackEloAfter:  g.BlackEloAfter,
			EloChange:      g.EloChange,
			TotalMoves:     len(g.MovesHistory),
			MovesHistory:   strings.Join(g.MovesHistory, ","),
			Outcome:        string(g.Outcome),
			CreatedAt:      g.CreatedAt,
		}
	}
	fin.status = m.statusLocked(g)
	return fin
}

// afterFinish runs the unlocked half of finalization: notifications
// first, then persistence. Storage errors are logged and swallowed; the
// in-memory result of the game is already settled.
func (m *Manager) afterFinish(gameID string, fin *finishResult) {
	m.publish(events.Event{Kind: events.KindOutcome, GameID: gameID, Outcome: string(fin.outcome)})
	m.publish(events.Event{Kind: events.KindStatus, GameID: gameID, Status: fin.status})

	obslog.L().Info("game_finished",
		zap.String("game_id", gameID),
		zap.String("outcome", string(fin.outcome)))

	if m.store == nil || fin.record == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := m.store.SaveCompletedGame(ctx, fin.record); err != nil {
		if errors.Is(err, store.ErrDuplicateGame) {
			return
		}
		obslog.L().Error("completed_game_save_error",
			zap.String("game_id", gameID),
			zap.Error(err))
	}
	if !fin.whiteBot && fin.whiteID > 0 {
		m.persistRating(ctx, fin.whiteID, fin.whiteRating)
	}
	if !fin.blackBot && fin.blackID > 0 {
		m.persistRating(ctx, fin.blackID, fin.blackRating)
	}
}

func (m *Manager) persistRating(ctx context.Context, playerID int64, rating int) {
	if err := m.store.UpdateRating(ctx, playerID, rating); err != nil {
		obslog.L().Error("rating_update_error",
			zap.Int64("player_id", playerID),
			zap.Int("rating", rating),
			zap.Error(err))
	}
}

// whiteScore maps a terminal outcome to White's score for the rating
// formula.
func whiteScore(outcome game.OverReason) float64 {
	switch outcome {
	case game.ReasonBlackWins, game.ReasonWhiteResigns, game.ReasonWhiteDisconnected:
		return 0.0
	case game.ReasonDraw, game.ReasonStalemate, game.ReasonInsufficientMaterial:
		return 0.5
	default:
		return 1.0
	}
}
