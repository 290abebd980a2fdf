// Package session coordinates every live game: registration, seating,
// readiness, timers for bots and disconnections, finalization with
// rating updates, and outbound notifications. All game mutation happens
// under a single manager-wide lock; persistence and publishing run
// outside it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/board"
	"github.com/nvidales/chess-server/internal/config"
	"github.com/nvidales/chess-server/internal/events"
	"github.com/nvidales/chess-server/internal/game"
	"github.com/nvidales/chess-server/internal/obslog"
	"github.com/nvidales/chess-server/internal/store"
	"github.com/nvidales/chess-server/pkg/gamedto"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrInvalidPassword = errors.New("invalid room password")
	ErrGameFull        = errors.New("game already has two players")
	ErrNotInGame       = errors.New("player is not seated in this game")
	ErrNotYourTurn     = errors.New("not this player's turn")
	ErrIllegalMove     = errors.New("illegal move")
	ErrNotPromoting    = errors.New("no promotion pending")
	ErrNoDrawOffer     = errors.New("no draw offer pending")
	ErrWrongState      = errors.New("operation not allowed in this game state")
)

// Suggester provides moves for the automated opponent.
type Suggester interface {
	SuggestMove(ctx context.Context, fenPlacement, movesHistory string) (string, error)
}

// Manager owns every live and recently finished game. A single mutex
// guards all of them; handlers hold it only long enough to mutate state
// and snapshot what they need, then do I/O unlocked.
type Manager struct {
	mu sync.Mutex

	cfg       *config.AppConfig
	store     store.Store
	suggester Suggester
	pub       events.Publisher

	games    map[string]*game.Game
	archived map[string]*game.Game

	// Pending draw offers, by offering color.
	drawOffers map[string]board.Color

	// AfterFunc handles, cancelled and replaced as state changes.
	// Reconnection timers are keyed per seat, the rest per game.
	reconnTimers map[string]*time.Timer
	cleanTimers  map[string]*time.Timer
	botTimers    map[string]*time.Timer

	closed bool
}

func NewManager(cfg *config.AppConfig, st store.Store, suggester Suggester, pub events.Publisher) *Manager {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Manager{
		cfg:          cfg,
		store:        st,
		suggester:    suggester,
		pub:          pub,
		games:        make(map[string]*game.Game),
		archived:     make(map[string]*game.Game),
		drawOffers:   make(map[string]board.Color),
		reconnTimers: make(map[string]*time.Timer),
		cleanTimers:  make(map[string]*time.Timer),
		botTimers:    make(map[string]*time.Timer),
	}
}

// StartNewGame registers a fresh game and returns its ID. An empty
// password leaves the room public.
func (m *Manager) StartNewGame(roomName, password string) string {
	g := game.New()
	g.ID = uuid.NewString()
	g.RoomName = roomName
	g.SetPassword(password)

	m.mu.Lock()
	m.games[g.ID] = g
	m.scheduleCleanTimerLocked(g.ID)
	m.mu.Unlock()

	obslog.L().Info("game_created",
		zap.String("game_id", g.ID),
		zap.String("room", roomName),
		zap.Bool("private", g.IsPrivate()))
	return g.ID
}

// JoinGame seats a player, filling White before Black. Rejoining with a
// nickname already seated is idempotent and counts as a reconnection.
// A non-positive rating is resolved from the store before locking.
func (m *Manager) JoinGame(ctx context.Context, gameID, nickname string, playerID int64, rating int, password string) (board.Color, error) {
	if rating <= 0 {
		rating = m.resolveRating(ctx, playerID)
	}

	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return board.White, ErrGameNotFound
	}
	if !g.CheckPassword(password) {
		m.mu.Unlock()
		return board.White, ErrInvalidPassword
	}

	if seat := g.PlayerByNickname(nickname); seat != nil {
		seat.IsConnected = true
		m.cancelReconnTimerLocked(gameID, nickname)
		m.cancelCleanTimerLocked(gameID)
		color := seat.Color
		status := m.statusLocked(g)
		m.mu.Unlock()
		m.publish(events.Event{Kind: events.KindPlayerReconnected, GameID: gameID, Player: nickname, Status: status})
		return color, nil
	}

	if g.State != game.StateWaiting || (g.WhitePlayer != nil && g.BlackPlayer != nil) {
		m.mu.Unlock()
		return board.White, ErrGameFull
	}

	color := board.White
	if g.WhitePlayer != nil {
		color = board.Black
	}
	p := game.NewPlayer(nickname, playerID, rating, color)
	if color == board.White {
		g.WhitePlayer = p
	} else {
		g.BlackPlayer = p
	}

	m.cancelCleanTimerLocked(gameID)
	if g.WhitePlayer != nil && g.BlackPlayer != nil {
		m.cancelBotTimerLocked(gameID)
	} else if m.cfg.Gameplay.Bot && m.suggester != nil {
		m.scheduleBotJoinLocked(gameID)
	}
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("player_joined",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname),
		zap.String("color", color.String()),
		zap.Int("elo", rating))
	m.publish(events.Event{Kind: events.KindPlayerJoined, GameID: gameID, Player: nickname, Status: status})
	return color, nil
}

func (m *Manager) resolveRating(ctx context.Context, playerID int64) int {
	floor := m.cfg.Gameplay.MinimumElo
	if m.store == nil || playerID <= 0 {
		return floor
	}
	rating, err := m.store.LoadRating(ctx, playerID)
	if err != nil {
		if !errors.Is(err, store.ErrPlayerNotFound) {
			obslog.L().Warn("rating_load_error", zap.Int64("player_id", playerID), zap.Error(err))
		}
		return floor
	}
	if rating < floor {
		return floor
	}
	return rating
}

// SetPlayerReady toggles the seat's ready flag. When both seats are
// filled and ready the game transitions to Playing.
func (m *Manager) SetPlayerReady(gameID, nickname string) error {
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
	if g.State != game.StateWaiting {
		m.mu.Unlock()
		return ErrWrongState
	}

	seat.IsReady = !seat.IsReady
	m.cancelCleanTimerLocked(gameID)
	started := false
	if g.WhitePlayer != nil && g.BlackPlayer != nil &&
		g.WhitePlayer.IsReady && g.BlackPlayer.IsReady {
		g.State = game.StatePlaying
		started = true
	}
	botToMove := started && m.botToMoveLocked(g)
	status := m.statusLocked(g)
	m.mu.Unlock()

	m.publish(events.Event{Kind: events.KindStatus, GameID: gameID, Status: status})
	if started {
		obslog.L().Info("game_started", zap.String("game_id", gameID))
		m.publish(events.Event{Kind: events.KindTurn, GameID: gameID, Turn: board.White.String()})
		if botToMove {
			go m.runBotMove(gameID)
		}
	}
	return nil
}

// HandlePlayerDisconnection records a seat going offline. Before play
// starts the seat is simply vacated; mid-game the seat is kept and a
// forfeiture timer starts. An empty waiting room is scheduled for
// removal.
func (m *Manager) HandlePlayerDisconnection(gameID, nickname string) {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return
	}
	seat := g.PlayerByNickname(nickname)
	if seat == nil || seat.IsBot {
		m.mu.Unlock()
		return
	}

	var status *gamedto.GameStatus
	switch g.State {
	case game.StateWaiting:
		if seat.Color == board.White {
			g.WhitePlayer = nil
		} else {
			g.BlackPlayer = nil
		}
		if !m.hasHumanLocked(g) {
			m.cancelBotTimerLocked(gameID)
			m.scheduleCleanTimerLocked(gameID)
		}
		status = m.statusLocked(g)
	case game.StatePlaying, game.StatePromoting:
		seat.IsConnected = false
		m.scheduleReconnTimerLocked(gameID, nickname)
		status = m.statusLocked(g)
	default:
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	obslog.L().Info("player_disconnected",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname))
	m.publish(events.Event{Kind: events.KindPlayerDisconnected, GameID: gameID, Player: nickname, Status: status})
}

// Reconnect marks a seat online again and cancels its forfeiture timer.
func (m *Manager) Reconnect(gameID, nickname, connectionID string) error {
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
	seat.IsConnected = true
	seat.ConnectionID = connectionID
	m.cancelReconnTimerLocked(gameID, nickname)
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("player_reconnected",
		zap.String("game_id", gameID),
		zap.String("nickname", nickname))
	m.publish(events.Event{Kind: events.KindPlayerReconnected, GameID: gameID, Player: nickname, Status: status})
	return nil
}

// StartRematch builds a new game from a finished one with the seats'
// colors swapped and ratings carried over. Both players start unready.
func (m *Manager) StartRematch(finishedGameID string) (string, error) {
	m.mu.Lock()
	prev, ok := m.archived[finishedGameID]
	if !ok {
		m.mu.Unlock()
		return "", ErrGameNotFound
	}
	white, black := prev.WhitePlayer, prev.BlackPlayer
	if white == nil || black == nil {
		m.mu.Unlock()
		return "", ErrNotInGame
	}

	g := game.New()
	g.ID = uuid.NewString()
	g.RoomName = m.cfg.Gameplay.RematchRoomName
	g.SetPassword(m.cfg.Gameplay.RematchRoomPassword)

	g.WhitePlayer = game.NewPlayer(black.Nickname, black.ID, black.Elo, board.White)
	g.WhitePlayer.IsBot = black.IsBot
	g.WhitePlayer.IsReady = black.IsBot
	g.BlackPlayer = game.NewPlayer(white.Nickname, white.ID, white.Elo, board.Black)
	g.BlackPlayer.IsBot = white.IsBot
	g.BlackPlayer.IsReady = white.IsBot

	m.games[g.ID] = g
	m.scheduleCleanTimerLocked(g.ID)
	status := m.statusLocked(g)
	m.mu.Unlock()

	obslog.L().Info("rematch_created",
		zap.String("game_id", g.ID),
		zap.String("previous_game_id", finishedGameID))
	m.publish(events.Event{Kind: events.KindStatus, GameID: g.ID, Status: status})
	return g.ID, nil
}

// Close stops every outstanding timer. Games in progress are left as
// they are; nothing is forfeited on shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for key, t := range m.reconnTimers {
		t.Stop()
		delete(m.reconnTimers, key)
	}
	for key, t := range m.cleanTimers {
		t.Stop()
		delete(m.cleanTimers, key)
	}
	for key, t := range m.botTimers {
		t.Stop()
		delete(m.botTimers, key)
	}
}

func (m *Manager) hasHumanLocked(g *game.Game) bool {
	if g.WhitePlayer != nil && !g.WhitePlayer.IsBot {
		return true
	}
	return g.BlackPlayer != nil && !g.BlackPlayer.IsBot
}

func (m *Manager) botToMoveLocked(g *game.Game) bool {
	seat := g.PlayerByColor(g.CurrentTurn)
	return seat != nil && seat.IsBot && m.suggester != nil
}

func (m *Manager) publish(ev events.Event) {
	m.pub.Publish(context.Background(), ev)
}
