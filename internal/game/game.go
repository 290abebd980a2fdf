// Package game holds the per-game state machine: one board, two seats,
// turn order, special-move handling and terminal-state transitions.
// A Game is not safe for concurrent use; the session manager mutates it
// only while holding its critical section.
package game

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/nvidales/chess-server/internal/board"
	"github.com/nvidales/chess-server/internal/rules"
)

// State is the game lifecycle phase.
type State string

const (
	StateWaiting   State = "Waiting"
	StatePlaying   State = "Playing"
	StatePromoting State = "Promoting"
	StateFinished  State = "Finished"
)

// OverReason describes how a game ended. ReasonPlaying means it hasn't.
type OverReason string

const (
	ReasonPlaying              OverReason = "PLAYING"
	ReasonDraw                 OverReason = "DRAW"
	ReasonWhiteWins            OverReason = "WHITE_WINS"
	ReasonBlackWins            OverReason = "BLACK_WINS"
	ReasonWhiteResigns         OverReason = "WHITE_RESIGNS"
	ReasonBlackResigns         OverReason = "BLACK_RESIGNS"
	ReasonWhiteDisconnected    OverReason = "WHITE_DISCONNECTED"
	ReasonBlackDisconnected    OverReason = "BLACK_DISCONNECTED"
	ReasonStalemate            OverReason = "STALEMATE"
	ReasonInsufficientMaterial OverReason = "INSUFFICIENT_MATERIAL"
)

// History suffixes for compound moves. The first four characters of a
// history entry always parse as plain source/destination squares.
const (
	castleKingsideSuffix  = " O-O"
	castleQueensideSuffix = " O-O-O"
	enPassantSuffix       = " e.p."
)

type pendingPromotion struct {
	square board.Coordinate
	move   string
}

// Game aggregates one board, two optional seats and the move record.
type Game struct {
	ID       string
	RoomName string

	Board       *board.Board
	WhitePlayer *Player
	BlackPlayer *Player

	CurrentTurn board.Color
	State       State
	Outcome     OverReason

	MovesHistory []string
	LastMove     string

	CreatedAt time.Time

	// Rating bookkeeping filled in at finalization.
	EloChange      int
	WhiteEloBefore int
	WhiteEloAfter  int
	BlackEloBefore int
	BlackEloAfter  int

	passwordHash string
	promotion    *pendingPromotion
}

// New returns an empty game in Waiting with the standard position.
func New() *Game {
	return &Game{
		Board:       board.New(),
		CurrentTurn: board.White,
		State:       StateWaiting,
		Outcome:     ReasonPlaying,
		CreatedAt:   time.Now(),
	}
}

// SetPassword makes the room private. Empty passwords are ignored.
func (g *Game) SetPassword(password string) {
	if password == "" {
		return
	}
	g.passwordHash = hashPassword(password)
}

// CheckPassword reports whether the credentials open this room. Public
// rooms accept anything.
func (g *Game) CheckPassword(password string) bool {
	if !g.IsPrivate() {
		return true
	}
	return g.passwordHash == hashPassword(password)
}

func (g *Game) IsPrivate() bool { return g.passwordHash != "" }

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PlayerByColor returns the seat for the color, possibly nil.
func (g *Game) PlayerByColor(c board.Color) *Player {
	if c == board.White {
		return g.WhitePlayer
	}
	return g.BlackPlayer
}

// PlayerByNickname returns the seat occupied by nickname, or nil.
func (g *Game) PlayerByNickname(nickname string) *Player {
	if g.WhitePlayer != nil && g.WhitePlayer.Nickname == nickname {
		return g.WhitePlayer
	}
	if g.BlackPlayer != nil && g.BlackPlayer.Nickname == nickname {
		return g.BlackPlayer
	}
	return nil
}

// MakeMove applies one move in algebraic source-destination form. It
// returns false on any malformed or illegal input and mutates nothing
// in that case. On success it classifies the move (castle, promotion,
// en passant, normal), applies it, evaluates the opponent's terminal
// status and flips the turn unless a promotion is pending.
func (g *Game) MakeMove(move string) bool {
	if g.State != StatePlaying {
		return false
	}
	if len(move) < 4 {
		return false
	}
	src, err := board.FromAlgebraic(move[0:2])
	if err != nil {
		return false
	}
	dst, err := board.FromAlgebraic(move[2:4])
	if err != nil {
		return false
	}

	piece := g.Board.At(src)
	if !piece.IsPiece() || piece.Color != g.CurrentTurn {
		return false
	}

	// Castle: the king moves two files; the validator treats the king as
	// a one-step piece, so the compound move is resolved here.
	if piece.Type == board.King && src.Y == dst.Y && absInt(dst.X-src.X) == 2 {
		return g.makeCastleMove(move, src, dst)
	}

	if !rules.IsMoveValid(g.Board, src, dst, g.LastMove) {
		return false
	}

	enPassant := rules.IsEnPassant(g.Board, src, dst, g.LastMove)

	// Pawn reaching the last rank: apply the relocation only and defer
	// history and turn advance until the promotion piece is chosen.
	if piece.Type == board.Pawn && (dst.Y == 0 || dst.Y == 7) {
		g.Board.Apply(src, dst)
		g.promotion = &pendingPromotion{square: dst, move: move[0:4]}
		g.State = StatePromoting
		return true
	}

	g.Board.Apply(src, dst)
	entry := move[0:4]
	if enPassant {
		g.Board.Set(board.Coordinate{X: dst.X, Y: src.Y}, board.NonePiece)
		entry += enPassantSuffix
	}
	g.MovesHistory = append(g.MovesHistory, entry)
	g.LastMove = move[0:4]
	g.concludeTurn()
	return true
}

func (g *Game) makeCastleMove(move string, src, dst board.Coordinate) bool {
	if !rules.CanCastle(g.Board, src, dst) {
		return false
	}
	g.Board.Apply(src, dst)
	rookSrc, rookDst := rules.CastleRookMove(src, dst)
	g.Board.Apply(rookSrc, rookDst)

	entry := move[0:4] + castleQueensideSuffix
	if dst.X > src.X {
		entry = move[0:4] + castleKingsideSuffix
	}
	g.MovesHistory = append(g.MovesHistory, entry)
	g.LastMove = move[0:4]
	g.concludeTurn()
	return true
}

// PromotePiece resolves a pending promotion with the chosen piece type.
// It returns the completed history entry and whether it was accepted.
func (g *Game) PromotePiece(t board.PieceType) (string, bool) {
	if g.State != StatePromoting || g.promotion == nil {
		return "", false
	}
	switch t {
	case board.Queen, board.Rook, board.Bishop, board.Knight:
	default:
		return "", false
	}

	pawn := g.Board.At(g.promotion.square)
	g.Board.Set(g.promotion.square, board.Piece{Color: pawn.Color, Type: t, HasMoved: true})

	entry := g.promotion.move + string(t.Letter())
	g.MovesHistory = append(g.MovesHistory, entry)
	g.LastMove = g.promotion.move
	g.promotion = nil
	g.State = StatePlaying
	g.concludeTurn()
	return entry, true
}

// concludeTurn evaluates the opponent's position after a completed move,
// transitions to Finished on checkmate, stalemate or material draw, and
// flips the turn.
func (g *Game) concludeTurn() {
	opponent := g.CurrentTurn.Opposite()

	noMoves := rules.HasNoLegalMoves(g.Board, opponent, g.LastMove)
	exposed := rules.IsKingExposed(g.Board, opponent)

	switch {
	case noMoves && exposed:
		if opponent == board.Black {
			g.Outcome = ReasonWhiteWins
		} else {
			g.Outcome = ReasonBlackWins
		}
		g.State = StateFinished
	case noMoves:
		g.Outcome = ReasonStalemate
		g.State = StateFinished
	case rules.HasInsufficientMaterial(g.Board):
		g.Outcome = ReasonInsufficientMaterial
		g.State = StateFinished
	}

	g.CurrentTurn = opponent
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
