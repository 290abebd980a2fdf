package game

import (
	"strings"
	"testing"

	"github.com/nvidales/chess-server/internal/board"
)

func playingGame(t *testing.T) *Game {
	t.Helper()
	g := New()
	g.ID = "test-game"
	g.WhitePlayer = NewPlayer("alice", 1, 1200, board.White)
	g.BlackPlayer = NewPlayer("bob", 2, 1200, board.Black)
	g.State = StatePlaying
	return g
}

func mustMove(t *testing.T, g *Game, move string) {
	t.Helper()
	if !g.MakeMove(move) {
		t.Fatalf("move %q rejected (state=%s turn=%s)", move, g.State, g.CurrentTurn)
	}
}

func TestMoveRejections(t *testing.T) {
	g := playingGame(t)

	for _, bad := range []string{"", "e2", "e2e", "z2e4", "e2e9"} {
		if g.MakeMove(bad) {
			t.Fatalf("malformed move %q accepted", bad)
		}
	}
	// Black piece on White's turn.
	if g.MakeMove("e7e5") {
		t.Fatalf("out-of-turn move accepted")
	}
	// Empty source square.
	if g.MakeMove("e4e5") {
		t.Fatalf("move from empty square accepted")
	}
	// Illegal geometry.
	if g.MakeMove("e2d3") {
		t.Fatalf("illegal pawn diagonal accepted")
	}

	if len(g.MovesHistory) != 0 || g.CurrentTurn != board.White {
		t.Fatalf("rejected moves must not mutate the game")
	}

	g.State = StateWaiting
	if g.MakeMove("e2e4") {
		t.Fatalf("move accepted before the game started")
	}
}

func TestFoolsMate(t *testing.T) {
	g := playingGame(t)
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		mustMove(t, g, mv)
	}

	if g.State != StateFinished {
		t.Fatalf("state = %s, want Finished", g.State)
	}
	if g.Outcome != ReasonBlackWins {
		t.Fatalf("outcome = %s, want %s", g.Outcome, ReasonBlackWins)
	}
	if got := strings.Join(g.MovesHistory, ","); got != "f2f3,e7e5,g2g4,d8h4" {
		t.Fatalf("history = %q", got)
	}
	if g.MakeMove("e2e4") {
		t.Fatalf("moves accepted after the game finished")
	}
}

func TestEnPassantCapture(t *testing.T) {
	g := playingGame(t)
	for _, mv := range []string{"e2e4", "a7a6", "e4e5", "d7d5"} {
		mustMove(t, g, mv)
	}
	mustMove(t, g, "e5d6")

	victim, _ := board.FromAlgebraic("d5")
	if g.Board.At(victim).IsPiece() {
		t.Fatalf("captured pawn still on d5")
	}
	landing, _ := board.FromAlgebraic("d6")
	if p := g.Board.At(landing); p.Type != board.Pawn || p.Color != board.White {
		t.Fatalf("d6 = %+v, want white pawn", p)
	}
	last := g.MovesHistory[len(g.MovesHistory)-1]
	if last != "e5d6 e.p." {
		t.Fatalf("history entry = %q", last)
	}
}

func TestKingsideCastle(t *testing.T) {
	g := playingGame(t)
	for _, mv := range []string{"g1f3", "g8f6", "g2g3", "g7g6", "f1g2", "f8g7"} {
		mustMove(t, g, mv)
	}
	mustMove(t, g, "e1g1")

	kingSq, _ := board.FromAlgebraic("g1")
	rookSq, _ := board.FromAlgebraic("f1")
	if p := g.Board.At(kingSq); p.Type != board.King || !p.HasMoved {
		t.Fatalf("g1 after castling = %+v, want moved king", p)
	}
	if p := g.Board.At(rookSq); p.Type != board.Rook || !p.HasMoved {
		t.Fatalf("f1 after castling = %+v, want moved rook", p)
	}
	last := g.MovesHistory[len(g.MovesHistory)-1]
	if last != "e1g1 O-O" {
		t.Fatalf("history entry = %q", last)
	}
	if g.CurrentTurn != board.Black {
		t.Fatalf("turn did not pass to black")
	}

	// Black can mirror it.
	mustMove(t, g, "e8g8")
	if g.MovesHistory[len(g.MovesHistory)-1] != "e8g8 O-O" {
		t.Fatalf("black castle entry = %q", g.MovesHistory[len(g.MovesHistory)-1])
	}
}

func TestCastleRejectedAfterKingMoved(t *testing.T) {
	g := playingGame(t)
	for _, mv := range []string{"g1f3", "g8f6", "g2g3", "g7g6", "f1g2", "f8g7", "e1f1", "a7a6", "f1e1", "a6a5"} {
		mustMove(t, g, mv)
	}
	if g.MakeMove("e1g1") {
		t.Fatalf("castle accepted after the king had moved")
	}
}

func TestPromotionFlow(t *testing.T) {
	g := playingGame(t)
	g.Board = &board.Board{}
	set := func(square string, c board.Color, pt board.PieceType) {
		coord, err := board.FromAlgebraic(square)
		if err != nil {
			t.Fatalf("bad square %q: %v", square, err)
		}
		g.Board.Set(coord, board.Piece{Color: c, Type: pt, HasMoved: true})
	}
	set("e1", board.White, board.King)
	set("h8", board.Black, board.King)
	set("a7", board.White, board.Pawn)
	set("d7", board.Black, board.Pawn)

	mustMove(t, g, "a7a8")
	if g.State != StatePromoting {
		t.Fatalf("state = %s, want Promoting", g.State)
	}
	if len(g.MovesHistory) != 0 {
		t.Fatalf("history recorded before promotion resolved")
	}
	if g.CurrentTurn != board.White {
		t.Fatalf("turn advanced before promotion resolved")
	}
	if g.MakeMove("d7d6") {
		t.Fatalf("moves accepted while a promotion is pending")
	}
	if _, ok := g.PromotePiece(board.King); ok {
		t.Fatalf("promotion to king accepted")
	}
	if _, ok := g.PromotePiece(board.Pawn); ok {
		t.Fatalf("promotion to pawn accepted")
	}

	entry, ok := g.PromotePiece(board.Queen)
	if !ok {
		t.Fatalf("queen promotion rejected")
	}
	if entry != "a7a8Q" {
		t.Fatalf("promotion entry = %q", entry)
	}
	promoted, _ := board.FromAlgebraic("a8")
	if p := g.Board.At(promoted); p.Type != board.Queen || p.Color != board.White {
		t.Fatalf("a8 = %+v, want white queen", p)
	}
	if g.CurrentTurn != board.Black {
		t.Fatalf("turn did not advance after promotion")
	}
	if g.State != StatePlaying {
		t.Fatalf("state = %s after promotion", g.State)
	}
}

func TestInsufficientMaterialEndsGame(t *testing.T) {
	g := playingGame(t)
	g.Board = &board.Board{}
	set := func(square string, c board.Color, pt board.PieceType) {
		coord, _ := board.FromAlgebraic(square)
		g.Board.Set(coord, board.Piece{Color: c, Type: pt, HasMoved: true})
	}
	set("e1", board.White, board.King)
	set("h8", board.Black, board.King)
	set("e4", board.White, board.Knight)
	set("d6", board.Black, board.Pawn)

	// The knight takes the last pawn, leaving K+N vs K.
	mustMove(t, g, "e4d6")
	if g.State != StateFinished {
		t.Fatalf("state = %s, want Finished", g.State)
	}
	if g.Outcome != ReasonInsufficientMaterial {
		t.Fatalf("outcome = %s, want %s", g.Outcome, ReasonInsufficientMaterial)
	}
}

func TestRoomPassword(t *testing.T) {
	g := New()
	if g.IsPrivate() {
		t.Fatalf("new game should be public")
	}
	if !g.CheckPassword("anything") {
		t.Fatalf("public room should accept any password")
	}

	g.SetPassword("s3cret")
	if !g.IsPrivate() {
		t.Fatalf("room should be private after SetPassword")
	}
	if g.CheckPassword("wrong") {
		t.Fatalf("wrong password accepted")
	}
	if !g.CheckPassword("s3cret") {
		t.Fatalf("correct password rejected")
	}
}
