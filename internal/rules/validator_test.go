package rules

import (
	"testing"

	"github.com/nvidales/chess-server/internal/board"
)

func sq(t *testing.T, algebraic string) board.Coordinate {
	t.Helper()
	c, err := board.FromAlgebraic(algebraic)
	if err != nil {
		t.Fatalf("bad square %q: %v", algebraic, err)
	}
	return c
}

func put(t *testing.T, b *board.Board, algebraic string, color board.Color, pt board.PieceType, moved bool) {
	t.Helper()
	b.Set(sq(t, algebraic), board.Piece{Color: color, Type: pt, HasMoved: moved})
}

func countLegalMoves(b *board.Board, color board.Color) int {
	n := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src := board.Coordinate{X: x, Y: y}
			if p := b.At(src); !p.IsPiece() || p.Color != color {
				continue
			}
			for dy := 0; dy < 8; dy++ {
				for dx := 0; dx < 8; dx++ {
					if IsMoveValid(b, src, board.Coordinate{X: dx, Y: dy}, "") {
						n++
					}
				}
			}
		}
	}
	return n
}

func TestOpeningMoveCount(t *testing.T) {
	b := board.New()
	if got := countLegalMoves(b, board.White); got != 20 {
		t.Fatalf("white opening moves = %d, want 20", got)
	}
	if got := countLegalMoves(b, board.Black); got != 20 {
		t.Fatalf("black opening moves = %d, want 20", got)
	}
}

func TestPawnMoves(t *testing.T) {
	b := board.New()

	if !IsMoveValid(b, sq(t, "e2"), sq(t, "e3"), "") {
		t.Fatalf("e2e3 should be legal")
	}
	if !IsMoveValid(b, sq(t, "e2"), sq(t, "e4"), "") {
		t.Fatalf("e2e4 should be legal")
	}
	if IsMoveValid(b, sq(t, "e2"), sq(t, "e5"), "") {
		t.Fatalf("e2e5 should be illegal")
	}
	if IsMoveValid(b, sq(t, "e2"), sq(t, "d3"), "") {
		t.Fatalf("diagonal onto empty square should be illegal")
	}

	// A blocked pawn has no forward move, single or double.
	b.Set(sq(t, "e3"), board.Piece{Color: board.Black, Type: board.Knight})
	if IsMoveValid(b, sq(t, "e2"), sq(t, "e3"), "") {
		t.Fatalf("forward capture should be illegal")
	}
	if IsMoveValid(b, sq(t, "e2"), sq(t, "e4"), "") {
		t.Fatalf("double step over a blocker should be illegal")
	}
	if !IsMoveValid(b, sq(t, "d2"), sq(t, "e3"), "") {
		t.Fatalf("diagonal capture should be legal")
	}
}

func TestKnightJumps(t *testing.T) {
	b := board.New()
	if !IsMoveValid(b, sq(t, "g1"), sq(t, "f3"), "") {
		t.Fatalf("g1f3 should be legal")
	}
	if !IsMoveValid(b, sq(t, "g1"), sq(t, "h3"), "") {
		t.Fatalf("g1h3 should be legal")
	}
	if IsMoveValid(b, sq(t, "g1"), sq(t, "g3"), "") {
		t.Fatalf("g1g3 should be illegal")
	}
	if IsMoveValid(b, sq(t, "g1"), sq(t, "e2"), "") {
		t.Fatalf("capturing own pawn should be illegal")
	}
}

func TestPinnedPieceCannotLeaveTheFile(t *testing.T) {
	b := &board.Board{}
	put(t, b, "e1", board.White, board.King, false)
	put(t, b, "e2", board.White, board.Rook, true)
	put(t, b, "e8", board.Black, board.Rook, true)
	put(t, b, "a8", board.Black, board.King, true)

	if IsMoveValid(b, sq(t, "e2"), sq(t, "d2"), "") {
		t.Fatalf("pinned rook left the file")
	}
	if !IsMoveValid(b, sq(t, "e2"), sq(t, "e5"), "") {
		t.Fatalf("pinned rook should still slide along the pin")
	}
	if !IsMoveValid(b, sq(t, "e2"), sq(t, "e8"), "") {
		t.Fatalf("pinned rook should capture the pinning rook")
	}
}

func TestPawnAttacksEmptyDiagonal(t *testing.T) {
	b := &board.Board{}
	put(t, b, "d4", board.Black, board.Pawn, true)

	if !IsSquareUnderAttack(b, sq(t, "c3"), board.Black) {
		t.Fatalf("c3 should be attacked by the d4 pawn")
	}
	if !IsSquareUnderAttack(b, sq(t, "e3"), board.Black) {
		t.Fatalf("e3 should be attacked by the d4 pawn")
	}
	if IsSquareUnderAttack(b, sq(t, "d3"), board.Black) {
		t.Fatalf("d3 is not a pawn attack square")
	}
}

func TestEnPassant(t *testing.T) {
	b := &board.Board{}
	put(t, b, "e5", board.White, board.Pawn, true)
	put(t, b, "d5", board.Black, board.Pawn, true)
	put(t, b, "e1", board.White, board.King, false)
	put(t, b, "e8", board.Black, board.King, false)

	if !IsEnPassant(b, sq(t, "e5"), sq(t, "d6"), "d7d5") {
		t.Fatalf("e5d6 after d7d5 should be en passant")
	}
	if !IsMoveValid(b, sq(t, "e5"), sq(t, "d6"), "d7d5") {
		t.Fatalf("en passant capture should be legal")
	}
	if IsEnPassant(b, sq(t, "e5"), sq(t, "d6"), "d6d5") {
		t.Fatalf("single-step pawn move must not enable en passant")
	}
	if IsEnPassant(b, sq(t, "e5"), sq(t, "f6"), "d7d5") {
		t.Fatalf("wrong file must not enable en passant")
	}
	if IsEnPassant(b, sq(t, "e5"), sq(t, "d6"), "") {
		t.Fatalf("no previous move must not enable en passant")
	}
}

func castleBoard(t *testing.T) *board.Board {
	t.Helper()
	b := &board.Board{}
	put(t, b, "e1", board.White, board.King, false)
	put(t, b, "h1", board.White, board.Rook, false)
	put(t, b, "a1", board.White, board.Rook, false)
	put(t, b, "e8", board.Black, board.King, false)
	return b
}

func TestCastling(t *testing.T) {
	b := castleBoard(t)
	if !CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("kingside castle should be allowed")
	}
	if !CanCastle(b, sq(t, "e1"), sq(t, "c1")) {
		t.Fatalf("queenside castle should be allowed")
	}

	rookSrc, rookDst := CastleRookMove(sq(t, "e1"), sq(t, "g1"))
	if rookSrc != sq(t, "h1") || rookDst != sq(t, "f1") {
		t.Fatalf("kingside rook relocation = %v -> %v", rookSrc, rookDst)
	}
	rookSrc, rookDst = CastleRookMove(sq(t, "e1"), sq(t, "c1"))
	if rookSrc != sq(t, "a1") || rookDst != sq(t, "d1") {
		t.Fatalf("queenside rook relocation = %v -> %v", rookSrc, rookDst)
	}
}

func TestCastlingRejections(t *testing.T) {
	b := castleBoard(t)
	put(t, b, "g1", board.White, board.Knight, false)
	if CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("castle through an occupied path should be rejected")
	}

	b = castleBoard(t)
	put(t, b, "f8", board.Black, board.Rook, true)
	if CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("castle through an attacked square should be rejected")
	}
	if !CanCastle(b, sq(t, "e1"), sq(t, "c1")) {
		t.Fatalf("queenside should be unaffected by an attack on f1")
	}

	b = castleBoard(t)
	put(t, b, "e1", board.White, board.King, true)
	if CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("moved king must not castle")
	}

	b = castleBoard(t)
	put(t, b, "h1", board.White, board.Rook, true)
	if CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("moved rook must not castle")
	}

	b = castleBoard(t)
	put(t, b, "e8", board.Black, board.Rook, true)
	put(t, b, "a8", board.Black, board.King, true)
	if CanCastle(b, sq(t, "e1"), sq(t, "g1")) {
		t.Fatalf("castle out of check should be rejected")
	}
}

func TestBackRankMate(t *testing.T) {
	b := &board.Board{}
	put(t, b, "g8", board.Black, board.King, true)
	put(t, b, "f7", board.Black, board.Pawn, false)
	put(t, b, "g7", board.Black, board.Pawn, false)
	put(t, b, "h7", board.Black, board.Pawn, false)
	put(t, b, "b8", board.White, board.Rook, true)
	put(t, b, "a1", board.White, board.King, true)

	if !IsKingExposed(b, board.Black) {
		t.Fatalf("black king should be in check")
	}
	if !HasNoLegalMoves(b, board.Black, "") {
		t.Fatalf("black should have no legal moves")
	}
	if HasNoLegalMoves(b, board.White, "") {
		t.Fatalf("white should still have moves")
	}
}

func TestStalemate(t *testing.T) {
	b := &board.Board{}
	put(t, b, "a8", board.Black, board.King, true)
	put(t, b, "b6", board.White, board.Queen, true)
	put(t, b, "h1", board.White, board.King, true)

	if IsKingExposed(b, board.Black) {
		t.Fatalf("black king should not be in check")
	}
	if !HasNoLegalMoves(b, board.Black, "") {
		t.Fatalf("black should be stalemated")
	}
}

func TestValidMovesListsCastleTargets(t *testing.T) {
	b := board.New()
	b.Set(sq(t, "f1"), board.NonePiece)
	b.Set(sq(t, "g1"), board.NonePiece)

	moves := ValidMoves(b, sq(t, "e1"), "")
	found := false
	for _, c := range moves {
		if c == sq(t, "g1") {
			found = true
		}
	}
	if !found {
		t.Fatalf("e1 moves %v should include g1", moves)
	}
}
