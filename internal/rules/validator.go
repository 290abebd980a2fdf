// Package rules implements move legality as pure functions over a board
// snapshot. Legality is a two-phase check: the piece's movement geometry
// first, then a simulation on a board clone verifying the mover's own
// king is not left attacked. A move is legal iff both phases pass.
package rules

import (
	"github.com/nvidales/chess-server/internal/board"
)

// IsMoveValid reports whether moving src->dst is fully legal for the
// piece on src. lastMove is the previous move in algebraic form and is
// only consulted for en passant. Castling is a compound move resolved
// one level up; here a king may only step to an adjacent square.
func IsMoveValid(b *board.Board, src, dst board.Coordinate, lastMove string) bool {
	if !src.InBounds() || !dst.InBounds() {
		return false
	}
	if src == dst {
		return false
	}

	piece := b.At(src)
	if !piece.IsPiece() {
		return false
	}
	target := b.At(dst)
	if target.IsPiece() && target.Color == piece.Color {
		return false
	}

	enPassant := false
	var geometryOK bool
	switch piece.Type {
	case board.Pawn:
		geometryOK = pawnMoveValid(b, src, dst)
		if !geometryOK && IsEnPassant(b, src, dst, lastMove) {
			geometryOK = true
			enPassant = true
		}
	case board.Knight:
		geometryOK = knightMoveValid(src, dst)
	case board.Bishop:
		geometryOK = bishopMoveValid(b, src, dst)
	case board.Rook:
		geometryOK = rookMoveValid(b, src, dst)
	case board.Queen:
		geometryOK = queenMoveValid(b, src, dst)
	case board.King:
		geometryOK = kingMoveValid(src, dst)
	default:
		geometryOK = false
	}
	if !geometryOK {
		return false
	}

	// King-safety simulation on an independent snapshot.
	sim := b.Clone()
	sim.Apply(src, dst)
	if enPassant {
		sim.Set(board.Coordinate{X: dst.X, Y: src.Y}, board.NonePiece)
	}
	return !IsKingExposed(sim, piece.Color)
}

// IsSquareUnderAttack reports whether any piece of attackingColor has a
// geometrically legal move onto the square. King safety is deliberately
// not filtered here: a pinned piece still gives check.
func IsSquareUnderAttack(b *board.Board, square board.Coordinate, attackingColor board.Color) bool {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src := board.Coordinate{X: x, Y: y}
			attacker := b.At(src)
			if attacker.IsPiece() && attacker.Color == attackingColor {
				if attackGeometryValid(b, src, square) {
					return true
				}
			}
		}
	}
	return false
}

// IsKingExposed locates color's king and reports whether it is attacked
// by the opposite color.
func IsKingExposed(b *board.Board, color board.Color) bool {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := b.Squares[y][x]
			if p.Type == board.King && p.Color == color {
				return IsSquareUnderAttack(b, board.Coordinate{X: x, Y: y}, color.Opposite())
			}
		}
	}
	return false
}

// HasNoLegalMoves reports whether color has no legal move anywhere on
// the board. Combined with IsKingExposed this distinguishes checkmate
// from stalemate. Worst case it simulates every piece against every
// destination; acceptable at human-move cadence, not for search.
func HasNoLegalMoves(b *board.Board, color board.Color, lastMove string) bool {
	for srcY := 0; srcY < 8; srcY++ {
		for srcX := 0; srcX < 8; srcX++ {
			src := board.Coordinate{X: srcX, Y: srcY}
			piece := b.At(src)
			if !piece.IsPiece() || piece.Color != color {
				continue
			}
			for dstY := 0; dstY < 8; dstY++ {
				for dstX := 0; dstX < 8; dstX++ {
					if IsMoveValid(b, src, board.Coordinate{X: dstX, Y: dstY}, lastMove) {
						return false
					}
				}
			}
		}
	}
	return true
}

// IsEnPassant reports whether src->dst is a legal en passant capture
// given that lastMove (algebraic, at least 4 chars) was the opponent's
// previous move. The capture lands on the square the enemy pawn skipped.
func IsEnPassant(b *board.Board, src, dst board.Coordinate, lastMove string) bool {
	pawn := b.At(src)
	if pawn.Type != board.Pawn {
		return false
	}
	if b.At(dst).IsPiece() {
		return false
	}

	forward := 1
	if pawn.Color == board.White {
		forward = -1
	}
	if dst.Y-src.Y != forward || abs(dst.X-src.X) != 1 {
		return false
	}

	if len(lastMove) < 4 {
		return false
	}
	lastSrc, err := board.FromAlgebraic(lastMove[0:2])
	if err != nil {
		return false
	}
	lastDst, err := board.FromAlgebraic(lastMove[2:4])
	if err != nil {
		return false
	}

	// The enemy pawn must have just double-stepped past the capture square.
	victim := b.At(lastDst)
	if victim.Type != board.Pawn || victim.Color == pawn.Color {
		return false
	}
	if abs(lastDst.Y-lastSrc.Y) != 2 || lastDst.X != lastSrc.X {
		return false
	}
	return lastDst.X == dst.X && lastDst.Y == src.Y && (lastSrc.Y+lastDst.Y)/2 == dst.Y
}

// CanCastle reports whether the king on src may castle to dst (a
// two-file king move). Both pieces must be unmoved, the path between
// king and rook empty, and the king may not castle out of, through, or
// into an attacked square.
func CanCastle(b *board.Board, src, dst board.Coordinate) bool {
	king := b.At(src)
	if king.Type != board.King || king.HasMoved {
		return false
	}
	if dst.Y != src.Y || abs(dst.X-src.X) != 2 {
		return false
	}

	rookX := 0
	if dst.X > src.X {
		rookX = 7
	}
	rook := b.At(board.Coordinate{X: rookX, Y: src.Y})
	if rook.Type != board.Rook || rook.Color != king.Color || rook.HasMoved {
		return false
	}

	step := 1
	if rookX == 0 {
		step = -1
	}
	for x := src.X + step; x != rookX; x += step {
		if b.At(board.Coordinate{X: x, Y: src.Y}).IsPiece() {
			return false
		}
	}

	enemy := king.Color.Opposite()
	for _, x := range []int{src.X, src.X + step, dst.X} {
		if IsSquareUnderAttack(b, board.Coordinate{X: x, Y: src.Y}, enemy) {
			return false
		}
	}
	return true
}

// CastleRookMove returns the rook's relocation for a castle of the king
// from src to dst.
func CastleRookMove(src, dst board.Coordinate) (rookSrc, rookDst board.Coordinate) {
	if dst.X > src.X {
		return board.Coordinate{X: 7, Y: src.Y}, board.Coordinate{X: dst.X - 1, Y: src.Y}
	}
	return board.Coordinate{X: 0, Y: src.Y}, board.Coordinate{X: dst.X + 1, Y: src.Y}
}

// ValidMoves lists every destination the piece on src may legally move
// to, castle targets included.
func ValidMoves(b *board.Board, src board.Coordinate, lastMove string) []board.Coordinate {
	var moves []board.Coordinate
	if !src.InBounds() {
		return moves
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			dst := board.Coordinate{X: x, Y: y}
			if IsMoveValid(b, src, dst, lastMove) {
				moves = append(moves, dst)
			}
		}
	}
	if b.At(src).Type == board.King {
		for _, dx := range []int{-2, 2} {
			dst := board.Coordinate{X: src.X + dx, Y: src.Y}
			if dst.InBounds() && CanCastle(b, src, dst) {
				moves = append(moves, dst)
			}
		}
	}
	return moves
}

// attackGeometryValid is the geometry-only phase used for attack scans.
// Unlike the pawn's move geometry, a pawn attacks its capture diagonals
// whether or not the square is currently occupied; a king crossing such
// a square during castling would be in check.
func attackGeometryValid(b *board.Board, src, dst board.Coordinate) bool {
	if src == dst {
		return false
	}
	piece := b.At(src)
	target := b.At(dst)
	if target.IsPiece() && target.Color == piece.Color {
		return false
	}

	switch piece.Type {
	case board.Pawn:
		forward := 1
		if piece.Color == board.White {
			forward = -1
		}
		return dst.Y-src.Y == forward && abs(dst.X-src.X) == 1
	case board.Knight:
		return knightMoveValid(src, dst)
	case board.Bishop:
		return bishopMoveValid(b, src, dst)
	case board.Rook:
		return rookMoveValid(b, src, dst)
	case board.Queen:
		return queenMoveValid(b, src, dst)
	case board.King:
		return kingMoveValid(src, dst)
	}
	return false
}

func pawnMoveValid(b *board.Board, src, dst board.Coordinate) bool {
	pawn := b.At(src)
	target := b.At(dst)

	forward := 1
	if pawn.Color == board.White {
		forward = -1
	}
	deltaY := dst.Y - src.Y
	deltaX := dst.X - src.X

	// Diagonal capture: only onto an occupied enemy square.
	if abs(deltaX) == 1 && deltaY*forward == 1 {
		return target.IsPiece() && target.Color != pawn.Color
	}

	if deltaX != 0 {
		return false
	}
	if target.IsPiece() {
		// No vertical capture.
		return false
	}
	if deltaY*forward == 2 && !pawn.HasMoved {
		between := b.At(board.Coordinate{X: src.X, Y: src.Y + forward})
		return !between.IsPiece()
	}
	return deltaY*forward == 1
}

func knightMoveValid(src, dst board.Coordinate) bool {
	dx := abs(dst.X - src.X)
	dy := abs(dst.Y - src.Y)
	return (dx == 2 && dy == 1) || (dx == 1 && dy == 2)
}

func bishopMoveValid(b *board.Board, src, dst board.Coordinate) bool {
	deltaY := dst.Y - src.Y
	deltaX := dst.X - src.X
	if abs(deltaY) != abs(deltaX) {
		return false
	}
	return pathClear(b, src, sign(deltaX), sign(deltaY), abs(deltaX))
}

func rookMoveValid(b *board.Board, src, dst board.Coordinate) bool {
	deltaY := dst.Y - src.Y
	deltaX := dst.X - src.X
	if deltaX != 0 && deltaY == 0 {
		return pathClear(b, src, sign(deltaX), 0, abs(deltaX))
	}
	if deltaX == 0 && deltaY != 0 {
		return pathClear(b, src, 0, sign(deltaY), abs(deltaY))
	}
	return false
}

func queenMoveValid(b *board.Board, src, dst board.Coordinate) bool {
	return rookMoveValid(b, src, dst) || bishopMoveValid(b, src, dst)
}

func kingMoveValid(src, dst board.Coordinate) bool {
	return abs(dst.X-src.X) <= 1 && abs(dst.Y-src.Y) <= 1
}

// pathClear scans every square strictly between src and src+dist*dir.
func pathClear(b *board.Board, src board.Coordinate, dirX, dirY, dist int) bool {
	for i := 1; i < dist; i++ {
		c := board.Coordinate{X: src.X + i*dirX, Y: src.Y + i*dirY}
		if b.At(c).IsPiece() {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
