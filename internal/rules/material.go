package rules

import "github.com/nvidales/chess-server/internal/board"

// HasInsufficientMaterial reports whether no sequence of legal moves can
// force checkmate. True only for king vs king, king vs king plus one
// minor piece, or a single bishop each on same-colored squares. Any
// pawn, rook or queen on the board disqualifies the draw immediately.
func HasInsufficientMaterial(b *board.Board) bool {
	type minor struct {
		piece board.Piece
		at    board.Coordinate
	}
	var minors []minor

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := b.Squares[y][x]
			switch p.Type {
			case board.None, board.King:
			case board.Pawn, board.Rook, board.Queen:
				return false
			default:
				minors = append(minors, minor{piece: p, at: board.Coordinate{X: x, Y: y}})
			}
		}
	}

	switch len(minors) {
	case 0, 1:
		return true
	case 2:
		a, c := minors[0], minors[1]
		if a.piece.Color == c.piece.Color {
			return false
		}
		if a.piece.Type != board.Bishop || c.piece.Type != board.Bishop {
			return false
		}
		// Same-colored squares: neither bishop can ever attack the other's
		// diagonals, so no mating net exists.
		return squareShade(a.at) == squareShade(c.at)
	}
	return false
}

func squareShade(c board.Coordinate) int {
	return (c.X + c.Y) % 2
}
