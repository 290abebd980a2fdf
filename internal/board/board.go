package board

import "strings"

// Board is a pure positional snapshot: an 8x8 matrix of Piece values,
// row 0 being Black's back rank. It owns no history.
type Board struct {
	Squares [8][8]Piece
}

// New returns a board set up in the standard starting position.
func New() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// Reset places the standard starting position.
func (b *Board) Reset() {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			b.Squares[y][x] = NonePiece
		}
	}

	backRank := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for r := 0; r < 8; r += 7 {
		color := White
		pawnRank := 6
		if r == 0 {
			color = Black
			pawnRank = 1
		}
		for x, t := range backRank {
			b.Squares[r][x] = Piece{Color: color, Type: t}
		}
		for x := 0; x < 8; x++ {
			b.Squares[pawnRank][x] = Piece{Color: color, Type: Pawn}
		}
	}
}

// At returns the piece on the square.
func (b *Board) At(c Coordinate) Piece {
	return b.Squares[c.Y][c.X]
}

// Set places a piece on the square.
func (b *Board) Set(c Coordinate, p Piece) {
	b.Squares[c.Y][c.X] = p
}

// Apply relocates the piece from src to dst and marks it moved. Any
// occupant of dst is replaced.
func (b *Board) Apply(src, dst Coordinate) {
	p := b.Squares[src.Y][src.X]
	p.HasMoved = true
	b.Squares[dst.Y][dst.X] = p
	b.Squares[src.Y][src.X] = NonePiece
}

// Clone returns a fully independent copy. Squares hold piece values, so
// the array copy alone detaches the snapshot from the live board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// FenPlacement renders the piece-placement field of FEN: rank-major,
// '/'-separated, digits for runs of empty squares, uppercase for White.
func (b *Board) FenPlacement() string {
	var sb strings.Builder
	for y := 0; y < 8; y++ {
		empty := 0
		for x := 0; x < 8; x++ {
			p := b.Squares[y][x]
			if p.IsPiece() {
				if empty > 0 {
					sb.WriteByte(byte('0' + empty))
					empty = 0
				}
				sb.WriteByte(p.FenChar())
			} else {
				empty++
			}
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if y < 7 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}
