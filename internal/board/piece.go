package board

// Color identifies a side.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType is the closed set of piece kinds. The zero value None marks
// an empty square; empty squares are always the NonePiece sentinel,
// never an absent value.
type PieceType int

const (
	None PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// ParsePieceType maps a piece letter, either case, to its type.
// Returns None for anything unrecognized.
func ParsePieceType(letter byte) PieceType {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	switch letter {
	case 'K':
		return King
	case 'Q':
		return Queen
	case 'R':
		return Rook
	case 'B':
		return Bishop
	case 'N':
		return Knight
	case 'P':
		return Pawn
	}
	return None
}

// Letter returns the uppercase FEN letter for the type, or 0 for None.
func (t PieceType) Letter() byte {
	switch t {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Rook:
		return 'R'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Pawn:
		return 'P'
	}
	return 0
}

// Piece is a board square's occupant. The zero value is the empty
// sentinel. Value semantics: copying a Piece copies it fully.
type Piece struct {
	Color    Color
	Type     PieceType
	HasMoved bool
}

// NonePiece is the empty-square sentinel.
var NonePiece = Piece{}

func (p Piece) IsPiece() bool { return p.Type != None }

// FenChar returns the FEN letter, lowercase for Black. Empty squares
// yield a space.
func (p Piece) FenChar() byte {
	if p.Type == None {
		return ' '
	}
	c := p.Type.Letter()
	if p.Color == Black {
		c += 'a' - 'A'
	}
	return c
}
