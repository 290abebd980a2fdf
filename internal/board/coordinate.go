package board

import "fmt"

// Coordinate addresses a square: X is the file (0 = a), Y is the rank
// index from the top of the board (0 = rank 8, 7 = rank 1).
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FromAlgebraic parses a square like "e4". The rank digit is inverted
// relative to display, so "a8" is (0,0) and "h1" is (7,7).
func FromAlgebraic(algebraic string) (Coordinate, error) {
	if len(algebraic) != 2 {
		return Coordinate{}, fmt.Errorf("square %q: want file letter and rank digit", algebraic)
	}
	file := algebraic[0]
	rank := algebraic[1]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Coordinate{}, fmt.Errorf("square %q out of range", algebraic)
	}
	return Coordinate{X: int(file - 'a'), Y: 8 - int(rank-'0')}, nil
}

// Algebraic renders the coordinate back to display notation.
func (c Coordinate) Algebraic() string {
	return string([]byte{byte('a' + c.X), byte('0' + (8 - c.Y))})
}

func (c Coordinate) InBounds() bool {
	return c.X >= 0 && c.X < 8 && c.Y >= 0 && c.Y < 8
}
