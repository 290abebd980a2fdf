package board

import "testing"

func TestFromAlgebraic(t *testing.T) {
	cases := []struct {
		in   string
		x, y int
	}{
		{"a8", 0, 0},
		{"h1", 7, 7},
		{"e2", 4, 6},
		{"d5", 3, 3},
		{"E2", 4, 6},
	}
	for _, tc := range cases {
		c, err := FromAlgebraic(tc.in)
		if err != nil {
			t.Fatalf("FromAlgebraic(%q): %v", tc.in, err)
		}
		if c.X != tc.x || c.Y != tc.y {
			t.Fatalf("FromAlgebraic(%q) = (%d,%d), want (%d,%d)", tc.in, c.X, c.Y, tc.x, tc.y)
		}
	}

	for _, bad := range []string{"", "e", "i2", "a0", "a9", "e22", "e4x", "a1 "} {
		if _, err := FromAlgebraic(bad); err == nil {
			t.Fatalf("FromAlgebraic(%q): expected error", bad)
		}
	}
}

func TestAlgebraicRoundTrip(t *testing.T) {
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			c := Coordinate{X: x, Y: y}
			back, err := FromAlgebraic(c.Algebraic())
			if err != nil {
				t.Fatalf("round trip %v: %v", c, err)
			}
			if back != c {
				t.Fatalf("round trip %v: got %v", c, back)
			}
		}
	}
}

func TestInitialPlacement(t *testing.T) {
	b := New()
	want := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	if got := b.FenPlacement(); got != want {
		t.Fatalf("FenPlacement() = %q, want %q", got, want)
	}

	king := b.At(Coordinate{X: 4, Y: 7})
	if king.Type != King || king.Color != White {
		t.Fatalf("e1 = %+v, want white king", king)
	}
	queen := b.At(Coordinate{X: 3, Y: 0})
	if queen.Type != Queen || queen.Color != Black {
		t.Fatalf("d8 = %+v, want black queen", queen)
	}
}

func TestApplyMarksMoved(t *testing.T) {
	b := New()
	src := Coordinate{X: 4, Y: 6}
	dst := Coordinate{X: 4, Y: 4}
	b.Apply(src, dst)

	if b.At(src).IsPiece() {
		t.Fatalf("source square still occupied after Apply")
	}
	moved := b.At(dst)
	if moved.Type != Pawn || !moved.HasMoved {
		t.Fatalf("destination = %+v, want moved pawn", moved)
	}
	if got := b.FenPlacement(); got != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR" {
		t.Fatalf("FenPlacement() after e2e4 = %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New()
	c := b.Clone()
	c.Apply(Coordinate{X: 4, Y: 6}, Coordinate{X: 4, Y: 4})

	if !b.At(Coordinate{X: 4, Y: 6}).IsPiece() {
		t.Fatalf("mutating the clone changed the original")
	}
	if b.FenPlacement() == c.FenPlacement() {
		t.Fatalf("clone placement should differ after a move")
	}
}

func TestParsePieceType(t *testing.T) {
	if ParsePieceType('Q') != Queen || ParsePieceType('q') != Queen {
		t.Fatalf("queen letter not recognized")
	}
	if ParsePieceType('x') != None {
		t.Fatalf("unknown letter should map to None")
	}
	if Knight.Letter() != 'N' {
		t.Fatalf("knight letter = %c", Knight.Letter())
	}
}
