// Package board is the rules library underneath the search: bitboard
// position representation, legal move generation, Zobrist hashing and
// make/unmake. The search owns the clever parts; this package only has to
// be correct and allocation-free on the make/unmake path.
package board

import "fmt"

// Square indexes the board 0..63, a1 = 0, h8 = 63, files before ranks.
type Square uint8

// Named squares, one rank per row.
const (
	A1, B1, C1, D1, E1, F1, G1, H1 Square = 0, 1, 2, 3, 4, 5, 6, 7
	A2, B2, C2, D2, E2, F2, G2, H2 Square = 8, 9, 10, 11, 12, 13, 14, 15
	A3, B3, C3, D3, E3, F3, G3, H3 Square = 16, 17, 18, 19, 20, 21, 22, 23
	A4, B4, C4, D4, E4, F4, G4, H4 Square = 24, 25, 26, 27, 28, 29, 30, 31
	A5, B5, C5, D5, E5, F5, G5, H5 Square = 32, 33, 34, 35, 36, 37, 38, 39
	A6, B6, C6, D6, E6, F6, G6, H6 Square = 40, 41, 42, 43, 44, 45, 46, 47
	A7, B7, C7, D7, E7, F7, G7, H7 Square = 48, 49, 50, 51, 52, 53, 54, 55
	A8, B8, C8, D8, E8, F8, G8, H8 Square = 56, 57, 58, 59, 60, 61, 62, 63

	NoSquare Square = 64
)

// NewSquare builds a square from 0-indexed file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

// File is the 0-indexed file, 0 = a.
func (sq Square) File() int {
	return int(sq & 7)
}

// Rank is the 0-indexed rank, 0 = rank 1.
func (sq Square) Rank() int {
	return int(sq >> 3)
}

// IsValid reports whether sq names a real board square.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror flips the square to the other side's point of view (a1 <-> a8).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// RelativeRank is the rank as seen by c: 0 is c's back rank.
func (sq Square) RelativeRank(c Color) int {
	if c == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}

// String renders coordinate notation ("e4"); NoSquare renders as "-",
// which is also its FEN spelling.
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare reads coordinate notation.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("bad square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}
