package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a 64-bit set of squares, bit 0 = a1 through bit 63 = h8
// (little-endian rank-file order). Move generation, attack tables and the
// evaluator all work on these sets.
type Bitboard uint64

// FileMask[f] selects every square on file f (0 = a-file).
var FileMask = [8]Bitboard{
	0x0101010101010101, 0x0202020202020202, 0x0404040404040404, 0x0808080808080808,
	0x1010101010101010, 0x2020202020202020, 0x4040404040404040, 0x8080808080808080,
}

// RankMask[r] selects every square on rank r (0 = rank 1).
var RankMask = [8]Bitboard{
	0x00000000000000FF, 0x000000000000FF00, 0x0000000000FF0000, 0x00000000FF000000,
	0x000000FF00000000, 0x0000FF0000000000, 0x00FF000000000000, 0xFF00000000000000,
}

// SquareBB returns the bitboard with only sq set.
func SquareBB(sq Square) Bitboard {
	return Bitboard(1) << sq
}

// PopCount returns the number of set squares.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest set square. Undefined on the empty set; callers
// loop on b != 0.
func (b Bitboard) LSB() Square {
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// Single-step shifts. The file masks keep pieces from wrapping between
// the a- and h-files; north and south shifts fall off the board on their
// own.

func (b Bitboard) North() Bitboard { return b << 8 }
func (b Bitboard) South() Bitboard { return b >> 8 }

func (b Bitboard) East() Bitboard { return (b &^ FileMask[7]) << 1 }
func (b Bitboard) West() Bitboard { return (b &^ FileMask[0]) >> 1 }

func (b Bitboard) NorthEast() Bitboard { return (b &^ FileMask[7]) << 9 }
func (b Bitboard) NorthWest() Bitboard { return (b &^ FileMask[0]) << 7 }
func (b Bitboard) SouthEast() Bitboard { return (b &^ FileMask[7]) >> 7 }
func (b Bitboard) SouthWest() Bitboard { return (b &^ FileMask[0]) >> 9 }

// String draws the set as an 8x8 diagram, rank 8 on top. Debugging aid.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			if b&SquareBB(NewSquare(file, rank)) != 0 {
				sb.WriteString("X ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
