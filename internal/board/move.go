package board

import "fmt"

// Move packs a half-move into sixteen bits: from in bits 0-5, to in bits
// 6-11, the promotion piece in 12-13 (knight through queen) and a kind
// tag in 14-15. The zero value doubles as NoMove, which no legal move
// collides with because a1a1 is never legal.
type Move uint16

const (
	moveKindNormal    uint16 = 0 << 14
	moveKindPromotion uint16 = 1 << 14
	moveKindEnPassant uint16 = 2 << 14
	moveKindCastling  uint16 = 3 << 14
)

// NoMove is the absent move.
const NoMove Move = 0

// NewMove builds an ordinary move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a promotion to promo (Knight..Queen).
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(moveKindPromotion)
}

// NewEnPassant builds an en passant capture landing on to.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(moveKindEnPassant)
}

// NewCastling builds a castling move described by the king's hop.
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(moveKindCastling)
}

// From is the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To is the destination square.
func (m Move) To() Square {
	return Square(m >> 6 & 0x3F)
}

func (m Move) kind() uint16 {
	return uint16(m) & 0xC000
}

// Promotion is the piece promoted to; meaningful only when IsPromotion.
func (m Move) Promotion() PieceType {
	return PieceType(m>>12&3) + Knight
}

// IsPromotion reports a promotion move.
func (m Move) IsPromotion() bool {
	return m.kind() == moveKindPromotion
}

// IsCastling reports a castling move.
func (m Move) IsCastling() bool {
	return m.kind() == moveKindCastling
}

// IsEnPassant reports an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.kind() == moveKindEnPassant
}

// IsCapture reports whether m takes a piece in pos. The position is
// needed: the move encoding itself does not know what stands on the
// destination.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || !pos.IsEmpty(m.To())
}

// IsQuiet reports a non-capture, non-promotion move.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

const promoChars = "nbrq"

// String is UCI long algebraic notation ("e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(promoChars[m.Promotion()-Knight])
	}
	return s
}

// ParseMove reads UCI notation against a position, which disambiguates
// castling and en passant from plain moves.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("bad move %q", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		promo := PieceType(0)
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("bad promotion piece %q", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece on %s", from)
	}

	switch {
	case piece.Type() == King && abs(int(to)-int(from)) == 2:
		return NewCastling(from, to), nil
	case piece.Type() == Pawn && to == pos.EnPassant:
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-capacity move buffer; generation never allocates.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList returns an empty list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len is the number of moves held.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap exchanges two entries.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list for reuse.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// UndoInfo stores the irreversible state needed to take a move back.
// MakeMove fills it without allocating; UnmakeMove consumes it.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	Valid          bool // false when no piece stood on the from square
}
