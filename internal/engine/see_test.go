package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/stratus/internal/board"
)

func mustPos(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err)
	return pos
}

func mustMove(t *testing.T, pos *board.Position, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s, pos)
	require.NoError(t, err)
	return m
}

func TestSEEFreeCapture(t *testing.T) {
	// Rook takes an undefended pawn.
	pos := mustPos(t, "4k3/8/8/3p4/8/8/8/3R3K w - - 0 1")
	m := mustMove(t, pos, "d1d5")

	assert.True(t, SEE(pos, m, 0))
	assert.True(t, SEE(pos, m, Eval(pawnVal.Value)))
	assert.False(t, SEE(pos, m, Eval(pawnVal.Value+1)))
}

func TestSEELosingCapture(t *testing.T) {
	// Queen takes a pawn defended by a pawn: loses the queen for a pawn.
	pos := mustPos(t, "4k3/2p5/3p4/8/8/8/3Q4/4K3 w - - 0 1")
	m := mustMove(t, pos, "d2d6")

	assert.False(t, SEE(pos, m, 0))
	// Pawn for queen is exactly what the exchange concedes.
	assert.True(t, SEE(pos, m, Eval(pawnVal.Value-queenVal.Value)))
	assert.False(t, SEE(pos, m, Eval(pawnVal.Value-queenVal.Value+1)))
}

func TestSEEEqualExchange(t *testing.T) {
	// Rook takes rook, recaptured by rook: dead even.
	pos := mustPos(t, "3r3k/3r4/8/8/8/8/3R4/7K w - - 0 1")
	m := mustMove(t, pos, "d2d7")

	assert.True(t, SEE(pos, m, 0))
	assert.False(t, SEE(pos, m, 1))
}

func TestSEEXray(t *testing.T) {
	// Doubled rooks win the second exchange: RxR, RxR, RxR leaves white
	// a whole rook up once the x-ray rook recaptures.
	pos := mustPos(t, "3r3k/3r4/8/8/8/8/3R4/3R3K w - - 0 1")
	m := mustMove(t, pos, "d2d7")
	assert.True(t, SEE(pos, m, Eval(rookVal.Value)))

	// A defended pawn attacked by stacked rooks is still a bad grab:
	// rook for a pawn, whatever the second rook threatens afterwards.
	pos2 := mustPos(t, "4k3/2p5/3p4/8/8/8/3R4/3R2K1 w - - 0 1")
	m2 := mustMove(t, pos2, "d2d6")
	assert.False(t, SEE(pos2, m2, 0))
}

func TestSEEDeterministic(t *testing.T) {
	pos := mustPos(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	before := *pos

	ml := pos.GenerateCaptures()
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		first := SEE(pos, m, 0)
		for rep := 0; rep < 3; rep++ {
			assert.Equal(t, first, SEE(pos, m, 0), "SEE not deterministic for %s", m)
		}
	}

	assert.Equal(t, before, *pos, "SEE must not mutate the position")
}

func TestSEEQuietMove(t *testing.T) {
	// Moving a rook onto a square covered by a pawn loses the exchange.
	pos := mustPos(t, "4k3/2p5/8/8/8/8/3R4/4K3 w - - 0 1")
	m := mustMove(t, pos, "d2d6")
	assert.False(t, SEE(pos, m, 0))

	// A safe quiet move satisfies any non-positive threshold.
	safe := mustMove(t, pos, "d2d4")
	assert.True(t, SEE(pos, safe, 0))
}
