package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		require.NoError(t, err, fen)
		assert.Equal(t, fen, pos.ToFEN())
	}
}

func TestInCheckAfterParse(t *testing.T) {
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	assert.False(t, pos.InCheck())

	pos, err = ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	assert.True(t, pos.InCheck(), "white king is checked by the h4 queen")
}

func TestCheckmateAndStalemate(t *testing.T) {
	// Fool's mate.
	mate, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)
	assert.True(t, mate.IsCheckmate())
	assert.False(t, mate.IsStalemate())

	// Queen seals the corner, king to move has nothing.
	stale, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.True(t, stale.IsStalemate())
	assert.False(t, stale.IsCheckmate())
}

func TestPseudoLegal(t *testing.T) {
	pos := NewPosition()

	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		assert.True(t, pos.PseudoLegal(legal.Get(i)), "legal move %s rejected", legal.Get(i))
	}

	bogus := []Move{
		NewMove(E2, E5),          // pawn triple push
		NewMove(A1, A3),          // rook through own pawn
		NewMove(B1, B3),          // knight moving like a rook
		NewMove(E7, E5),          // opponent's piece
		NewMove(D1, D8),          // queen through everything
		NewPromotion(E2, E4, Queen), // promotion off the last rank
	}
	for _, m := range bogus {
		assert.False(t, pos.PseudoLegal(m), "bogus move %s accepted", m)
	}
}

func TestNullMoveRoundTrip(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	require.NoError(t, err)

	before := *pos
	undo := pos.MakeNullMove()
	assert.Equal(t, Black, pos.SideToMove)
	assert.NotEqual(t, before.Hash, pos.Hash)
	assert.Equal(t, NoSquare, pos.EnPassant)

	pos.UnmakeNullMove(undo)
	assert.Equal(t, before, *pos)
}

func TestHasNonPawnMaterial(t *testing.T) {
	kp, err := ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.False(t, kp.HasNonPawnMaterial())

	kr, err := ParseFEN("4k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	require.NoError(t, err)
	assert.True(t, kr.HasNonPawnMaterial())
}
