package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/stratus/internal/board"
)

func drainPicker(pos *board.Position, ttMove board.Move, killers [2]board.Move, qs bool) []board.Move {
	hist := NewHistory()
	var conts [contHistSize]*PieceToHistory
	mp := NewMovePicker(pos, ttMove, killers, qs)

	var out []board.Move
	for {
		m := mp.Next(pos, hist, &conts)
		if m == board.NoMove {
			break
		}
		out = append(out, m)
	}
	return out
}

func TestPickerYieldsEveryLegalMoveOnce(t *testing.T) {
	pos := mustPos(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	legal := pos.GenerateLegalMoves()

	tt := legal.Get(5)
	moves := drainPicker(pos, tt, [2]board.Move{}, false)

	assert.Equal(t, legal.Len(), len(moves), "picker must yield each legal move exactly once")

	seen := make(map[board.Move]int)
	for _, m := range moves {
		seen[m]++
		assert.True(t, legal.Contains(m), "picker yielded illegal move %s", m)
	}
	for m, n := range seen {
		assert.Equal(t, 1, n, "move %s yielded %d times", m, n)
	}
}

func TestPickerTTMoveFirst(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	legal := pos.GenerateLegalMoves()
	tt := legal.Get(7)

	moves := drainPicker(pos, tt, [2]board.Move{}, false)
	require.NotEmpty(t, moves)
	assert.Equal(t, tt, moves[0])
}

func TestPickerIgnoresBogusTTMove(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	bogus := board.NewMove(board.A1, board.H8)

	moves := drainPicker(pos, bogus, [2]board.Move{}, false)
	assert.Equal(t, pos.GenerateLegalMoves().Len(), len(moves))
	for _, m := range moves {
		assert.NotEqual(t, bogus, m)
	}
}

func TestPickerKillersBeforeQuiets(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	k1 := mustMove(t, pos, "g1f3")
	k2 := mustMove(t, pos, "b1c3")

	moves := drainPicker(pos, board.NoMove, [2]board.Move{k1, k2}, false)
	require.GreaterOrEqual(t, len(moves), 2)
	// No captures at the start position, so killers lead.
	assert.Equal(t, k1, moves[0])
	assert.Equal(t, k2, moves[1])
}

func TestPickerGoodCapturesBeforeKillers(t *testing.T) {
	// White can win a pawn on e5 or play quiet moves.
	pos := mustPos(t, "rnbqkb1r/pppp1ppp/5n2/4p3/3P4/5N2/PPP1PPPP/RNBQKB1R w KQkq - 0 1")
	k1 := mustMove(t, pos, "b1c3")

	moves := drainPicker(pos, board.NoMove, [2]board.Move{k1, board.NoMove}, false)
	require.NotEmpty(t, moves)

	capture := mustMove(t, pos, "d4e5")
	capIdx, killerIdx := -1, -1
	for i, m := range moves {
		if m == capture {
			capIdx = i
		}
		if m == k1 {
			killerIdx = i
		}
	}
	require.NotEqual(t, -1, capIdx)
	require.NotEqual(t, -1, killerIdx)
	assert.Less(t, capIdx, killerIdx, "winning capture must come before killers")
}

func TestPickerQuiescenceCapturesOnly(t *testing.T) {
	pos := mustPos(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	require.False(t, pos.InCheck())

	moves := drainPicker(pos, board.NoMove, [2]board.Move{}, true)
	require.NotEmpty(t, moves)
	for _, m := range moves {
		assert.True(t, m.IsCapture(pos) || m.IsPromotion(),
			"quiescence picker yielded quiet move %s", m)
	}
}

func TestPickerQuiescenceEvasions(t *testing.T) {
	// Side to move in check: the quiescence picker must offer evasions,
	// including quiet ones.
	pos := mustPos(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP1BP/RNBQK1NR w KQkq - 1 3")
	require.True(t, pos.InCheck())

	moves := drainPicker(pos, board.NoMove, [2]board.Move{}, true)
	legal := pos.GenerateLegalMoves()
	assert.Equal(t, legal.Len(), len(moves), "evasion picker must cover all legal replies")
}

func TestPickerDeterministic(t *testing.T) {
	pos := mustPos(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	first := drainPicker(pos, board.NoMove, [2]board.Move{}, false)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, drainPicker(pos, board.NoMove, [2]board.Move{}, false))
	}
}

func TestPickerBadCapturesLast(t *testing.T) {
	// QxP defended: the losing capture must come after quiets.
	pos := mustPos(t, "4k3/2p5/3p4/8/8/8/3Q4/4K3 w - - 0 1")
	losing := mustMove(t, pos, "d2d6")

	moves := drainPicker(pos, board.NoMove, [2]board.Move{}, false)
	require.NotEmpty(t, moves)

	idx := -1
	for i, m := range moves {
		if m == losing {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx)
	assert.Equal(t, len(moves)-1, idx, "losing capture must be yielded last")
}
