package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hailam/stratus/internal/board"
)

func TestHistoryBonusBounded(t *testing.T) {
	assert.Equal(t, historyBonusCap, historyBonus(64))
	assert.Less(t, historyBonus(2), historyBonusCap)
}

func TestGravityStaysBounded(t *testing.T) {
	var cell int16

	for i := 0; i < 10000; i++ {
		gravity(&cell, historyBonusCap)
		assert.LessOrEqual(t, int(cell), maxHistory)
	}
	assert.Greater(t, int(cell), maxHistory/2, "repeated bonuses should saturate upward")

	for i := 0; i < 10000; i++ {
		gravity(&cell, -historyBonusCap)
		assert.GreaterOrEqual(t, int(cell), -maxHistory)
	}
	assert.Less(t, int(cell), -maxHistory/2, "repeated penalties should saturate downward")
}

func TestQuietHistoryUpdateAndScore(t *testing.T) {
	h := NewHistory()
	m := board.NewMove(board.G1, board.F3)
	piece := board.NewPiece(board.Knight, board.White)
	var conts [contHistSize]*PieceToHistory

	assert.Zero(t, h.QuietScore(board.White, m, piece, &conts))

	h.UpdateQuiet(board.White, m, piece, &conts, 500)
	assert.Greater(t, h.QuietScore(board.White, m, piece, &conts), 0)

	// The other side's butterfly table is untouched.
	assert.Zero(t, h.QuietScore(board.Black, m, piece, &conts))
}

func TestContinuationHistoryFeedsScore(t *testing.T) {
	h := NewHistory()
	prevPiece := board.NewPiece(board.Pawn, board.Black)
	ct := h.ContTable(prevPiece, board.E5)
	conts := [contHistSize]*PieceToHistory{ct, nil}

	m := board.NewMove(board.G1, board.F3)
	piece := board.NewPiece(board.Knight, board.White)

	h.UpdateQuiet(board.White, m, piece, &conts, 400)

	var noConts [contHistSize]*PieceToHistory
	withCont := h.QuietScore(board.White, m, piece, &conts)
	without := h.QuietScore(board.White, m, piece, &noConts)
	assert.Greater(t, withCont, without, "conditioned table must add to the score")
}

func TestKillerRotation(t *testing.T) {
	var killers [2]board.Move
	m1 := board.NewMove(board.E2, board.E4)
	m2 := board.NewMove(board.D2, board.D4)

	insertKiller(&killers, m1)
	assert.Equal(t, [2]board.Move{m1, board.NoMove}, killers)

	// Re-inserting the front killer is a no-op.
	insertKiller(&killers, m1)
	assert.Equal(t, [2]board.Move{m1, board.NoMove}, killers)

	insertKiller(&killers, m2)
	assert.Equal(t, [2]board.Move{m2, m1}, killers)

	insertKiller(&killers, m1)
	assert.Equal(t, [2]board.Move{m1, m2}, killers)
}

func TestCaptureHistory(t *testing.T) {
	h := NewHistory()
	attacker := board.NewPiece(board.Knight, board.White)

	h.UpdateCapture(attacker, board.E5, board.Pawn, 800)
	assert.Greater(t, h.CaptureScore(attacker, board.E5, board.Pawn), 0)
	assert.Zero(t, h.CaptureScore(attacker, board.E5, board.Rook))

	// King "victims" never index the table.
	h.UpdateCapture(attacker, board.E5, board.King, 800)
	assert.Zero(t, h.CaptureScore(attacker, board.E5, board.King))
}
