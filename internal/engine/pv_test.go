package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hailam/stratus/internal/board"
)

func TestPVLineUpdate(t *testing.T) {
	var child PVLine
	child.Update(board.NewMove(board.E7, board.E5), &PVLine{})

	var pv PVLine
	pv.Update(board.NewMove(board.E2, board.E4), &child)

	assert.Equal(t, 2, pv.Len())
	assert.Equal(t, board.NewMove(board.E2, board.E4), pv.Best())
	assert.Equal(t, "e2e4 e7e5", pv.String())

	pv.Clear()
	assert.Zero(t, pv.Len())
	assert.Equal(t, board.NoMove, pv.Best())
	assert.Empty(t, pv.Moves())
}

func TestPVLineDeepSplice(t *testing.T) {
	var line PVLine
	moves := []board.Move{
		board.NewMove(board.E2, board.E4),
		board.NewMove(board.E7, board.E5),
		board.NewMove(board.G1, board.F3),
		board.NewMove(board.B8, board.C6),
	}

	// Splice from the leaf upward, the way negamax does.
	for i := len(moves) - 1; i >= 0; i-- {
		child := line
		line.Clear()
		line.Update(moves[i], &child)
	}

	assert.Equal(t, moves, line.Moves())
}
