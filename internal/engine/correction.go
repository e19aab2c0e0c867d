package engine

import (
	"github.com/hailam/stratus/internal/board"
)

// CorrectionHistory learns the gap between static evaluation and the score
// the search actually settled on, keyed by position hash, and feeds it back
// into later static evals of similar positions. Updates use the same
// gravity idea as move-ordering history so corrections stay bounded.
type CorrectionHistory struct {
	table [65536]int16
}

// NewCorrectionHistory returns a zeroed table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// Get returns the correction to add to a raw static eval.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	return int(ch.table[pos.Hash&0xFFFF])
}

// Update records the error between a depth-d exact search score and the
// raw static eval of the node. Deeper results weigh more; a single update
// moves the cell a bounded step toward the observed error.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval Eval, depth int) {
	if depth < 1 {
		return
	}

	bonus := int(searchScore-staticEval) * depth / 8
	if bonus > 256 {
		bonus = 256
	} else if bonus < -256 {
		bonus = -256
	}

	idx := pos.Hash & 0xFFFF
	v := int(ch.table[idx])
	v += (bonus - v) / 16
	if v > 16000 {
		v = 16000
	} else if v < -16000 {
		v = -16000
	}
	ch.table[idx] = int16(v)
}

// Clear zeroes the table.
func (ch *CorrectionHistory) Clear() {
	for i := range ch.table {
		ch.table[i] = 0
	}
}
