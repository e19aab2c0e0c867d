package engine

import (
	"strings"

	"github.com/hailam/stratus/internal/board"
)

// PVLine is a fixed-capacity principal variation. Each PV node keeps a
// local line for its subtree and splices its best move in front of the
// child's line whenever alpha is raised; non-PV nodes never touch one.
type PVLine struct {
	moves  [MaxDepth]board.Move
	length int
}

// Clear empties the line. Every node clears its local line on entry.
func (pv *PVLine) Clear() {
	pv.length = 0
}

// Update sets the line to m followed by the child's line.
func (pv *PVLine) Update(m board.Move, child *PVLine) {
	pv.moves[0] = m
	copy(pv.moves[1:1+child.length], child.moves[:child.length])
	pv.length = child.length + 1
}

// Len returns the number of moves in the line.
func (pv *PVLine) Len() int {
	return pv.length
}

// Best returns the first move of the line, or NoMove when empty.
func (pv *PVLine) Best() board.Move {
	if pv.length == 0 {
		return board.NoMove
	}
	return pv.moves[0]
}

// Moves returns a copy of the line.
func (pv *PVLine) Moves() []board.Move {
	out := make([]board.Move, pv.length)
	copy(out, pv.moves[:pv.length])
	return out
}

// String renders the line in UCI long algebraic form.
func (pv *PVLine) String() string {
	var sb strings.Builder
	for i := 0; i < pv.length; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pv.moves[i].String())
	}
	return sb.String()
}
