package engine

import (
	"github.com/hailam/stratus/internal/board"
)

const (
	// maxHistory bounds every history score; the gravity update keeps
	// values inside [-maxHistory, maxHistory] without explicit clamping.
	maxHistory = 16384

	// historyBonusCap and historyBonusScale shape the depth-derived bonus
	// applied on beta cutoffs.
	historyBonusCap   = 1600
	historyBonusScale = 16

	// contHistSize is how many prior plies feed continuation history.
	contHistSize = 2
)

// PieceToHistory scores (piece, to-square) pairs. Continuation history
// keeps one such table per conditioning (piece, to) of a previous move.
type PieceToHistory [board.PieceNB][64]int16

// History aggregates the move-ordering statistics a worker learns from
// beta cutoffs: butterfly history for quiets, capture history for
// captures, and continuation history conditioned on the last moves.
// Killer slots live on the search stack, not here.
type History struct {
	butterfly    [2][64][64]int16
	capture      [board.PieceNB][64][6]int16
	continuation [board.PieceNB][64]PieceToHistory
}

// NewHistory returns zeroed tables.
func NewHistory() *History {
	return &History{}
}

// Clear zeroes everything. Used on ucinewgame.
func (h *History) Clear() {
	*h = History{}
}

// historyBonus is the cutoff bonus for a given remaining depth.
func historyBonus(depth int) int {
	bonus := depth * depth * historyBonusScale
	if bonus > historyBonusCap {
		bonus = historyBonusCap
	}
	return bonus
}

// gravity nudges a history cell toward the bonus sign while decaying
// proportionally to its current magnitude, so |h| never exceeds
// maxHistory.
func gravity(cell *int16, bonus int) {
	v := int(*cell)
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	*cell = int16(v + bonus - v*abs/maxHistory)
}

// ContTable returns the continuation table conditioned on a move of piece
// to sq, for storing in the search stack.
func (h *History) ContTable(piece board.Piece, sq board.Square) *PieceToHistory {
	if piece >= board.NoPiece {
		return nil
	}
	return &h.continuation[piece][sq]
}

// QuietScore orders a quiet move: butterfly plus the continuation scores
// conditioned on the previous contHistSize moves.
func (h *History) QuietScore(us board.Color, m board.Move, piece board.Piece, conts *[contHistSize]*PieceToHistory) int {
	score := int(h.butterfly[us][m.From()][m.To()])
	for _, ct := range conts {
		if ct != nil {
			score += int(ct[piece][m.To()])
		}
	}
	return score
}

// CaptureScore orders a capture by its capture-history cell.
func (h *History) CaptureScore(attacker board.Piece, to board.Square, victim board.PieceType) int {
	if attacker >= board.NoPiece || victim >= board.King {
		return 0
	}
	return int(h.capture[attacker][to][victim])
}

// UpdateQuiet applies a signed gravity bonus to the butterfly and
// continuation cells of a quiet move.
func (h *History) UpdateQuiet(us board.Color, m board.Move, piece board.Piece, conts *[contHistSize]*PieceToHistory, bonus int) {
	gravity(&h.butterfly[us][m.From()][m.To()], bonus)
	for _, ct := range conts {
		if ct != nil {
			gravity(&ct[piece][m.To()], bonus)
		}
	}
}

// UpdateCapture applies a signed gravity bonus to a capture cell.
func (h *History) UpdateCapture(attacker board.Piece, to board.Square, victim board.PieceType, bonus int) {
	if attacker >= board.NoPiece || victim >= board.King {
		return
	}
	gravity(&h.capture[attacker][to][victim], bonus)
}

// insertKiller installs a quiet cutoff move into the two killer slots,
// rotating slot 0 into slot 1 unless the move is already in front.
func insertKiller(killers *[2]board.Move, m board.Move) {
	if killers[0] == m {
		return
	}
	killers[1] = killers[0]
	killers[0] = m
}
