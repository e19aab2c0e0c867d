package engine

import (
	"github.com/hailam/stratus/internal/board"
)

// Classical evaluation: tapered material + piece-square tables, pawn
// structure cached by pawn key, king shelter and a few piece terms. The
// score is returned from the side to move's perspective, like the NNUE
// path, so the search can negate freely.

// Game phase weights per piece type; a full board sums to 24.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const tempoBonus = 12

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMgPST = [64]int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEgPST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	isolatedPawnPenalty = 12
	doubledPawnPenalty  = 14
	bishopPairBonus     = 30
	rookOpenFileBonus   = 20
	rookSemiOpenBonus   = 10
	kingShieldBonus     = 8
)

// EvaluateClassical is the tapered leaf evaluator. pawnTable caches the
// pawn-structure terms by pawn key and may be nil in tests.
func EvaluateClassical(pos *board.Position, pawnTable *PawnTable) Eval {
	var mg, eg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			phase += bb.PopCount() * phaseWeight[pt]
			for bb != 0 {
				sq := bb.PopLSB()
				psq := sq
				if c == board.Black {
					psq = sq.Mirror()
				}
				val := pieceVal(pt)
				switch pt {
				case board.Pawn:
					mg += sign * (val + pawnPST[psq])
					eg += sign * (val + pawnPST[psq])
				case board.Knight:
					mg += sign * (val + knightPST[psq])
					eg += sign * (val + knightPST[psq])
				case board.Bishop:
					mg += sign * (val + bishopPST[psq])
					eg += sign * (val + bishopPST[psq])
				case board.Rook:
					mg += sign * (val + rookPST[psq])
					eg += sign * (val + rookPST[psq])
				case board.Queen:
					mg += sign * (val + queenPST[psq])
					eg += sign * (val + queenPST[psq])
				case board.King:
					mg += sign * kingMgPST[psq]
					eg += sign * kingEgPST[psq]
				}
			}
		}
	}

	pawnMg, pawnEg := pawnStructure(pos, pawnTable)
	mg += pawnMg
	eg += pawnEg

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		if pos.Pieces[c][board.Bishop].PopCount() >= 2 {
			mg += sign * bishopPairBonus
			eg += sign * bishopPairBonus
		}
		bonusMg := rookFiles(pos, c) + kingShield(pos, c)
		mg += sign * bonusMg
	}

	if phase > 24 {
		phase = 24
	}
	v := (mg*phase + eg*(24-phase)) / 24

	score := clampEval(v)
	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// pawnStructure scores doubled, isolated and passed pawns, consulting the
// pawn hash table when one is supplied.
func pawnStructure(pos *board.Position, pt *PawnTable) (mg, eg int) {
	if pt != nil {
		if mg, eg, ok := pt.Probe(pos.PawnKey); ok {
			return mg, eg
		}
	}

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		pawns := pos.Pieces[c][board.Pawn]
		bb := pawns
		for bb != 0 {
			sq := bb.PopLSB()
			file := sq.File()

			if pawns&board.FileMask[file]&^board.SquareBB(sq) != 0 {
				mg -= sign * doubledPawnPenalty / 2
				eg -= sign * doubledPawnPenalty
			}

			var adjacent board.Bitboard
			if file > 0 {
				adjacent |= board.FileMask[file-1]
			}
			if file < 7 {
				adjacent |= board.FileMask[file+1]
			}
			if pawns&adjacent == 0 {
				mg -= sign * isolatedPawnPenalty
				eg -= sign * isolatedPawnPenalty / 2
			}

			if isPassed(pos, sq, c) {
				r := sq.RelativeRank(c)
				mg += sign * passedPawnBonus[r] / 2
				eg += sign * passedPawnBonus[r]
			}
		}
	}

	if pt != nil {
		pt.Store(pos.PawnKey, mg, eg)
	}
	return mg, eg
}

// isPassed reports whether no enemy pawn can stop sq's pawn on its file or
// the adjacent files.
func isPassed(pos *board.Position, sq board.Square, c board.Color) bool {
	file := sq.File()
	span := board.FileMask[file]
	if file > 0 {
		span |= board.FileMask[file-1]
	}
	if file < 7 {
		span |= board.FileMask[file+1]
	}

	var front board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r <= 7; r++ {
			front |= board.RankMask[r]
		}
	} else {
		for r := sq.Rank() - 1; r >= 0; r-- {
			front |= board.RankMask[r]
		}
	}

	return pos.Pieces[c.Other()][board.Pawn]&span&front == 0
}

// rookFiles rewards rooks on open and semi-open files.
func rookFiles(pos *board.Position, c board.Color) int {
	bonus := 0
	allPawns := pos.Pieces[board.White][board.Pawn] | pos.Pieces[board.Black][board.Pawn]
	rooks := pos.Pieces[c][board.Rook]
	for rooks != 0 {
		sq := rooks.PopLSB()
		file := board.FileMask[sq.File()]
		if allPawns&file == 0 {
			bonus += rookOpenFileBonus
		} else if pos.Pieces[c][board.Pawn]&file == 0 {
			bonus += rookSemiOpenBonus
		}
	}
	return bonus
}

// kingShield rewards friendly pawns adjacent to the king.
func kingShield(pos *board.Position, c board.Color) int {
	zone := board.KingAttacks(pos.KingSquare[c])
	shield := zone & pos.Pieces[c][board.Pawn]
	return shield.PopCount() * kingShieldBonus
}

// nonPawnMaterial sums the tuned values of both sides' pieces, pawns
// excluded. Used by the NNUE rescale.
func nonPawnMaterial(pos *board.Position) int {
	total := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			total += pos.Pieces[c][pt].PopCount() * pieceVal(pt)
		}
	}
	return total
}
