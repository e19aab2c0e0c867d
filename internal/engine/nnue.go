package engine

import (
	"github.com/hailam/chessplay/sfnnue"
	"github.com/hailam/chessplay/sfnnue/features"

	"github.com/hailam/stratus/internal/board"
)

// NNUE leaf evaluation through the sfnnue networks. Each worker owns an
// nnueState so accumulators are never shared between goroutines; the
// Networks themselves are immutable after loading and shared freely.
//
// The raw network output is contracted toward zero as material leaves the
// board: v = v * (nnue_base + material/32) / 1024. This keeps endgame
// evals conservative and blends smoothly into the tuned material scale.

// sfnnuePiece maps [color][pieceType] to the sfnnue piece encoding
// (white pieces 1..6, black pieces 9..14).
var sfnnuePiece = [2][6]int{
	{1, 2, 3, 4, 5, 6},
	{9, 10, 11, 12, 13, 14},
}

type nnueState struct {
	nets *sfnnue.Networks
	acc  *sfnnue.Accumulator
}

func newNNUEState(nets *sfnnue.Networks) *nnueState {
	return &nnueState{
		nets: nets,
		acc:  sfnnue.NewAccumulatorStack().CurrentBig(),
	}
}

// evaluateNNUE computes the network output for pos from scratch. The
// accumulator is refreshed per call; the search's eval caching in the TT
// and on the stack keeps the refresh count tolerable.
func evaluateNNUE(pos *board.Position, st *nnueState) Eval {
	var indices [2][]int
	var lists [2]features.IndexList

	for perspective := 0; perspective < 2; perspective++ {
		activeFeatures(pos, perspective, &lists[perspective])
		indices[perspective] = lists[perspective].Values[:lists[perspective].Size]

		st.nets.Big.FeatureTransformer.ComputeAccumulator(
			indices[perspective],
			st.acc.Accumulation[perspective],
			st.acc.PSQTAccumulation[perspective],
		)
		st.acc.Computed[perspective] = true
		st.acc.KingSq[perspective] = int(pos.KingSquare[perspective])
	}

	stm := 0
	if pos.SideToMove == board.Black {
		stm = 1
	}
	pieceCount := pos.AllOccupied.PopCount()

	psqt, positional := st.nets.Big.Evaluate(
		st.acc.Accumulation,
		st.acc.PSQTAccumulation,
		stm,
		pieceCount,
	)
	v := int(psqt) + int(positional)

	// Material contraction. The network output is from the side to move's
	// perspective already.
	pawns := pos.Pieces[board.White][board.Pawn] | pos.Pieces[board.Black][board.Pawn]
	scale := nonPawnMaterial(pos) + pawns.PopCount()*pawnVal.Value
	v = v * (nnueBase.Value + scale/32) / 1024

	return clampEval(v)
}

// activeFeatures collects the HalfKA feature indices of every piece for
// one perspective.
func activeFeatures(pos *board.Position, perspective int, out *features.IndexList) {
	out.Clear()
	ksq := int(pos.KingSquare[perspective])
	for c := 0; c < 2; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			pc := sfnnuePiece[c][pt]
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				out.Push(features.MakeIndex(perspective, int(sq), pc, ksq))
			}
		}
	}
}
