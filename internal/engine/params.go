package engine

import (
	"math"
	"strings"

	"github.com/hailam/stratus/internal/board"
)

// Tunable is a search or evaluation parameter exposed for UCI setoption and
// self-play tuning. Value starts at Def and is clamped to [Min, Max].
type Tunable struct {
	Name  string
	Def   int
	Min   int
	Max   int
	Step  int
	Value int
}

// Set clamps v into range and stores it. Returns true if v was in range.
func (t *Tunable) Set(v int) bool {
	ok := v >= t.Min && v <= t.Max
	if v < t.Min {
		v = t.Min
	}
	if v > t.Max {
		v = t.Max
	}
	t.Value = v
	if t == lmrA || t == lmrB {
		initLMRTable()
	}
	return ok
}

var (
	pawnVal   = &Tunable{Name: "pawn_val", Def: 82, Min: 60, Max: 140, Step: 5}
	knightVal = &Tunable{Name: "knight_val", Def: 337, Min: 250, Max: 370, Step: 5}
	bishopVal = &Tunable{Name: "bishop_val", Def: 365, Min: 300, Max: 400, Step: 5}
	rookVal   = &Tunable{Name: "rook_val", Def: 477, Min: 450, Max: 550, Step: 5}
	queenVal  = &Tunable{Name: "queen_val", Def: 1025, Min: 950, Max: 1100, Step: 5}

	nnueBase = &Tunable{Name: "nnue_base", Def: 700, Min: 600, Max: 800, Step: 10}

	nmpMin = &Tunable{Name: "nmp_min", Def: 4, Min: 2, Max: 6, Step: 1}
	nmpDiv = &Tunable{Name: "nmp_div", Def: 4, Min: 2, Max: 6, Step: 1}

	lmrMinDepth = &Tunable{Name: "lmr_min_depth", Def: 2, Min: 2, Max: 4, Step: 1}
	lmrMinMoves = &Tunable{Name: "lmr_min_moves", Def: 2, Min: 2, Max: 4, Step: 1}

	// lmr_a and lmr_b are the Ethereal-style reduction coefficients,
	// scaled x100 because the tuner works in integers:
	// r = lmr_a/100 + ln(depth)*ln(moves)/(lmr_b/100)
	lmrA = &Tunable{Name: "lmr_a", Def: 75, Min: 50, Max: 100, Step: 5}
	lmrB = &Tunable{Name: "lmr_b", Def: 200, Min: 160, Max: 240, Step: 10}
)

// Tunables lists every parameter in declaration order.
var Tunables = []*Tunable{
	pawnVal, knightVal, bishopVal, rookVal, queenVal,
	nnueBase,
	nmpMin, nmpDiv,
	lmrMinDepth, lmrMinMoves, lmrA, lmrB,
}

// TunableByName finds a tunable by its option name, case-insensitively.
func TunableByName(name string) *Tunable {
	for _, t := range Tunables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func init() {
	for _, t := range Tunables {
		t.Value = t.Def
	}
	initLMRTable()
}

// pieceVal returns the tuned exchange value of a piece type.
// Kings have no exchange value; the SEE loop never trades them away.
func pieceVal(pt board.PieceType) int {
	switch pt {
	case board.Pawn:
		return pawnVal.Value
	case board.Knight:
		return knightVal.Value
	case board.Bishop:
		return bishopVal.Value
	case board.Rook:
		return rookVal.Value
	case board.Queen:
		return queenVal.Value
	}
	return 0
}

// nmpReduction is the null-move depth reduction.
func nmpReduction(depth int) int {
	return nmpMin.Value + depth/nmpDiv.Value
}

// lmrReductions caches the logarithmic base reduction per (depth, moves).
var lmrReductions [64][64]int

func initLMRTable() {
	a := float64(lmrA.Value) / 100.0
	b := float64(lmrB.Value) / 100.0
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(math.Round(a + math.Log(float64(d))*math.Log(float64(m))/b))
		}
	}
}

// lmrBaseReduction looks up the tabulated base reduction.
func lmrBaseReduction(depth, moves int) int {
	if depth > 63 {
		depth = 63
	}
	if moves > 63 {
		moves = 63
	}
	return lmrReductions[depth][moves]
}
