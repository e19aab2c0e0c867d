package engine

import (
	"github.com/hailam/stratus/internal/board"
)

// nodeType discriminates Root, PV and NonPV nodes at the call site. The
// predicates compile to register compares, so the negamax body stays
// branch-cheap without duplicating the function three times.
type nodeType uint8

const (
	nodeNonPV nodeType = iota
	nodePV
	nodeRoot
)

func (nt nodeType) pv() bool   { return nt != nodeNonPV }
func (nt nodeType) root() bool { return nt == nodeRoot }

// next is the node type of a full-window child: Root narrows to PV,
// everything else keeps its kind.
func (nt nodeType) next() nodeType {
	if nt == nodeRoot {
		return nodePV
	}
	return nt
}

// stackEntry is the per-ply search state. The stack is over-allocated by
// four entries with a base offset of two, so stack[ply-2] and
// stack[ply+2] are always addressable.
type stackEntry struct {
	eval        Eval // static eval at this node, Infinity when in check
	moveCount   uint8
	inCheck     bool
	killers     [2]board.Move
	movedPiece  board.Piece
	moveTo      board.Square
	contHist    *PieceToHistory
	plyFromNull int // saved counter for restoring on undo
}

const stackOffset = 2

// Worker owns everything one search thread mutates: a private position
// copy, the search stack, repetition ring and statistics. Workers share
// the transposition table, the history and correction-history tables and
// the clock's stop flag; this driver runs a single worker.
type Worker struct {
	id int

	pos   *board.Position
	tt    *TT
	clock *Clock
	hist  *History
	corr  *CorrectionHistory

	pawnTable *PawnTable
	useNNUE   bool
	nnue      *nnueState

	stack    [MaxDepth + 4]stackEntry
	undo     [MaxDepth + 4]board.UndoInfo
	nullUndo [MaxDepth + 4]board.NullMoveUndo

	ply         int
	plyFromNull int

	// Repetition ring: game history hashes followed by the search path.
	keys    [MaxDepth + 640]uint64
	keysLen int

	nodes    uint64
	seldepth int

	depth int
	eval  Eval
	pv    PVLine

	stopped bool
}

// NewWorker wires a worker to the shared table, history and clock state.
func NewWorker(id int, tt *TT, hist *History, corr *CorrectionHistory) *Worker {
	return &Worker{
		id:        id,
		tt:        tt,
		hist:      hist,
		corr:      corr,
		pawnTable: NewPawnTable(1),
	}
}

// ID returns the worker id.
func (w *Worker) ID() int { return w.id }

// Nodes returns the node count of the current search.
func (w *Worker) Nodes() uint64 { return w.nodes }

// SelDepth returns the maximum ply reached.
func (w *Worker) SelDepth() int { return w.seldepth }

// BestMove returns the head of the last complete PV.
func (w *Worker) BestMove() board.Move { return w.pv.Best() }

// Eval returns the score of the last complete iteration.
func (w *Worker) Eval() Eval { return w.eval }

// PV returns the last complete principal variation.
func (w *Worker) PV() *PVLine { return &w.pv }

// InitSearch points the worker at a dedicated position copy and seeds the
// repetition ring with the game history.
func (w *Worker) InitSearch(pos *board.Position, gameKeys []uint64, clock *Clock) {
	w.pos = pos.Copy()
	w.clock = clock
	w.nodes = 0
	w.seldepth = 0
	w.ply = 0
	w.plyFromNull = 0
	w.stopped = false
	w.eval = -Infinity
	w.pv.Clear()
	for i := range w.stack {
		w.stack[i] = stackEntry{eval: Infinity}
	}

	n := len(gameKeys)
	if n > 640 {
		gameKeys = gameKeys[n-640:]
		n = 640
	}
	copy(w.keys[:n], gameKeys)
	// The game history may already end with the root key; append it only
	// when missing so same-side positions stay two entries apart.
	if n == 0 || w.keys[n-1] != w.pos.Hash {
		w.keys[n] = w.pos.Hash
		n++
	}
	w.keysLen = n
}

// ss returns the stack entry at the current ply plus offset.
func (w *Worker) ss(off int) *stackEntry {
	return &w.stack[w.ply+stackOffset+off]
}

// contTables gathers the continuation history tables of the last
// contHistSize plies for move ordering and updates.
func (w *Worker) contTables() *[contHistSize]*PieceToHistory {
	var conts [contHistSize]*PieceToHistory
	for i := 0; i < contHistSize; i++ {
		if w.ply > i {
			conts[i] = w.stack[w.ply+stackOffset-1-i].contHist
		}
	}
	return &conts
}

// shouldStop polls the clock every 2048 nodes and latches the result so
// the unwind is immediate once cancellation is requested.
func (w *Worker) shouldStop() bool {
	if w.stopped {
		return true
	}
	if w.nodes&clockPollMask == 0 && w.clock.Poll(w.nodes) {
		w.stopped = true
	}
	return w.stopped
}

// evaluate dispatches to the configured leaf evaluator.
func (w *Worker) evaluate() Eval {
	if w.useNNUE && w.nnue != nil {
		return evaluateNNUE(w.pos, w.nnue)
	}
	return EvaluateClassical(w.pos, w.pawnTable)
}

// adjustEval applies the correction-history term to a raw static eval,
// keeping the result inside the non-terminal range.
func (w *Worker) adjustEval(raw Eval) Eval {
	v := int(raw) + w.corr.Get(w.pos)
	if v >= int(mateInMaxPly) {
		v = int(mateInMaxPly) - 1
	}
	if v <= int(-mateInMaxPly) {
		v = int(-mateInMaxPly) + 1
	}
	return Eval(v)
}

// makeMove applies m, pushes the new key on the repetition ring and
// prefetches the child's table bucket. Every successful makeMove is
// paired with exactly one undoMove on every exit path.
func (w *Worker) makeMove(m board.Move) bool {
	u := w.pos.MakeMove(m)
	if !u.Valid {
		return false
	}
	w.undo[w.ply+stackOffset] = u
	ss := w.ss(0)
	ss.plyFromNull = w.plyFromNull
	w.plyFromNull++
	w.ply++
	w.nodes++
	w.keys[w.keysLen] = w.pos.Hash
	w.keysLen++
	w.tt.Prefetch(w.pos.Hash)
	return true
}

func (w *Worker) undoMove(m board.Move) {
	w.keysLen--
	w.ply--
	w.plyFromNull = w.ss(0).plyFromNull
	w.pos.UnmakeMove(m, w.undo[w.ply+stackOffset])
}

func (w *Worker) makeNullMove() {
	ss := w.ss(0)
	ss.plyFromNull = w.plyFromNull
	ss.contHist = nil
	ss.movedPiece = board.NoPiece
	w.nullUndo[w.ply+stackOffset] = w.pos.MakeNullMove()
	w.plyFromNull = 0
	w.ply++
	w.nodes++
	w.keys[w.keysLen] = w.pos.Hash
	w.keysLen++
}

func (w *Worker) undoNullMove() {
	w.keysLen--
	w.ply--
	w.pos.UnmakeNullMove(w.nullUndo[w.ply+stackOffset])
	w.plyFromNull = w.ss(0).plyFromNull
}

// isDraw detects the 50-move rule, insufficient material and repetition.
// A single earlier occurrence of the key inside the reversible window
// counts as a draw: the search will steer around genuine twofolds anyway
// and scoring them zero early saves re-searching known ground.
func (w *Worker) isDraw() bool {
	if w.pos.HalfMoveClock >= 100 {
		return true
	}
	if w.pos.IsInsufficientMaterial() {
		return true
	}

	span := w.pos.HalfMoveClock
	if span > w.keysLen-1 {
		span = w.keysLen - 1
	}
	key := w.pos.Hash
	// keys[keysLen-1] is the current position; look behind it.
	for i := w.keysLen - 3; i >= w.keysLen-1-span; i -= 2 {
		if i < 0 {
			break
		}
		if w.keys[i] == key {
			return true
		}
	}
	return false
}

// IterativeDeepening drives the worker from depth 1 upward until the
// clock declines another iteration. Interrupted iterations are discarded;
// the previous depth's PV and score remain the search output.
func (w *Worker) IterativeDeepening(onIteration func(*Worker)) {
	w.depth = 0

	for w.clock.ShouldStartIteration(w.depth, w.pv.Best()) {
		w.searchPosition()

		if w.stopped {
			break
		}

		if w.id == 0 && onIteration != nil {
			onIteration(w)
		}

		w.depth++
	}
}

// searchPosition runs one full-window iteration at depth+1.
func (w *Worker) searchPosition() {
	var pv PVLine

	eval := w.negamax(nodeRoot, w.depth+1, -Infinity, Infinity, &pv)

	if w.stopped {
		return
	}

	w.eval = eval
	w.pv = pv
}

// negamax is the main alpha-beta recursion.
func (w *Worker) negamax(nt nodeType, depth int, alpha, beta Eval, pv *PVLine) Eval {
	pv.Clear()

	if w.shouldStop() {
		return Draw
	}

	inCheck := w.pos.InCheck()

	// Horizon: drop into quiescence. Checks are extended implicitly by
	// falling through with depth clamped to one below.
	if depth <= 0 && !inCheck {
		return w.quiescence(nt.next(), alpha, beta, pv)
	}

	if !nt.root() {
		if w.ply >= MaxDepth && !inCheck {
			return w.adjustEval(w.evaluate())
		}
		if w.isDraw() {
			return Draw
		}

		// Mate distance pruning: even the fastest mate from here cannot
		// improve on a line already found closer to the root.
		alpha = maxEval(alpha, MatedIn(w.ply))
		beta = minEval(beta, MateIn(w.ply+1))
		if alpha >= beta {
			return alpha
		}
	}

	if depth < 1 {
		depth = 1
	}
	if nt.root() {
		w.seldepth = 0
	} else if w.ply > w.seldepth {
		w.seldepth = w.ply
	}

	var childPV PVLine

	// Transposition table probe. Outside the PV a deep-enough entry with
	// a usable bound cuts the node outright.
	entry, hit := w.tt.Get(w.pos.Hash)
	ttMove := board.NoMove
	ttCapture := false
	ttEval := Infinity
	if hit {
		ttValue := entry.Value.FromTT(w.ply)
		if !nt.pv() && int(entry.Depth) >= depth && canUseTTValue(entry.Bound, ttValue, alpha, beta) {
			return ttValue
		}
		ttMove = entry.Move
		if ttMove != board.NoMove && !w.pos.PseudoLegal(ttMove) {
			ttMove = board.NoMove // collision or torn entry
		}
		ttCapture = ttMove != board.NoMove && ttMove.IsCapture(w.pos)
		ttEval = entry.Eval
	}

	// Static evaluation, reusing the table's cached eval when present and
	// folding in correction history.
	rawEval := Infinity
	eval := Infinity
	if !inCheck {
		if ttEval.IsValid() {
			rawEval = ttEval
		} else {
			rawEval = w.evaluate()
		}
		eval = w.adjustEval(rawEval)
	}
	ss := w.ss(0)
	ss.eval = eval
	ss.inCheck = inCheck

	improving := false
	oppWorsening := false
	if !inCheck {
		if prev := w.ss(-2).eval; w.ply >= 2 && prev.IsValid() {
			improving = eval > prev
		}
		if prev := w.ss(-1).eval; w.ply >= 1 && prev.IsValid() {
			oppWorsening = eval > -prev
		}
	}

	// Null move pruning: if handing the opponent a free move still fails
	// high, a real move will too. Skipped in pawn-only endings (zugzwang)
	// and directly after another null move.
	if !nt.pv() && !inCheck && eval.IsValid() && eval >= beta &&
		depth >= nmpMin.Value && w.pos.HasNonPawnMaterial() && w.plyFromNull > 0 {
		r := nmpReduction(depth)
		newDepth := depth - r
		if newDepth < 0 {
			newDepth = 0
		}

		w.makeNullMove()
		value := -w.negamax(nodeNonPV, newDepth, -beta, -beta+1, &childPV)
		w.undoNullMove()

		if w.stopped {
			return Draw
		}
		if value >= beta {
			return beta
		}
	}

	// Main move loop.
	bestValue := -Infinity
	bestMove := board.NoMove
	moveCount := 0

	w.ss(+2).killers = [2]board.Move{}
	mp := NewMovePicker(w.pos, ttMove, ss.killers, false)
	conts := w.contTables()

	var quietsTried [64]board.Move
	quietCount := 0

	for {
		move := mp.Next(w.pos, w.hist, conts)
		if move == board.NoMove {
			break
		}
		moveCount++

		isCapture := move.IsCapture(w.pos)
		isPromotion := move.IsPromotion()

		// Shallow futility on quiets: once one move has a score, late
		// quiets that lose material to the exchange are skipped. The
		// margin loosens while the opponent's position is worsening.
		if !nt.root() && !inCheck && bestValue > -Infinity &&
			!isCapture && !isPromotion && depth <= 4 {
			seeMargin := Eval(-25 * depth)
			if oppWorsening {
				seeMargin -= 15
			}
			if !SEE(w.pos, move, seeMargin) {
				continue
			}
		}

		movedPiece := w.pos.PieceAt(move.From())
		moveTo := move.To()

		if !w.makeMove(move) {
			moveCount--
			continue
		}
		ss.movedPiece = movedPiece
		ss.moveTo = moveTo
		ss.contHist = w.hist.ContTable(movedPiece, moveTo)

		startNodes := w.nodes
		newDepth := depth - 1

		var value Eval
		var fullSearch bool

		// Late move reduction: late, non-tactical moves get a reduced
		// zero-window probe first; a surprise triggers the re-search.
		lmrMoves := lmrMinMoves.Value
		if nt.pv() {
			lmrMoves++
		}
		if depth >= lmrMinDepth.Value && moveCount > lmrMoves {
			r := lmrBaseReduction(depth, moveCount)
			if !nt.pv() {
				r++
			}
			if !improving {
				r++
			}
			if ttCapture {
				r++
			}
			if inCheck {
				r--
			}
			if w.pos.InCheck() {
				r-- // reply gives check
			}
			if r < 1 {
				r = 1
			}
			if r > depth-1 {
				r = depth - 1
			}

			value = -w.negamax(nodeNonPV, newDepth-r, -alpha-1, -alpha, &childPV)
			fullSearch = value > alpha && r > 1
		} else {
			fullSearch = !nt.pv() || moveCount > 1
		}

		if fullSearch {
			value = -w.negamax(nodeNonPV, newDepth, -alpha-1, -alpha, &childPV)
		}

		if nt.pv() && (moveCount == 1 || value > alpha) {
			value = -w.negamax(nt.next(), newDepth, -beta, -alpha, &childPV)
		}

		w.undoMove(move)

		if w.stopped {
			return Draw
		}

		if nt.root() {
			w.clock.UpdateNodeCounts(move, w.nodes-startNodes)
		}

		if !isCapture && quietCount < len(quietsTried) {
			quietsTried[quietCount] = move
			quietCount++
		}

		if value > bestValue {
			bestValue = value
			if value > alpha {
				bestMove = move
				if value >= beta {
					break // fail high
				}
				alpha = value
				if nt.pv() {
					pv.Update(move, &childPV)
				}
			}
		}
	}

	ss.moveCount = uint8(moveCount)
	ss.inCheck = inCheck

	if moveCount == 0 {
		// No legal moves at all: mate or stalemate.
		if inCheck {
			bestValue = MatedIn(w.ply)
		} else {
			bestValue = Draw
		}
	} else if bestMove != board.NoMove {
		w.updateStats(bestMove, depth, quietsTried[:quietCount], conts)
	}

	if !nt.root() {
		bound := BoundUpper
		if bestValue >= beta {
			bound = BoundLower
		} else if nt.pv() && bestMove != board.NoMove {
			bound = BoundExact
		}

		if bound == BoundExact && !inCheck && depth >= 2 &&
			rawEval.IsValid() && !bestValue.IsTerminal() {
			w.corr.Update(w.pos, bestValue, rawEval, depth)
		}

		w.tt.Write(w.pos.Hash, bound, w.ply, depth, bestMove, rawEval, bestValue)
	}

	return bestValue
}

// updateStats rewards the cutoff move and penalizes the quiets tried
// before it. Quiet cutoffs also refresh the killer slots; capture cutoffs
// touch only capture history.
func (w *Worker) updateStats(bestMove board.Move, depth int, quietsTried []board.Move, conts *[contHistSize]*PieceToHistory) {
	bonus := historyBonus(depth)
	us := w.pos.SideToMove

	if bestMove.IsCapture(w.pos) {
		attacker := w.pos.PieceAt(bestMove.From())
		victim := board.Pawn
		if !bestMove.IsEnPassant() {
			if captured := w.pos.PieceAt(bestMove.To()); captured != board.NoPiece {
				victim = captured.Type()
			}
		}
		w.hist.UpdateCapture(attacker, bestMove.To(), victim, bonus)
		return
	}

	insertKiller(&w.ss(0).killers, bestMove)

	piece := w.pos.PieceAt(bestMove.From())
	w.hist.UpdateQuiet(us, bestMove, piece, conts, bonus)

	for _, m := range quietsTried {
		if m == bestMove {
			continue
		}
		w.hist.UpdateQuiet(us, m, w.pos.PieceAt(m.From()), conts, -bonus)
	}
}

// quiescence resolves captures (and evasions while in check) until the
// position is quiet enough to trust the static eval.
func (w *Worker) quiescence(nt nodeType, alpha, beta Eval, pv *PVLine) Eval {
	if w.ply > w.seldepth {
		w.seldepth = w.ply
	}

	pv.Clear()

	if w.shouldStop() {
		return Draw
	}

	inCheck := w.pos.InCheck()

	if w.ply >= MaxDepth {
		if inCheck {
			return Draw
		}
		return w.adjustEval(w.evaluate())
	}

	if w.isDraw() {
		return Draw
	}

	// Table probe. Quiescence entries are written at depth zero, so any
	// stored entry is deep enough here.
	entry, hit := w.tt.Get(w.pos.Hash)
	ttMove := board.NoMove
	ttEval := Infinity
	ttValue := Infinity
	ttBound := BoundNone
	if hit {
		ttValue = entry.Value.FromTT(w.ply)
		if !nt.pv() && canUseTTValue(entry.Bound, ttValue, alpha, beta) {
			return ttValue
		}
		ttMove = entry.Move
		if ttMove != board.NoMove && !w.pos.PseudoLegal(ttMove) {
			ttMove = board.NoMove
		}
		ttBound = entry.Bound
		ttEval = entry.Eval
	}

	var bestValue, rawValue, futility Eval
	if inCheck {
		// Evasion nodes may not stand pat.
		bestValue = -Infinity
		rawValue = -Infinity
		futility = -Infinity
		w.ss(0).eval = Infinity
	} else {
		if ttEval.IsValid() {
			rawValue = ttEval
		} else {
			rawValue = w.evaluate()
		}
		bestValue = w.adjustEval(rawValue)
		w.ss(0).eval = bestValue

		futility = bestValue + 350

		// A stored value that is tighter than the static eval under its
		// bound is the better stand-pat baseline.
		if ttValue.IsValid() && canUseTTValue(ttBound, ttValue, bestValue, bestValue) {
			bestValue = ttValue
		}

		if bestValue >= beta {
			// Soften the fail-high toward beta; raw stand-pat scores this
			// far from the window tend to overshoot the true value.
			return Eval((int(bestValue) + int(beta)) / 2)
		}
		alpha = maxEval(alpha, bestValue)

		// Delta pruning: when even the best imaginable capture cannot
		// lift the stand pat back to alpha, searching captures is noise.
		if maxCapture := int(maxEval(bestCaptureValue(w.pos), 150)); maxCapture < int(alpha)-int(bestValue) {
			return bestValue
		}
	}

	var childPV PVLine
	bestMove := board.NoMove

	mp := NewMovePicker(w.pos, ttMove, [2]board.Move{}, true)
	conts := w.contTables()

	for {
		move := mp.Next(w.pos, w.hist, conts)
		if move == board.NoMove {
			break
		}

		if !bestValue.IsTerminal() {
			// Futile evasions that do not win material cannot rescue a
			// position whose optimistic bound is below alpha.
			if inCheck && futility <= alpha && !SEE(w.pos, move, 1) {
				bestValue = maxEval(bestValue, futility)
				continue
			}

			// Skip captures that lose material beyond a small concession.
			if !SEE(w.pos, move, -30) {
				continue
			}
		}

		movedPiece := w.pos.PieceAt(move.From())
		moveTo := move.To()
		if !w.makeMove(move) {
			continue
		}
		w.ss(-1).movedPiece = movedPiece
		w.ss(-1).moveTo = moveTo
		w.ss(-1).contHist = w.hist.ContTable(movedPiece, moveTo)

		value := -w.quiescence(nt.next(), -beta, -alpha, &childPV)

		w.undoMove(move)

		if w.stopped {
			return Draw
		}

		if value > bestValue {
			bestValue = value
			if value > alpha {
				bestMove = move
				if nt.pv() {
					pv.Update(move, &childPV)
				}
				if value >= beta {
					break
				}
				alpha = value
			}
		}
	}

	if inCheck && bestValue == -Infinity {
		return MatedIn(w.ply)
	}

	bound := BoundUpper
	if bestValue >= beta {
		bound = BoundLower
	}
	w.tt.Write(w.pos.Hash, bound, w.ply, 0, bestMove, rawValue, bestValue)

	return bestValue
}

// bestCaptureValue is an upper bound on what one capture could gain: the
// most valuable enemy piece plus the promotion upgrade when a pawn stands
// on the seventh rank.
func bestCaptureValue(pos *board.Position) Eval {
	them := pos.SideToMove.Other()
	best := 0
	for _, pt := range [5]board.PieceType{board.Queen, board.Rook, board.Bishop, board.Knight, board.Pawn} {
		if pos.Pieces[them][pt] != 0 {
			best = pieceVal(pt)
			break
		}
	}

	us := pos.SideToMove
	seventh := board.RankMask[6]
	if us == board.Black {
		seventh = board.RankMask[1]
	}
	if pos.Pieces[us][board.Pawn]&seventh != 0 {
		best += queenVal.Value - pawnVal.Value
	}
	return clampEval(best)
}
