package engine

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/sfnnue"

	"github.com/hailam/stratus/internal/board"
)

// SearchInfo is published after every completed iteration.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    Eval
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	HashFull int
	PV       []board.Move
}

// SearchResult is the final outcome of a search.
type SearchResult struct {
	Move  board.Move
	Score Eval
	Depth int
	PV    []board.Move
}

// Engine owns the shared search state: the transposition table, the
// history and correction tables, and the worker pool. Multiple workers
// are scaffolded for lazy SMP (each has an id and independently
// cancellable state); this driver searches on worker 0.
type Engine struct {
	tt      *TT
	hist    *History
	corr    *CorrectionHistory
	workers []*Worker

	stopFlag atomic.Bool

	rootKeys []uint64

	useNNUE bool
	nnueNet *sfnnue.Networks

	// OnInfo receives one SearchInfo per completed iteration, from
	// worker 0 only.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a hash table of ttMB megabytes and the
// given number of workers.
func NewEngine(ttMB, threads int) *Engine {
	if threads < 1 {
		threads = 1
	}
	e := &Engine{
		tt:   NewTT(ttMB),
		hist: NewHistory(),
		corr: NewCorrectionHistory(),
	}
	e.workers = make([]*Worker, threads)
	for i := range e.workers {
		e.workers[i] = NewWorker(i, e.tt, e.hist, e.corr)
	}
	return e
}

// SetThreads resizes the worker pool.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = make([]*Worker, n)
	for i := range e.workers {
		e.workers[i] = NewWorker(i, e.tt, e.hist, e.corr)
		if e.nnueNet != nil {
			e.workers[i].nnue = newNNUEState(e.nnueNet)
			e.workers[i].useNNUE = e.useNNUE
		}
	}
}

// ResizeHash reallocates the transposition table.
func (e *Engine) ResizeHash(mb int) {
	e.tt.Resize(mb)
}

// Clear wipes the table and learned statistics, as on ucinewgame.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.hist.Clear()
	e.corr.Clear()
}

// SetPositionHistory hands the engine the hashes of the game so far, for
// repetition detection across the root.
func (e *Engine) SetPositionHistory(keys []uint64) {
	e.rootKeys = make([]uint64, len(keys))
	copy(e.rootKeys, keys)
}

// LoadNNUE loads the evaluation networks and enables NNUE scoring.
func (e *Engine) LoadNNUE(bigPath, smallPath string) error {
	nets, err := sfnnue.LoadNetworks(bigPath, smallPath)
	if err != nil {
		return fmt.Errorf("loading NNUE networks: %w", err)
	}
	e.nnueNet = nets
	for _, w := range e.workers {
		w.nnue = newNNUEState(nets)
	}
	e.SetUseNNUE(true)
	log.Printf("[engine] NNUE networks loaded")
	return nil
}

// SetUseNNUE toggles between the NNUE and classical leaf evaluators.
func (e *Engine) SetUseNNUE(use bool) {
	e.useNNUE = use && e.nnueNet != nil
	for _, w := range e.workers {
		w.useNNUE = e.useNNUE
	}
}

// UseNNUE reports the active evaluator.
func (e *Engine) UseNNUE() bool { return e.useNNUE }

// Stop interrupts the running search. The current iteration's partial
// result is discarded; the previous iteration's output stands.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Search runs iterative deepening on pos within limits and returns the
// best move found. gamePly is the game half-move count, used by time
// allocation.
func (e *Engine) Search(pos *board.Position, limits Limits, gamePly int) SearchResult {
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	clock := NewClock(limits, pos.SideToMove, gamePly, &e.stopFlag)

	w := e.workers[0]
	w.InitSearch(pos, e.rootKeys, clock)

	start := time.Now()
	w.IterativeDeepening(func(w *Worker) {
		if e.OnInfo == nil {
			return
		}
		elapsed := time.Since(start)
		nps := uint64(0)
		if elapsed > 0 {
			nps = uint64(float64(w.Nodes()) / elapsed.Seconds())
		}
		e.OnInfo(SearchInfo{
			Depth:    w.depth + 1,
			SelDepth: w.SelDepth(),
			Score:    w.Eval(),
			Nodes:    w.Nodes(),
			NPS:      nps,
			Time:     elapsed,
			HashFull: e.tt.Hashfull(),
			PV:       w.PV().Moves(),
		})
	})

	best := w.BestMove()
	if best == board.NoMove {
		// Interrupted before depth one completed: fall back to any legal
		// move rather than forfeiting.
		if ml := pos.GenerateLegalMoves(); ml.Len() > 0 {
			best = ml.Get(0)
		}
	}

	return SearchResult{
		Move:  best,
		Score: w.Eval(),
		Depth: w.depth,
		PV:    w.PV().Moves(),
	}
}

// ScoreString renders a score the UCI way: centipawns, or moves to mate.
func ScoreString(v Eval) string {
	if !v.IsTerminal() || !v.IsValid() {
		return fmt.Sprintf("cp %d", int(v))
	}
	var moves int
	if v > 0 {
		moves = (int(Mate-v) + 1) / 2
	} else {
		moves = -(int(Mate+v) + 1) / 2
	}
	return fmt.Sprintf("mate %d", moves)
}
