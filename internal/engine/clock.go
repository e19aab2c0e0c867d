package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/stratus/internal/board"
)

// Limits carries the caller-imposed search budget, straight from the UCI
// go command.
type Limits struct {
	Depth     int           // maximum depth, 0 = unlimited
	Nodes     uint64        // maximum nodes, 0 = unlimited
	MoveTime  time.Duration // fixed time for this move
	Time      [2]time.Duration
	Inc       [2]time.Duration
	MovesToGo int
	Infinite  bool
}

// clockPollMask gates how often workers consult the wall clock: once per
// 2048 nodes.
const clockPollMask = 2047

// Clock decides when a new iteration may start and when the running one
// must be interrupted. The stop flag is shared by every worker; once set,
// nodes unwind returning the draw sentinel and the driver discards the
// partial iteration.
type Clock struct {
	start   time.Time
	optimum time.Duration
	maximum time.Duration

	maxDepth int
	maxNodes uint64
	infinite bool

	stop *atomic.Bool

	// Per-root-move node accounting. When most of the effort went into
	// the move we are already playing, the soft bound shrinks ("easy
	// move"); an unstable best move keeps the full optimum.
	nodeCounts [64][64]uint64
	totalNodes uint64

	lastBest  board.Move
	stability int
}

// NewClock starts the clock for one search. us and gamePly feed the time
// allocation; stop may be shared with other workers and external stop
// requests.
func NewClock(limits Limits, us board.Color, gamePly int, stop *atomic.Bool) *Clock {
	c := &Clock{
		start:    time.Now(),
		maxDepth: MaxDepth - 1,
		maxNodes: limits.Nodes,
		infinite: limits.Infinite,
		stop:     stop,
	}
	if limits.Depth > 0 && limits.Depth < c.maxDepth {
		c.maxDepth = limits.Depth
	}

	switch {
	case limits.MoveTime > 0:
		c.optimum = limits.MoveTime
		c.maximum = limits.MoveTime
	case limits.Infinite || limits.Time[us] == 0:
		c.optimum = time.Hour
		c.maximum = time.Hour
	default:
		timeLeft := limits.Time[us]
		inc := limits.Inc[us]

		mtg := limits.MovesToGo
		if mtg == 0 {
			mtg = 50 - gamePly/4
			if mtg < 10 {
				mtg = 10
			}
		}

		base := timeLeft/time.Duration(mtg) + inc*9/10
		c.optimum = base
		c.maximum = base * 5
		if hardCap := timeLeft * 8 / 10; c.maximum > hardCap {
			c.maximum = hardCap
		}
		if c.optimum < 10*time.Millisecond {
			c.optimum = 10 * time.Millisecond
		}
		if c.maximum < 50*time.Millisecond {
			c.maximum = 50 * time.Millisecond
		}
	}

	return c
}

// Elapsed is the wall time since the search started.
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Stopped reports whether the stop flag is set.
func (c *Clock) Stopped() bool {
	return c.stop.Load()
}

// Stop requests cancellation of the running search.
func (c *Clock) Stop() {
	c.stop.Store(true)
}

// Poll is the periodic hard check, called every 2048 nodes from the
// search. It trips the stop flag when the hard time bound or the node
// budget is exhausted.
func (c *Clock) Poll(nodes uint64) bool {
	if c.stop.Load() {
		return true
	}
	if !c.infinite && c.Elapsed() >= c.maximum {
		c.stop.Store(true)
		return true
	}
	if c.maxNodes > 0 && nodes >= c.maxNodes {
		c.stop.Store(true)
		return true
	}
	return false
}

// UpdateNodeCounts credits the nodes spent underneath one root move.
func (c *Clock) UpdateNodeCounts(m board.Move, delta uint64) {
	c.nodeCounts[m.From()][m.To()] += delta
	c.totalNodes += delta
}

// ShouldStartIteration decides whether another iteration fits the budget.
// depth is the driver's counter: an iteration at counter d searches to
// depth d+1, so the cap is exclusive. bestMove and its node share feed
// the soft bound: a stable best move that absorbed most of the search
// lets us stop at a fraction of the optimum time, while an unstable one
// leaves the soft bound at the optimum, never above it.
func (c *Clock) ShouldStartIteration(depth int, bestMove board.Move) bool {
	if c.stop.Load() {
		return false
	}
	if depth >= c.maxDepth {
		return false
	}
	if depth == 0 || c.infinite {
		return true
	}
	if c.maxNodes > 0 && c.totalNodes >= c.maxNodes {
		return false
	}

	if bestMove == c.lastBest {
		c.stability++
	} else {
		c.stability = 0
		c.lastBest = bestMove
	}

	scale := 100
	switch {
	case c.stability >= 8:
		scale = 50
	case c.stability >= 4:
		scale = 70
	case c.stability >= 2:
		scale = 85
	}

	if bestMove != board.NoMove && c.totalNodes > 0 {
		share := c.nodeCounts[bestMove.From()][bestMove.To()] * 100 / c.totalNodes
		if share >= 90 {
			scale = scale * 3 / 4
		}
	}

	soft := c.optimum * time.Duration(scale) / 100
	if soft > c.maximum {
		soft = c.maximum
	}
	return c.Elapsed() < soft
}
