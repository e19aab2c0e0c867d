package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hailam/stratus/internal/board"
)

func TestClockDepthLimit(t *testing.T) {
	var stop atomic.Bool
	c := NewClock(Limits{Depth: 4}, board.White, 0, &stop)

	// Counter d searches depth d+1: iterations 0..3 cover depths 1..4.
	for d := 0; d < 4; d++ {
		assert.True(t, c.ShouldStartIteration(d, board.NoMove), "depth %d", d)
	}
	assert.False(t, c.ShouldStartIteration(4, board.NoMove))
}

func TestClockNodeBudget(t *testing.T) {
	var stop atomic.Bool
	c := NewClock(Limits{Nodes: 1000}, board.White, 0, &stop)

	assert.False(t, c.Poll(500))
	assert.False(t, c.Stopped())
	assert.True(t, c.Poll(1000))
	assert.True(t, c.Stopped(), "exhausting the node budget must trip the stop flag")
}

func TestClockStopFlagShared(t *testing.T) {
	var stop atomic.Bool
	c := NewClock(Limits{Infinite: true}, board.White, 0, &stop)

	assert.False(t, c.Stopped())
	stop.Store(true)
	assert.True(t, c.Stopped())
	assert.False(t, c.ShouldStartIteration(1, board.NoMove))
}

func TestClockMoveTimeBounds(t *testing.T) {
	var stop atomic.Bool
	c := NewClock(Limits{MoveTime: 20 * time.Millisecond}, board.White, 0, &stop)

	assert.False(t, c.Poll(0))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, c.Poll(0), "hard bound must stop the search")
}

func TestClockAllocatesFromRemainingTime(t *testing.T) {
	var stop atomic.Bool
	limits := Limits{}
	limits.Time[board.White] = 60 * time.Second
	limits.Inc[board.White] = time.Second
	c := NewClock(limits, board.White, 20, &stop)

	assert.Greater(t, c.optimum, time.Duration(0))
	assert.GreaterOrEqual(t, c.maximum, c.optimum)
	assert.LessOrEqual(t, c.maximum, 48*time.Second, "never budget more than 80 percent of the remaining time")
}

func TestClockNodeCounts(t *testing.T) {
	var stop atomic.Bool
	c := NewClock(Limits{Infinite: true}, board.White, 0, &stop)

	m := board.NewMove(board.E2, board.E4)
	c.UpdateNodeCounts(m, 900)
	c.UpdateNodeCounts(board.NewMove(board.D2, board.D4), 100)

	assert.Equal(t, uint64(900), c.nodeCounts[m.From()][m.To()])
	assert.Equal(t, uint64(1000), c.totalNodes)
}
