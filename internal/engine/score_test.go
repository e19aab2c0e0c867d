package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePredicates(t *testing.T) {
	assert.False(t, Infinity.IsValid())
	assert.False(t, (-Infinity).IsValid())
	assert.True(t, Draw.IsValid())
	assert.True(t, Eval(123).IsValid())

	assert.True(t, MateIn(0).IsTerminal())
	assert.True(t, MatedIn(5).IsTerminal())
	assert.True(t, Infinity.IsTerminal())
	assert.False(t, Eval(900).IsTerminal())
	assert.False(t, Draw.IsTerminal())
}

func TestMateInMonotone(t *testing.T) {
	for ply := 1; ply < MaxDepth; ply++ {
		assert.Greater(t, MateIn(ply-1), MateIn(ply), "closer mates must score higher")
		assert.Less(t, MatedIn(ply-1), MatedIn(ply), "closer mated scores must be lower")
	}
}

func TestTTScoreRoundTrip(t *testing.T) {
	scores := []Eval{Draw, 42, -42, 2999, MateIn(3), MateIn(17), MatedIn(4), MatedIn(60)}
	for _, v := range scores {
		for ply := 0; ply < 40; ply++ {
			assert.Equal(t, v, v.ToTT(ply).FromTT(ply), "score %d ply %d", v, ply)
		}
	}
}

func TestClampEval(t *testing.T) {
	assert.False(t, clampEval(100000).IsTerminal(), "saturated evals stay below mate range")
	assert.False(t, clampEval(-100000).IsTerminal())
	assert.Equal(t, Eval(250), clampEval(250))
}
