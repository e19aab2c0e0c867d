package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/stratus/internal/board"
)

func TestTTStoreAndProbe(t *testing.T) {
	tt := NewTT(1)

	key := uint64(0x123456789ABCDEF0)
	m := board.NewMove(board.E2, board.E4)

	tt.Write(key, BoundExact, 0, 7, m, 15, 120)

	entry, ok := tt.Get(key)
	require.True(t, ok)
	assert.Equal(t, m, entry.Move)
	assert.Equal(t, Eval(120), entry.Value)
	assert.Equal(t, Eval(15), entry.Eval)
	assert.Equal(t, uint8(7), entry.Depth)
	assert.Equal(t, BoundExact, entry.Bound)
}

func TestTTMiss(t *testing.T) {
	tt := NewTT(1)
	_, ok := tt.Get(0xDEADBEEF)
	assert.False(t, ok)
}

func TestTTMateNormalization(t *testing.T) {
	tt := NewTT(1)
	key := uint64(0x42)

	// A mate found 6 plies from the root, written at ply 6, is stored
	// relative to that node and reads back re-biased to the probing ply.
	tt.Write(key, BoundExact, 6, 4, board.NoMove, Infinity, MateIn(6))

	entry, ok := tt.Get(key)
	require.True(t, ok)
	assert.Equal(t, MateIn(6), entry.Value.FromTT(6))
	assert.Equal(t, MateIn(10), entry.Value.FromTT(10))
}

func TestTTKeepsDeeperEntryMove(t *testing.T) {
	tt := NewTT(1)
	key := uint64(0x99)
	m := board.NewMove(board.G1, board.F3)

	tt.Write(key, BoundExact, 0, 9, m, 10, 30)
	// A later write for the same key without a best move keeps the move.
	tt.Write(key, BoundUpper, 0, 3, board.NoMove, 10, 5)

	entry, ok := tt.Get(key)
	require.True(t, ok)
	assert.Equal(t, m, entry.Move)
	assert.Equal(t, uint8(3), entry.Depth)
}

func TestTTGenerationReplacement(t *testing.T) {
	tt := NewTT(1)

	// Fill one bucket with same-index keys from an old generation.
	base := uint64(0x1000)
	stride := tt.mask + 1
	for i := uint64(0); i < slotsPerBucket; i++ {
		tt.Write(base+i*stride, BoundExact, 0, 20, board.NoMove, 0, 50)
	}

	tt.NewSearch()
	fresh := base + slotsPerBucket*stride
	tt.Write(fresh, BoundExact, 0, 1, board.NoMove, 0, 7)

	entry, ok := tt.Get(fresh)
	require.True(t, ok, "new-generation write must displace an old entry")
	assert.Equal(t, Eval(7), entry.Value)
}

func TestTTCanUseValue(t *testing.T) {
	assert.True(t, canUseTTValue(BoundExact, 0, -10, 10))
	assert.True(t, canUseTTValue(BoundLower, 50, -10, 10))
	assert.False(t, canUseTTValue(BoundLower, 5, -10, 10))
	assert.True(t, canUseTTValue(BoundUpper, -50, -10, 10))
	assert.False(t, canUseTTValue(BoundUpper, 5, -10, 10))
	assert.False(t, canUseTTValue(BoundNone, 0, -10, 10))
}

// Concurrent writers and readers must never surface a corrupt entry: a
// probe either misses or returns exactly what some writer stored for that
// key. The xor checksum turns torn slots into misses.
func TestTTConcurrentAccess(t *testing.T) {
	tt := NewTT(2)

	moves := []board.Move{
		board.NewMove(board.E2, board.E4),
		board.NewMove(board.D2, board.D4),
		board.NewMove(board.G1, board.F3),
		board.NewMove(board.C2, board.C4),
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20000; i++ {
				key := uint64(i % 512)
				m := moves[int(key)%len(moves)]
				tt.Write(key, BoundExact, 0, i%32, m, Eval(key), Eval(key))
				if entry, ok := tt.Get(key); ok {
					// Whatever generation wrote it, the payload must be
					// internally consistent for this key.
					assert.Equal(t, moves[int(key)%len(moves)], entry.Move)
					assert.Equal(t, Eval(key), entry.Value)
				}
			}
		}(g)
	}
	wg.Wait()
}
