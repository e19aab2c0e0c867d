package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/stratus/internal/board"
)

func searchFEN(t *testing.T, fen string, depth int) SearchResult {
	t.Helper()
	pos := mustPos(t, fen)
	eng := NewEngine(64, 1)
	return eng.Search(pos, Limits{Depth: depth}, 0)
}

func TestSearchStartPosition(t *testing.T) {
	result := searchFEN(t, board.StartFEN, 8)

	require.NotEmpty(t, result.PV)
	assert.Equal(t, result.PV[0], result.Move)
	assert.LessOrEqual(t, int(result.Score), 60)
	assert.GreaterOrEqual(t, int(result.Score), -60)

	mainstream := map[string]bool{"e2e4": true, "d2d4": true, "g1f3": true, "c2c4": true}
	assert.True(t, mainstream[result.Move.String()],
		"unexpected opening move %s", result.Move)
}

func TestSearchMateInOne(t *testing.T) {
	// Scholar's mate is on the board.
	result := searchFEN(t, "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4", 4)

	assert.Equal(t, MateIn(1), result.Score)
	assert.Equal(t, "h5f7", result.Move.String())
	assert.Len(t, result.PV, 1)
}

func TestSearchMateInTwo(t *testing.T) {
	// 1.Kg6 boxes the king, 2.Qa8 mates.
	result := searchFEN(t, "7k/8/5K2/8/8/8/8/Q7 w - - 0 1", 6)

	assert.Equal(t, MateIn(3), result.Score)
	assert.Len(t, result.PV, 3)
}

func TestSearchCheckmatedRoot(t *testing.T) {
	// Fool's mate, white to move and mated: no PV, mated-in-zero score.
	result := searchFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", 4)

	assert.Equal(t, MatedIn(0), result.Score)
	assert.Empty(t, result.PV)
	assert.Equal(t, board.NoMove, result.Move)
}

func TestSearchStalemateRoot(t *testing.T) {
	result := searchFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 5)

	assert.Equal(t, Draw, result.Score)
	assert.Empty(t, result.PV)
}

func TestSearchBlockedKingPawnDraw(t *testing.T) {
	// King and pawn lock the white king in; white has no legal move.
	result := searchFEN(t, "8/8/8/8/8/4k3/4p3/4K3 w - - 0 1", 8)
	assert.Equal(t, Draw, result.Score)
	assert.Empty(t, result.PV)
}

func TestSearchKPKWinning(t *testing.T) {
	result := searchFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", 12)

	require.NotEmpty(t, result.PV)
	assert.Greater(t, int(result.Score), 50, "extra pawn must register as an advantage")
}

func TestSearchBackRankRook(t *testing.T) {
	result := searchFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 6)

	assert.Equal(t, MateIn(1), result.Score)
	require.NotEmpty(t, result.PV)
	assert.Equal(t, "a1a8", result.PV[0].String())
}

func TestSearchDeterministic(t *testing.T) {
	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

	first := searchFEN(t, fen, 6)
	second := searchFEN(t, fen, 6)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.PV, second.PV)
}

func TestSearchScoreWithinMateBounds(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	for _, fen := range fens {
		result := searchFEN(t, fen, 5)
		assert.GreaterOrEqual(t, result.Score, -Mate, fen)
		assert.LessOrEqual(t, result.Score, Mate, fen)
	}
}

func TestSearchLeavesPositionUntouched(t *testing.T) {
	pos := mustPos(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	before := *pos

	eng := NewEngine(16, 1)
	eng.Search(pos, Limits{Depth: 5}, 0)

	assert.Equal(t, before, *pos, "search must not mutate the caller's position")
}

func TestSearchWorkerBoardRestored(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	eng := NewEngine(16, 1)
	w := eng.workers[0]

	eng.Search(pos, Limits{Depth: 6}, 0)

	assert.Equal(t, pos.Hash, w.pos.Hash, "worker board must equal its entry state after search")
	assert.Equal(t, pos.ToFEN(), w.pos.ToFEN())
}

func TestSearchStopInterrupts(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	eng := NewEngine(16, 1)

	done := make(chan SearchResult, 1)
	go func() {
		done <- eng.Search(pos, Limits{Infinite: true}, 0)
	}()

	time.Sleep(100 * time.Millisecond)
	eng.Stop()

	select {
	case result := <-done:
		legal := pos.GenerateLegalMoves()
		assert.True(t, legal.Contains(result.Move), "interrupted search must still produce a legal move")
	case <-time.After(10 * time.Second):
		t.Fatal("search did not stop")
	}
}

func TestSearchNodeLimit(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	eng := NewEngine(16, 1)

	eng.Search(pos, Limits{Nodes: 20000}, 0)
	// The poll granularity allows a small overshoot, never a runaway.
	assert.Less(t, eng.workers[0].Nodes(), uint64(20000+4096))
}

func TestSearchReportsInfoPerIteration(t *testing.T) {
	pos := mustPos(t, board.StartFEN)
	eng := NewEngine(16, 1)

	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) { infos = append(infos, info) }

	eng.Search(pos, Limits{Depth: 5}, 0)

	require.NotEmpty(t, infos)
	for i, info := range infos {
		assert.Equal(t, i+1, info.Depth)
		assert.NotEmpty(t, info.PV)
		assert.Greater(t, info.Nodes, uint64(0))
		assert.GreaterOrEqual(t, info.SelDepth, info.Depth-1)
	}
}

func TestRepetitionDetectedInSearchPath(t *testing.T) {
	// High halfmove clock keeps the repetition window open.
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 40 1"
	pos := mustPos(t, fen)

	// Hash of the position after Nf3, which we pretend already occurred.
	probe := pos.Copy()
	nf3, err := board.ParseMove("g1f3", probe)
	require.NoError(t, err)
	require.True(t, probe.MakeMove(nf3).Valid)
	repeated := probe.Hash

	eng := NewEngine(16, 1)
	w := eng.workers[0]
	clock := NewClock(Limits{Depth: 3}, pos.SideToMove, 0, &eng.stopFlag)
	w.InitSearch(pos, []uint64{repeated, 0xAAAA, 0xBBBB}, clock)

	require.True(t, w.makeMove(nf3))
	assert.True(t, w.isDraw(), "revisiting a position from the game history is a draw")
	w.undoMove(nf3)

	assert.False(t, w.isDraw())
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "cp 35", ScoreString(35))
	assert.Equal(t, "cp -120", ScoreString(-120))
	assert.Equal(t, "mate 2", ScoreString(MateIn(3)))
	assert.Equal(t, "mate 1", ScoreString(MateIn(1)))
	assert.Equal(t, "mate -2", ScoreString(MatedIn(4)))
}
