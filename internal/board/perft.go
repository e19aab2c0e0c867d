package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
// It exercises generation, make and unmake together; the standard
// reference counts make it the canonical movegen test.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}

	ml := p.GenerateLegalMoves()
	if depth == 1 {
		return uint64(ml.Len())
	}

	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}
