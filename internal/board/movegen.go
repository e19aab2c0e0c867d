package board

// GenerateLegalMoves returns every legal move for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAll(ml)
	return p.filterLegal(ml)
}

// GenerateCaptures returns every legal capture, plus push promotions,
// which quiescence wants for the same reason it wants captures.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegal(ml)
}

// addTargets appends one move from from to each square of targets.
func addTargets(ml *MoveList, from Square, targets Bitboard) {
	for targets != 0 {
		ml.Add(NewMove(from, targets.PopLSB()))
	}
}

// addPromotions appends the four promotion choices.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateAll emits the pseudo-legal moves of the side to move; king
// safety is filtered afterwards.
func (p *Position) generateAll(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]
	notOurs := ^p.Occupied[us]

	p.generatePawnMoves(ml, us, enemies, occupied)

	for knights := p.Pieces[us][Knight]; knights != 0; {
		from := knights.PopLSB()
		addTargets(ml, from, KnightAttacks(from)&notOurs)
	}
	for bishops := p.Pieces[us][Bishop]; bishops != 0; {
		from := bishops.PopLSB()
		addTargets(ml, from, BishopAttacks(from, occupied)&notOurs)
	}
	for rooks := p.Pieces[us][Rook]; rooks != 0; {
		from := rooks.PopLSB()
		addTargets(ml, from, RookAttacks(from, occupied)&notOurs)
	}
	for queens := p.Pieces[us][Queen]; queens != 0; {
		from := queens.PopLSB()
		addTargets(ml, from, QueenAttacks(from, occupied)&notOurs)
	}

	ksq := p.KingSquare[us]
	addTargets(ml, ksq, KingAttacks(ksq)&notOurs)

	p.generateCastling(ml, us)
}

// generatePawnMoves emits pushes, captures, promotions and en passant.
// Pawns move as a set: shift the whole bitboard, then recover each origin
// square from the push direction.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR, promoRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & RankMask[2]).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoRank = RankMask[7]
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & RankMask[5]).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoRank = RankMask[0]
		pushDir = -8
	}

	for targets := push1 &^ promoRank; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir), to))
	}
	for targets := push2; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*pushDir), to))
	}
	for targets := attackL &^ promoRank; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to))
	}
	for targets := attackR &^ promoRank; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to))
	}

	for targets := push1 & promoRank; targets != 0; {
		to := targets.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to)
	}
	for targets := attackL & promoRank; targets != 0; {
		to := targets.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to)
	}
	for targets := attackR & promoRank; targets != 0; {
		to := targets.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to)
	}

	p.generateEnPassant(ml, us, pawns)
}

func (p *Position) generateEnPassant(ml *MoveList, us Color, pawns Bitboard) {
	if p.EnPassant == NoSquare {
		return
	}
	// The capturers are the pawns the target square "attacks" from the
	// opposite side's point of view.
	for attackers := pawnAttacks[us.Other()][p.EnPassant] & pawns; attackers != 0; {
		ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
	}
}

// generateCastling emits castle moves whose path is empty and whose king
// route is unattacked; rights are tracked incrementally by MakeMove.
func (p *Position) generateCastling(ml *MoveList, us Color) {
	them := us.Other()

	type wing struct {
		right      CastlingRights
		kFrom, kTo Square
		emptyMask  Bitboard
		route      [3]Square // squares the king may not cross in check
	}

	var wings [2]wing
	if us == White {
		wings = [2]wing{
			{WhiteKingSideCastle, E1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
			{WhiteQueenSideCastle, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
		}
	} else {
		wings = [2]wing{
			{BlackKingSideCastle, E8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
			{BlackQueenSideCastle, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
		}
	}

	for _, w := range wings {
		if p.CastlingRights&w.right == 0 || p.AllOccupied&w.emptyMask != 0 {
			continue
		}
		if p.IsSquareAttacked(w.route[0], them) ||
			p.IsSquareAttacked(w.route[1], them) ||
			p.IsSquareAttacked(w.route[2], them) {
			continue
		}
		ml.Add(NewCastling(w.kFrom, w.kTo))
	}
}

// generateCaptures emits pseudo-legal captures and push promotions only.
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied

	pawns := p.Pieces[us][Pawn]
	var attackL, attackR, promoRank Bitboard
	var pushDir int

	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoRank = RankMask[7]
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoRank = RankMask[0]
		pushDir = -8
	}

	for targets := attackL &^ promoRank; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to))
	}
	for targets := attackR &^ promoRank; targets != 0; {
		to := targets.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to))
	}
	for targets := attackL & promoRank; targets != 0; {
		to := targets.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to)
	}
	for targets := attackR & promoRank; targets != 0; {
		to := targets.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to)
	}

	// Push promotions change material like captures do; quiescence must
	// see them.
	var pushPromos Bitboard
	if us == White {
		pushPromos = pawns.North() & ^occupied & promoRank
	} else {
		pushPromos = pawns.South() & ^occupied & promoRank
	}
	for pushPromos != 0 {
		to := pushPromos.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to)
	}

	p.generateEnPassant(ml, us, pawns)

	for knights := p.Pieces[us][Knight]; knights != 0; {
		from := knights.PopLSB()
		addTargets(ml, from, KnightAttacks(from)&enemies)
	}
	for bishops := p.Pieces[us][Bishop]; bishops != 0; {
		from := bishops.PopLSB()
		addTargets(ml, from, BishopAttacks(from, occupied)&enemies)
	}
	for rooks := p.Pieces[us][Rook]; rooks != 0; {
		from := rooks.PopLSB()
		addTargets(ml, from, RookAttacks(from, occupied)&enemies)
	}
	for queens := p.Pieces[us][Queen]; queens != 0; {
		from := queens.PopLSB()
		addTargets(ml, from, QueenAttacks(from, occupied)&enemies)
	}

	ksq := p.KingSquare[us]
	addTargets(ml, ksq, KingAttacks(ksq)&enemies)
}

// filterLegal keeps the moves that leave our king safe.
func (p *Position) filterLegal(ml *MoveList) *MoveList {
	out := NewMoveList()
	for i := 0; i < ml.Len(); i++ {
		if m := ml.Get(i); p.IsLegal(m) {
			out.Add(m)
		}
	}
	return out
}

// IsLegal reports whether a pseudo-legal move leaves our king out of
// check. King steps are checked directly with the king lifted off the
// board (it can block its own escape square otherwise); everything else
// goes through make/unmake, which also covers en passant pins.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	if m.From() == ksq {
		if m.IsCastling() {
			return true // route already vetted during generation
		}
		occ := p.AllOccupied &^ SquareBB(ksq)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	undo := p.MakeMove(m)
	if !undo.Valid {
		return false
	}
	attacked := p.IsSquareAttacked(ksq, them)
	p.UnmakeMove(m, undo)

	return !attacked
}

// PseudoLegal reports whether m is plausible in this position: the moved
// piece belongs to the side to move, the destination is reachable by that
// piece, and special-move flags match the position. Hash moves can come
// from colliding or torn table entries, so the search validates them here
// before trying them.
func (p *Position) PseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}

	us := p.SideToMove
	from, to := m.From(), m.To()

	piece := p.PieceAt(from)
	if piece == NoPiece || piece.Color() != us {
		return false
	}
	if p.Occupied[us]&SquareBB(to) != 0 {
		return false
	}

	pt := piece.Type()

	if m.IsCastling() {
		if pt != King {
			return false
		}
		ml := NewMoveList()
		p.generateCastling(ml, us)
		return ml.Contains(m)
	}
	if m.IsEnPassant() {
		return pt == Pawn && to == p.EnPassant && pawnAttacks[us][from]&SquareBB(to) != 0
	}
	if m.IsPromotion() && (pt != Pawn || to.RelativeRank(us) != 7) {
		return false
	}

	switch pt {
	case Pawn:
		if to.RelativeRank(us) == 7 && !m.IsPromotion() {
			return false
		}
		if pawnAttacks[us][from]&SquareBB(to) != 0 {
			return p.Occupied[us.Other()]&SquareBB(to) != 0
		}
		// Pushes need empty squares all the way.
		if p.AllOccupied&SquareBB(to) != 0 {
			return false
		}
		if pawnPushes[us][from]&SquareBB(to) != 0 {
			return true
		}
		// Double push from the home rank through an empty square.
		if from.RelativeRank(us) == 1 && abs(int(to)-int(from)) == 16 {
			mid := Square((int(from) + int(to)) / 2)
			return p.AllOccupied&SquareBB(mid) == 0
		}
		return false
	case Knight:
		return knightAttacks[from]&SquareBB(to) != 0
	case Bishop:
		return BishopAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case Rook:
		return RookAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case Queen:
		return QueenAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case King:
		return kingAttacks[from]&SquareBB(to) != 0
	}
	return false
}

// MakeMove applies m and returns the state needed to take it back. A
// corrupted move with nothing on its from square leaves the position
// untouched and comes back with Valid false.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()

	piece := p.PieceAt(from)
	if piece == NoPiece {
		return undo
	}
	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	// Captures first, so the destination is free for the mover.
	if m.IsEnPassant() {
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[them][Pawn][to]
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[us][Pawn][from]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(from, to)
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	// A king move drops both rights; touching a rook corner drops one.
	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		ep := Square((int(from) + int(to)) / 2)
		p.EnPassant = ep
		p.Hash ^= zobristEnPassant[ep.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	return undo
}

// castleRookSquares maps the king's hop to its rook's hop.
func castleRookSquares(kFrom, kTo Square) (rookFrom, rookTo Square) {
	if kTo > kFrom { // king side
		return NewSquare(7, kFrom.Rank()), NewSquare(5, kFrom.Rank())
	}
	return NewSquare(0, kFrom.Rank()), NewSquare(3, kFrom.Rank())
}

// UnmakeMove restores the position from before MakeMove(m).
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other()
	from, to := m.From(), m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	// Demote the promoted piece back to a pawn before walking it home.
	if m.IsPromotion() {
		p.Pieces[us][m.Promotion()] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(from, to)
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		capturedSq := to
		if m.IsEnPassant() {
			capturedSq = to - 8
			if us == Black {
				capturedSq = to + 8
			}
		}
		p.setPiece(undo.CapturedPiece, capturedSq)
	}
}

// HasLegalMoves reports whether the side to move has any legal reply.
func (p *Position) HasLegalMoves() bool {
	ml := NewMoveList()
	p.generateAll(ml)
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate reports check with no reply.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports no reply without check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsInsufficientMaterial reports that neither side can ever mate: bare
// kings, or king and one minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).PopCount()
	bMinors := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).PopCount()

	return wMinors+bMinors <= 1
}
