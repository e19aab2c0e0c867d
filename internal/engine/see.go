package engine

import (
	"github.com/hailam/stratus/internal/board"
)

// SEE statically resolves the capture sequence on the destination square of
// m and reports whether the side to move comes out at least threshold
// centipawns ahead. It walks a swap-off loop over an occupancy copy,
// always recapturing with the least valuable attacker and uncovering x-ray
// attackers as pieces leave the board. The position is never mutated.
func SEE(pos *board.Position, m board.Move, threshold Eval) bool {
	// Castling never wins or loses material.
	if m.IsCastling() {
		return threshold <= 0
	}

	from, to := m.From(), m.To()

	swap := seeCaptureValue(pos, m) - int(threshold)
	if swap < 0 {
		return false
	}

	// Worst case: our piece is taken for free after the capture.
	swap = pieceVal(pos.PieceAt(from).Type()) - swap
	if swap <= 0 {
		return true
	}

	occupied := pos.AllOccupied &^ board.SquareBB(from) &^ board.SquareBB(to)
	if m.IsEnPassant() {
		occupied &^= board.SquareBB(epCapturedSquare(pos, to))
	}

	stm := pos.SideToMove
	attackers := pos.AttackersTo(to, occupied)
	res := true

	for {
		stm = stm.Other()
		attackers &= occupied

		stmAttackers := attackers & pos.Occupied[stm]
		if stmAttackers == 0 {
			break
		}

		res = !res

		// Recapture with the least valuable attacker; sliding recaptures
		// can uncover x-ray attackers behind them.
		var bb board.Bitboard
		switch {
		case stmAttackers&pos.Pieces[stm][board.Pawn] != 0:
			bb = stmAttackers & pos.Pieces[stm][board.Pawn]
			if swap = pawnVal.Value - swap; swap < seeRes(res) {
				return res
			}
			occupied &^= board.SquareBB(bb.LSB())
			attackers |= board.BishopAttacks(to, occupied) & allDiagSliders(pos)
		case stmAttackers&pos.Pieces[stm][board.Knight] != 0:
			bb = stmAttackers & pos.Pieces[stm][board.Knight]
			if swap = knightVal.Value - swap; swap < seeRes(res) {
				return res
			}
			occupied &^= board.SquareBB(bb.LSB())
		case stmAttackers&pos.Pieces[stm][board.Bishop] != 0:
			bb = stmAttackers & pos.Pieces[stm][board.Bishop]
			if swap = bishopVal.Value - swap; swap < seeRes(res) {
				return res
			}
			occupied &^= board.SquareBB(bb.LSB())
			attackers |= board.BishopAttacks(to, occupied) & allDiagSliders(pos)
		case stmAttackers&pos.Pieces[stm][board.Rook] != 0:
			bb = stmAttackers & pos.Pieces[stm][board.Rook]
			if swap = rookVal.Value - swap; swap < seeRes(res) {
				return res
			}
			occupied &^= board.SquareBB(bb.LSB())
			attackers |= board.RookAttacks(to, occupied) & allOrthSliders(pos)
		case stmAttackers&pos.Pieces[stm][board.Queen] != 0:
			bb = stmAttackers & pos.Pieces[stm][board.Queen]
			if swap = queenVal.Value - swap; swap < seeRes(res) {
				return res
			}
			occupied &^= board.SquareBB(bb.LSB())
			attackers |= (board.BishopAttacks(to, occupied) & allDiagSliders(pos)) |
				(board.RookAttacks(to, occupied) & allOrthSliders(pos))
		default:
			// Only the king can recapture. If the other side still has an
			// attacker the king may not step in, so the previous verdict
			// stands inverted.
			if attackers&^pos.Occupied[stm] != 0 {
				return !res
			}
			return res
		}
	}

	return res
}

// seeRes converts the running side's verdict into the break threshold of
// the swap loop: the side to move stops recapturing once the balance can
// no longer flip in its favor.
func seeRes(res bool) int {
	if res {
		return 1
	}
	return 0
}

// seeCaptureValue is the material gained by the first capture, including
// the promotion upgrade.
func seeCaptureValue(pos *board.Position, m board.Move) int {
	var v int
	if m.IsEnPassant() {
		v = pawnVal.Value
	} else if victim := pos.PieceAt(m.To()); victim != board.NoPiece {
		v = pieceVal(victim.Type())
	}
	if m.IsPromotion() {
		v += pieceVal(m.Promotion()) - pawnVal.Value
	}
	return v
}

func epCapturedSquare(pos *board.Position, to board.Square) board.Square {
	if pos.SideToMove == board.White {
		return to - 8
	}
	return to + 8
}

func allDiagSliders(pos *board.Position) board.Bitboard {
	return pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]
}

func allOrthSliders(pos *board.Position) board.Bitboard {
	return pos.Pieces[board.White][board.Rook] | pos.Pieces[board.Black][board.Rook] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]
}
