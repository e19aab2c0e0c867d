package engine

import (
	"github.com/hailam/stratus/internal/board"
)

// Picker stages, in yield order. Quiescence mode jumps from the capture
// stages straight to bad captures; when the side to move is in check the
// quiet stages stay enabled so evasions are searched.
type pickStage uint8

const (
	stageTTMove pickStage = iota
	stageGenCaptures
	stageGoodCaptures
	stageKiller1
	stageKiller2
	stageGenQuiets
	stageQuiets
	stageBadCaptures
	stageDone
)

const mvvScale = 16384

// scoredMove stays eight bytes so the picker's backing arrays keep
// negamax stack frames small.
type scoredMove struct {
	move  board.Move
	score int32
}

// MovePicker lazily generates and orders the moves of one node. Stages run
// TT move, winning captures (SEE >= 0) by MVV-LVA plus capture history,
// the two killers, quiets by butterfly plus continuation history, then
// losing captures. Construction does no generation; each stage is built
// the first time it is reached. The picker never yields the TT move twice
// and never yields an illegal move.
type MovePicker struct {
	stage   pickStage
	ttMove  board.Move
	killers [2]board.Move

	captures [96]scoredMove
	capN     int
	capIdx   int

	bad  [96]scoredMove
	badN int
	badI int

	quiets   [224]scoredMove
	quietN   int
	quietIdx int

	quiescence bool
	evasions   bool
}

// NewMovePicker builds a picker. ttMove may be NoMove; killers may hold
// NoMove slots. quiescenceOnly restricts output to captures and promotions
// unless the position is in check.
func NewMovePicker(pos *board.Position, ttMove board.Move, killers [2]board.Move, quiescenceOnly bool) MovePicker {
	mp := MovePicker{
		stage:      stageTTMove,
		ttMove:     ttMove,
		killers:    killers,
		quiescence: quiescenceOnly,
		evasions:   pos.InCheck(),
	}
	return mp
}

// Next yields the next move to try, or NoMove when exhausted.
func (mp *MovePicker) Next(pos *board.Position, hist *History, conts *[contHistSize]*PieceToHistory) board.Move {
	for {
		switch mp.stage {
		case stageTTMove:
			mp.stage = stageGenCaptures
			m := mp.ttMove
			if m != board.NoMove && pos.PseudoLegal(m) && pos.IsLegal(m) {
				if !mp.quiescence || mp.evasions || m.IsCapture(pos) || m.IsPromotion() {
					return m
				}
			}

		case stageGenCaptures:
			mp.genCaptures(pos, hist)
			mp.stage = stageGoodCaptures

		case stageGoodCaptures:
			for mp.capIdx < mp.capN {
				sm := mp.pickBest(mp.captures[:mp.capN], mp.capIdx)
				mp.capIdx++
				if !SEE(pos, sm.move, 0) {
					if mp.badN < len(mp.bad) {
						mp.bad[mp.badN] = sm
						mp.badN++
					}
					continue
				}
				return sm.move
			}
			if mp.quiescence && !mp.evasions {
				mp.stage = stageBadCaptures
			} else {
				mp.stage = stageKiller1
			}

		case stageKiller1:
			mp.stage = stageKiller2
			if m := mp.killers[0]; mp.killerOK(pos, m) {
				return m
			}

		case stageKiller2:
			mp.stage = stageGenQuiets
			if m := mp.killers[1]; mp.killerOK(pos, m) {
				return m
			}

		case stageGenQuiets:
			mp.genQuiets(pos, hist, conts)
			mp.stage = stageQuiets

		case stageQuiets:
			if mp.quietIdx < mp.quietN {
				sm := mp.pickBest(mp.quiets[:mp.quietN], mp.quietIdx)
				mp.quietIdx++
				return sm.move
			}
			mp.stage = stageBadCaptures

		case stageBadCaptures:
			if mp.badI < mp.badN {
				m := mp.bad[mp.badI].move
				mp.badI++
				return m
			}
			mp.stage = stageDone

		case stageDone:
			return board.NoMove
		}
	}
}

// killerOK gates a killer slot: present, distinct from the TT move, quiet
// in this position, and actually legal here (killers come from sibling
// nodes and may not apply).
func (mp *MovePicker) killerOK(pos *board.Position, m board.Move) bool {
	return m != board.NoMove &&
		m != mp.ttMove &&
		!m.IsCapture(pos) && !m.IsPromotion() &&
		pos.PseudoLegal(m) && pos.IsLegal(m)
}

// pickBest moves the highest-scored remaining entry to position from and
// returns it. Equal scores keep generation order, so picking is
// deterministic.
func (mp *MovePicker) pickBest(list []scoredMove, from int) scoredMove {
	best := from
	for i := from + 1; i < len(list); i++ {
		if list[i].score > list[best].score {
			best = i
		}
	}
	picked := list[best]
	copy(list[from+1:best+1], list[from:best])
	list[from] = picked
	return picked
}

func (mp *MovePicker) genCaptures(pos *board.Position, hist *History) {
	ml := pos.GenerateCaptures()
	for i := 0; i < ml.Len() && mp.capN < len(mp.captures); i++ {
		m := ml.Get(i)
		if m == mp.ttMove {
			continue
		}
		attacker := pos.PieceAt(m.From())
		victim := board.Pawn
		if !m.IsEnPassant() {
			if captured := pos.PieceAt(m.To()); captured != board.NoPiece {
				victim = captured.Type()
			} else if m.IsPromotion() {
				victim = m.Promotion() // quiet promotion: order by promoted piece
			}
		}
		score := pieceVal(victim)*mvvScale - pieceVal(attacker.Type()) +
			hist.CaptureScore(attacker, m.To(), victim)
		mp.captures[mp.capN] = scoredMove{move: m, score: int32(score)}
		mp.capN++
	}
}

func (mp *MovePicker) genQuiets(pos *board.Position, hist *History, conts *[contHistSize]*PieceToHistory) {
	us := pos.SideToMove
	ml := pos.GenerateLegalMoves()
	for i := 0; i < ml.Len() && mp.quietN < len(mp.quiets); i++ {
		m := ml.Get(i)
		if m == mp.ttMove || m == mp.killers[0] || m == mp.killers[1] {
			continue
		}
		if m.IsCapture(pos) || m.IsPromotion() {
			continue
		}
		piece := pos.PieceAt(m.From())
		mp.quiets[mp.quietN] = scoredMove{
			move:  m,
			score: int32(hist.QuietScore(us, m, piece, conts)),
		}
		mp.quietN++
	}
}
