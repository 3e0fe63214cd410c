package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore      = 10000000 // TT move gets highest priority
	PromotionBase    = 2000000
	QueenPromoBonus  = 100000
	CaptureBase      = 1000000
	KillerScore1     = 900000 // First killer move
	KillerScore2     = 800000 // Second killer move
	CentralPushBonus = 50
	historyCeiling   = 400000
)

// mvvLva scores a capture as victimValue*10 - attackerValue.
func mvvLva(victim, attacker board.PieceType) int {
	return board.PieceValue[victim]*10 - board.PieceValue[attacker]
}

// MoveOrderer keeps the killer and history tables of one worker.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic (indexed by [from][to])
	history [64][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	mo.killers = [MaxPly][2]board.Move{}
	mo.history = [64][64]int{}
}

// ScoreMoves fills scores for the moves in ml. Pass ply < 0 to leave out
// killers and history.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, ml *board.MoveList, scores []int, ply int, ttMove board.Move) {
	for i := 0; i < ml.Len(); i++ {
		scores[i] = mo.scoreMove(pos, ml.Get(i), ply, ttMove)
	}
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	score := 0
	if m.IsPromotion() {
		score += PromotionBase + board.PieceValue[m.Promotion()]
		if m.Promotion() == board.Queen {
			score += QueenPromoBonus
		}
	}

	attacker := pos.PieceAt(m.From()).Type()
	if m.IsCapture() {
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		return score + CaptureBase + mvvLva(victim, attacker)
	}
	if score != 0 {
		return score
	}

	if ply >= 0 {
		switch m {
		case mo.killers[ply][0]:
			return KillerScore1
		case mo.killers[ply][1]:
			return KillerScore2
		}
		score = mo.history[m.From()][m.To()]
	}
	if attacker == board.Pawn && board.Center.IsSet(m.To()) {
		score += CentralPushBonus
	}
	return score
}

// SortMoves orders moves by descending score. Equal scores keep their
// generation order.
func SortMoves(ml *board.MoveList, scores []int) {
	for i := 1; i < ml.Len(); i++ {
		m, s := ml.Get(i), scores[i]
		j := i - 1
		for j >= 0 && scores[j] < s {
			ml.Set(j+1, ml.Get(j))
			scores[j+1] = scores[j]
			j--
		}
		ml.Set(j+1, m)
		scores[j+1] = s
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if mo.killers[ply][0] != m {
		mo.killers[ply][1] = mo.killers[ply][0]
		mo.killers[ply][0] = m
	}
}

// UpdateHistory rewards a quiet cutoff move by depth squared. When an
// entry passes the ceiling the whole table is halved.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	from, to := m.From(), m.To()
	mo.history[from][to] += depth * depth
	if mo.history[from][to] > historyCeiling {
		for i := range mo.history {
			for j := range mo.history[i] {
				mo.history[i][j] /= 2
			}
		}
	}
}

// HistoryScore returns the history value of m.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}
