// Package eval scores positions in centipawns.
//
// Every evaluator in this package returns the score from the side to
// move's point of view: positive means the player about to move is better.
// Terms are accumulated White-relative and negated once for Black.
package eval

import "github.com/hailam/chesscore/internal/board"

// Evaluator scores a position from the side to move's perspective.
// Implementations may keep per-instance caches and are not safe for
// concurrent use; give each search worker its own.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// Piece values in centipawns. The king carries no material value.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

var pieceValues = [6]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0}

// EndgamePieces is the non-pawn, non-king piece count (both sides) below
// which a position is treated as an endgame.
const EndgamePieces = 6

// Components holds the five evaluation terms, White-relative.
type Components struct {
	Material      int
	Positional    int
	Mobility      int
	KingSafety    int
	PawnStructure int
}

// Total sums the components, still White-relative.
func (c Components) Total() int {
	return c.Material + c.Positional + c.Mobility + c.KingSafety + c.PawnStructure
}

// fromMover converts a White-relative score to the side to move's view.
func fromMover(pos *board.Position, score int) int {
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// IsEndgame reports fewer than EndgamePieces knights, bishops, rooks and
// queens on the board.
func IsEndgame(pos *board.Position) bool {
	n := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			n += pos.Pieces[c][pt].PopCount()
		}
	}
	return n < EndgamePieces
}

// Classical recomputes every term on each call. Pawn structure is cached
// by pawn key.
type Classical struct {
	pawns *PawnTable
}

// NewClassical returns a full evaluator with a pawn cache of pawnCacheKB
// kilobytes; 0 disables the cache.
func NewClassical(pawnCacheKB int) *Classical {
	c := &Classical{}
	if pawnCacheKB > 0 {
		c.pawns = NewPawnTable(pawnCacheKB)
	}
	return c
}

// Evaluate implements Evaluator.
func (e *Classical) Evaluate(pos *board.Position) int {
	return fromMover(pos, e.Breakdown(pos).Total())
}

// Breakdown returns the five White-relative components.
func (e *Classical) Breakdown(pos *board.Position) Components {
	return Components{
		Material:      material(pos),
		Positional:    positional(pos),
		Mobility:      mobility(pos),
		KingSafety:    kingSafety(pos),
		PawnStructure: e.pawnStructure(pos),
	}
}

func (e *Classical) pawnStructure(pos *board.Position) int {
	if e.pawns == nil {
		return pawnStructure(pos)
	}
	if s, ok := e.pawns.Probe(pos.PawnKey); ok {
		return s
	}
	s := pawnStructure(pos)
	e.pawns.Store(pos.PawnKey, s)
	return s
}

// Evaluate scores pos with a throwaway Classical evaluator.
func Evaluate(pos *board.Position) int {
	var e Classical
	return e.Evaluate(pos)
}
