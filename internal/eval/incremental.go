package eval

import "github.com/hailam/chesscore/internal/board"

// Incremental caches the five components together with the piece
// bitboards they were computed from. The next call diffs the bitboards:
// material and piece-square terms are adjusted for the changed squares
// only, pawn structure is recomputed only when a pawn bitboard changed,
// and mobility and king safety only when any piece moved.
//
// The result always equals Classical.Evaluate on the same position.
type Incremental struct {
	full   *Classical
	valid  bool
	tables *board.Tables
	pieces [2][6]board.Bitboard
	comp   Components

	// Recomputation counters, for tests and diagnostics.
	PawnRecomputes    int
	DynamicRecomputes int
}

// NewIncremental wraps a full evaluator; nil gets a default one.
func NewIncremental(full *Classical) *Incremental {
	if full == nil {
		full = NewClassical(256)
	}
	return &Incremental{full: full}
}

// Evaluate implements Evaluator.
func (e *Incremental) Evaluate(pos *board.Position) int {
	e.update(pos)
	return fromMover(pos, e.comp.Total())
}

// Components returns the cached White-relative terms for pos.
func (e *Incremental) Components(pos *board.Position) Components {
	e.update(pos)
	return e.comp
}

// Reset drops the cached state.
func (e *Incremental) Reset() {
	e.valid = false
}

func (e *Incremental) update(pos *board.Position) {
	if !e.valid || e.tables != pos.Tables() {
		e.comp = e.full.Breakdown(pos)
		e.pieces = pos.Pieces
		e.tables = pos.Tables()
		e.valid = true
		return
	}

	moved, pawnsMoved := false, false
	for c := board.White; c <= board.Black; c++ {
		s := sign(c)
		for pt := board.Pawn; pt <= board.King; pt++ {
			before, after := e.pieces[c][pt], pos.Pieces[c][pt]
			if before == after {
				continue
			}
			moved = true
			if pt == board.King {
				continue
			}
			if pt == board.Pawn {
				pawnsMoved = true
			}
			removed, added := before&^after, after&^before
			e.comp.Material += s * pieceValues[pt] * (added.PopCount() - removed.PopCount())
			for removed != 0 {
				e.comp.Positional -= s * pstValue(pt, c, removed.PopLSB())
			}
			for added != 0 {
				e.comp.Positional += s * pstValue(pt, c, added.PopLSB())
			}
		}
	}
	if !moved {
		return
	}
	e.pieces = pos.Pieces
	if pawnsMoved {
		e.comp.PawnStructure = e.full.pawnStructure(pos)
		e.PawnRecomputes++
	}
	e.comp.Mobility = mobility(pos)
	e.comp.KingSafety = kingSafety(pos)
	e.DynamicRecomputes++
}
