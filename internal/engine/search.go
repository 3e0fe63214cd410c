package engine

import (
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// MaxQuiescenceDepth bounds the capture search below the horizon.
	MaxQuiescenceDepth = 8

	// Scores beyond this magnitude are mate scores.
	mateThreshold = MateScore - MaxPly
)

// Stop flag is polled once per this many nodes.
const pollInterval = 2048

// Options configures an Engine.
type Options struct {
	// HashMB is the transposition table size in megabytes.
	HashMB int

	// Threads is the default worker count when Limits.Threads is zero.
	Threads int

	// UseTT enables transposition table lookups and stores.
	UseTT bool

	// TTExactDepth restricts cutoffs to entries searched to exactly the
	// requested depth. By default deeper entries are accepted as well.
	TTExactDepth bool

	// NullMove enables null move pruning.
	NullMove bool

	// QuiescenceDepth caps the capture search below the horizon. Zero or
	// anything above MaxQuiescenceDepth means MaxQuiescenceDepth.
	QuiescenceDepth int

	// Book is consulted once before each search. May be nil.
	Book Book

	// NewEvaluator builds one evaluator per worker.
	NewEvaluator func() eval.Evaluator

	// OnInfo receives a report after every iteration that improves the
	// shared best result. Calls are serialized.
	OnInfo func(SearchInfo)

	Logger zerolog.Logger
}

// DefaultOptions returns the settings used by the binaries.
func DefaultOptions() Options {
	return Options{
		HashMB:   64,
		Threads:  1,
		UseTT:    true,
		NullMove: true,
		NewEvaluator: func() eval.Evaluator {
			return eval.NewIncremental(nil)
		},
		Logger: zerolog.Nop(),
	}
}

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	next := ply + 1
	if next < MaxPly && pv.length[next] > next {
		copy(pv.moves[ply][next:pv.length[next]], pv.moves[next][next:pv.length[next]])
		pv.length[ply] = pv.length[next]
		return
	}
	pv.length[ply] = next
}

func (pv *PVTable) root() []board.Move {
	out := make([]board.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return abs(score) >= mateThreshold
}

// MateIn converts a mate score to a move count, positive when the side to
// move mates. It returns 0 for ordinary scores.
func MateIn(score int) int {
	switch {
	case score >= mateThreshold:
		return (MateScore - score + 1) / 2
	case score <= -mateThreshold:
		return -(MateScore + score + 1) / 2
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
