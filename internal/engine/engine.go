// Package engine searches chess positions for the best move.
//
// The search is iterative-deepening negamax with alpha-beta pruning, a
// shared lock-free transposition table and quiescence search. Several
// workers search the same position in parallel (Lazy SMP) and the deepest
// completed iteration across all of them is the answer.
package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

var (
	// ErrNoPosition is returned when FindBestMove is given no position.
	ErrNoPosition = errors.New("engine: no position")

	// ErrWorkerPanic wraps a panic recovered from a search worker.
	ErrWorkerPanic = errors.New("engine: worker panic")
)

// MaxThreads bounds the number of search workers.
const MaxThreads = 256

// Book supplies prepared moves for known positions.
type Book interface {
	GetMove(fen string) (board.Move, bool)
}

// SearchInfo contains information about the current search.
type SearchInfo struct {
	ID       uuid.UUID
	Depth    int
	Score    int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
	Worker   int
}

// Limits specifies constraints on one search. Zero values mean no limit,
// except Threads where zero means the engine default.
type Limits struct {
	MaxDepth  int
	TimeLimit time.Duration // hard deadline
	SoftTime  time.Duration // no new iteration is started after this
	Threads   int

	// Infinite keeps the search going until ctx is done: a proven mate
	// does not end it, and FindBestMove returns only after cancellation.
	Infinite bool
}

// Terminal describes a root position without legal moves.
type Terminal uint8

const (
	NotTerminal Terminal = iota
	Checkmate
	Stalemate
)

func (t Terminal) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return ""
}

// Result is the outcome of FindBestMove.
type Result struct {
	ID       uuid.UUID
	Move     board.Move
	Score    int
	Depth    int
	Nodes    uint64
	PV       []board.Move
	Elapsed  time.Duration
	Terminal Terminal
	FromBook bool
}

// Engine is the chess search engine. One search runs at a time; the
// transposition table persists between searches.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	tt      *TranspositionTable
	workers []*Worker
	log     zerolog.Logger
}

// New creates an engine. Zero-valued fields of opts fall back to
// DefaultOptions where a zero would be unusable.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.HashMB <= 0 {
		opts.HashMB = def.HashMB
	}
	if opts.Threads <= 0 {
		opts.Threads = def.Threads
	}
	if opts.NewEvaluator == nil {
		opts.NewEvaluator = def.NewEvaluator
	}
	return &Engine{
		opts: opts,
		tt:   NewTranspositionTable(opts.HashMB),
		log:  opts.Logger.With().Str("component", "engine").Logger(),
	}
}

// Options returns a copy of the current options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetBook installs an opening book; nil removes it.
func (e *Engine) SetBook(b Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Book = b
}

// SetOnInfo installs the progress callback.
func (e *Engine) SetOnInfo(fn func(SearchInfo)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.OnInfo = fn
}

// SetThreads changes the default worker count.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Threads = clampThreads(n)
}

// SetHashSize replaces the transposition table with one of sizeMB.
func (e *Engine) SetHashSize(sizeMB int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.HashMB = sizeMB
	e.tt = NewTranspositionTable(sizeMB)
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
}

// Evaluate returns the static evaluation of pos from the side to move.
func (e *Engine) Evaluate(pos *board.Position) int {
	return eval.Evaluate(pos)
}

// FindBestMove searches pos within limits. It returns a legal move unless
// the position has none, in which case Result.Terminal says why. Running
// out of time or a cancelled ctx is not an error; the best move found so
// far is returned.
func (e *Engine) FindBestMove(ctx context.Context, pos *board.Position, limits Limits) (Result, error) {
	if pos == nil {
		return Result{}, ErrNoPosition
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.New()
	start := time.Now()

	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		res := Result{ID: id, Move: board.NoMove, Terminal: Stalemate}
		if pos.InCheck() {
			res.Terminal = Checkmate
			res.Score = -MateScore
		}
		e.log.Debug().Str("id", id.String()).Stringer("terminal", res.Terminal).Msg("no legal moves")
		return res, nil
	}

	if e.opts.Book != nil {
		if m, ok := e.opts.Book.GetMove(pos.FEN()); ok && ml.Contains(m) {
			e.log.Debug().Str("id", id.String()).Stringer("move", m).Msg("book move")
			return Result{ID: id, Move: m, PV: []board.Move{m}, FromBook: true, Elapsed: time.Since(start)}, nil
		}
	}

	res := e.search(ctx, pos, limits, id, start)
	if res.Move == board.NoMove {
		res.Move = ml.Get(0)
		res.PV = []board.Move{res.Move}
	}
	res.Elapsed = time.Since(start)

	e.log.Info().
		Str("id", id.String()).
		Stringer("move", res.Move).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Int("hashfull", e.tt.HashFull()).
		Dur("elapsed", res.Elapsed).
		Msg("search finished")
	return res, nil
}

func clampThreads(n int) int {
	return max(1, min(n, MaxThreads))
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if n := MateIn(score); n > 0 {
		return "Mate in " + strconv.Itoa(n)
	} else if n < 0 {
		return "Mated in " + strconv.Itoa(-n)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return sign + strconv.Itoa(score/100) + "." + strconv.Itoa(score%100/10) + strconv.Itoa(score%10)
}
