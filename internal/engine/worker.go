package engine

import (
	"math/rand"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/eval"
)

// Move list stacks cover the main search plus the quiescence tail.
const stackSize = MaxPly + MaxQuiescenceDepth + 1

// Worker represents a search worker for parallel Lazy SMP search.
// Each worker has its own position, evaluator and ordering tables and
// shares the transposition table and the stop flag.
type Worker struct {
	id int

	// Per-worker position copy
	pos       *board.Position
	evaluator eval.Evaluator
	orderer   *MoveOrderer
	rng       *rand.Rand

	// Per-worker search state
	nodes   uint64
	flushed uint64
	pv      PVTable

	moves  [stackSize]board.MoveList
	scores [stackSize][board.MaxMoves]int

	rootMoves  board.MoveList
	rootScores [board.MaxMoves]int

	// Shared resources
	tt         *TranspositionTable
	stopFlag   *atomic.Bool
	totalNodes *atomic.Uint64
	opts       *Options

	// Worker 0 clears this while searching depth 1.
	abortable bool

	// Last completed iteration
	depth int
	score int
	best  board.Move
	line  []board.Move
}

// NewWorker creates a new search worker.
func NewWorker(id int, opts *Options) *Worker {
	newEval := opts.NewEvaluator
	if newEval == nil {
		newEval = func() eval.Evaluator { return eval.NewIncremental(nil) }
	}
	return &Worker{
		id:        id,
		opts:      opts,
		evaluator: newEval(),
		orderer:   NewMoveOrderer(),
		rng:       rand.New(rand.NewSource(int64(id)*0x9E3779B9 + 1)),
	}
}

// InitSearch prepares the worker for a search from pos.
func (w *Worker) InitSearch(pos *board.Position, tt *TranspositionTable, stop *atomic.Bool, total *atomic.Uint64) {
	w.pos = pos.Copy()
	w.tt = tt
	w.stopFlag = stop
	w.totalNodes = total
	w.nodes, w.flushed = 0, 0
	w.depth, w.score, w.best, w.line = 0, 0, board.NoMove, nil
	w.orderer.Clear()
	if r, ok := w.evaluator.(interface{ Reset() }); ok {
		r.Reset()
	}

	w.pos.GenerateLegalMoves(&w.rootMoves)
	w.orderer.ScoreMoves(w.pos, &w.rootMoves, w.rootScores[:], -1, board.NoMove)
	SortMoves(&w.rootMoves, w.rootScores[:])
}

func (w *Worker) quiescenceDepth() int {
	if d := w.opts.QuiescenceDepth; d > 0 && d < MaxQuiescenceDepth {
		return d
	}
	return MaxQuiescenceDepth
}

func (w *Worker) evaluate() int {
	return w.evaluator.Evaluate(w.pos)
}

// stopped returns true if the current iteration should be abandoned.
func (w *Worker) stopped() bool {
	return w.abortable && w.stopFlag.Load()
}

func (w *Worker) flushNodes() {
	w.totalNodes.Add(w.nodes - w.flushed)
	w.flushed = w.nodes
}

// countNode increments the node counter and reports whether the search
// must unwind.
func (w *Worker) countNode() bool {
	w.nodes++
	if w.nodes%pollInterval == 0 {
		w.flushNodes()
		return w.stopped()
	}
	return false
}

// orderRoot puts the previous iteration's best move first. Helpers put
// the TT move first and shuffle everything behind it.
func (w *Worker) orderRoot() {
	moves := w.rootMoves.Slice()
	first := w.best
	if w.id > 0 && w.opts.UseTT {
		if e, ok := w.tt.Probe(w.pos.Hash); ok {
			first = e.Move
		}
	}
	i := indexOf(moves, first)
	if i > 0 {
		copy(moves[1:i+1], moves[:i])
		moves[0] = first
	}
	if w.id > 0 {
		rest := moves
		if i >= 0 {
			rest = moves[1:]
		}
		w.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	}
}

func indexOf(moves []board.Move, m board.Move) int {
	if m == board.NoMove {
		return -1
	}
	for i, x := range moves {
		if x == m {
			return i
		}
	}
	return -1
}

// SearchDepth runs one full-window root search. It reports false when
// the iteration was cut short; the previous result then stands.
func (w *Worker) SearchDepth(depth int) (board.Move, int, bool) {
	w.orderRoot()
	w.pv.length[0] = 0

	alpha, beta := -Infinity, Infinity
	best := board.NoMove
	moves := w.rootMoves.Slice()
	for _, m := range moves {
		w.pos.MakeMove(m)
		score := -w.negamax(depth-1, 1, -beta, -alpha)
		w.pos.UnmakeMove()

		if w.stopped() {
			return board.NoMove, 0, false
		}
		if score > alpha {
			alpha = score
			best = m
			w.pv.update(0, m)
		}
	}
	w.flushNodes()

	if best != board.NoMove && w.opts.UseTT {
		w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(alpha, 0), TTExact, best)
	}
	w.depth, w.score, w.best = depth, alpha, best
	w.line = w.pv.root()
	return best, alpha, true
}

// negamax implements fail-hard alpha-beta with a transposition table,
// null move pruning and killer/history ordering.
func (w *Worker) negamax(depth, ply, alpha, beta int) int {
	if w.countNode() {
		return 0
	}
	w.pv.length[ply] = ply

	if ply >= MaxPly-1 {
		return w.evaluate()
	}
	if w.pos.IsDraw() {
		return 0
	}
	if depth <= 0 {
		return w.quiescence(ply, 0, alpha, beta)
	}

	hash := w.pos.Hash
	ttMove := board.NoMove
	if w.opts.UseTT {
		if e, ok := w.tt.Probe(hash); ok {
			ttMove = e.Move
			usable := int(e.Depth) >= depth
			if w.opts.TTExactDepth {
				usable = int(e.Depth) == depth
			}
			if usable {
				score := AdjustScoreFromTT(int(e.Score), ply)
				switch e.Flag {
				case TTExact:
					if score <= alpha {
						return alpha
					}
					if score >= beta {
						return beta
					}
					return score
				case TTLowerBound:
					if score >= beta {
						return beta
					}
				case TTUpperBound:
					if score <= alpha {
						return alpha
					}
				}
			}
		}
	}

	inCheck := w.pos.InCheck()

	if w.opts.NullMove && !inCheck && depth >= 3 &&
		w.pos.HasNonPawnMaterial() && !w.pos.LastMoveWasNull() &&
		w.evaluate() >= beta {
		r := 2 + depth/4
		w.pos.MakeNullMove()
		score := -w.negamax(depth-1-r, ply+1, -beta, -beta+1)
		w.pos.UnmakeNullMove()
		if w.stopped() {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	ml := &w.moves[ply]
	w.pos.GenerateLegalMoves(ml)
	if ml.Len() == 0 {
		if inCheck {
			return -(MateScore - ply)
		}
		return 0
	}
	scores := w.scores[ply][:ml.Len()]
	w.orderer.ScoreMoves(w.pos, ml, scores, ply, ttMove)
	SortMoves(ml, scores)

	bestMove := board.NoMove
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		w.pos.MakeMove(m)
		score := -w.negamax(depth-1, ply+1, -beta, -alpha)
		w.pos.UnmakeMove()

		if w.stopped() {
			return 0
		}
		if score >= beta {
			if !m.IsTactical() {
				w.orderer.UpdateKillers(m, ply)
				w.orderer.UpdateHistory(m, depth)
			}
			if w.opts.UseTT {
				w.tt.Store(hash, depth, AdjustScoreToTT(beta, ply), TTLowerBound, m)
			}
			return beta
		}
		if score > alpha {
			alpha = score
			bestMove = m
			w.pv.update(ply, m)
		}
	}

	if w.opts.UseTT {
		flag := TTUpperBound
		if bestMove != board.NoMove {
			flag = TTExact
		}
		w.tt.Store(hash, depth, AdjustScoreToTT(alpha, ply), flag, bestMove)
	}
	return alpha
}

// quiescence resolves captures and promotions below the horizon so the
// static evaluation is taken in a quiet position.
func (w *Worker) quiescence(ply, qply, alpha, beta int) int {
	if w.countNode() {
		return 0
	}
	if ply < MaxPly {
		w.pv.length[ply] = ply
	}

	standPat := w.evaluate()
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if qply >= w.quiescenceDepth() || ply >= stackSize-1 {
		return alpha
	}

	ml := &w.moves[ply]
	w.pos.GenerateLegalCaptures(ml)
	scores := w.scores[ply][:ml.Len()]
	w.orderer.ScoreMoves(w.pos, ml, scores, -1, board.NoMove)
	SortMoves(ml, scores)

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		w.pos.MakeMove(m)
		score := -w.quiescence(ply+1, qply+1, -beta, -alpha)
		w.pos.UnmakeMove()

		if w.stopped() {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// iterate runs iterative deepening from startDepth to maxDepth, handing
// every completed iteration to publish. It returns when the depth limit
// is reached, publish asks to stop, or the stop flag is raised.
func (w *Worker) iterate(startDepth, maxDepth int, publish func(*Worker) bool) {
	defer w.flushNodes()
	for depth := startDepth; depth <= maxDepth; depth++ {
		w.abortable = !(w.id == 0 && depth == 1)
		if w.abortable && w.stopFlag.Load() {
			return
		}
		if _, _, ok := w.SearchDepth(depth); !ok {
			return
		}
		if !publish(w) {
			return
		}
	}
}
