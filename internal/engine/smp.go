package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// sharedBest is the best completed iteration across all workers, packed
// into one word: depth, worker, score and move.
type sharedBest struct {
	v atomic.Uint64
}

func packBest(depth, worker, score int, m board.Move) uint64 {
	return uint64(depth)<<56 | uint64(worker&0xFF)<<48 | uint64(uint16(int16(score)))<<32 | uint64(uint32(m))
}

func unpackBest(v uint64) (depth, worker, score int, m board.Move) {
	return int(v >> 56), int(v>>48) & 0xFF, int(int16(uint16(v >> 32))), board.Move(uint32(v))
}

// publish records a result if it is deeper than the current one. Equal
// depths keep the earlier publisher.
func (b *sharedBest) publish(depth, worker, score int, m board.Move) bool {
	next := packBest(depth, worker, score, m)
	for {
		cur := b.v.Load()
		if cur != 0 {
			if d, _, _, _ := unpackBest(cur); d >= depth {
				return false
			}
		}
		if b.v.CompareAndSwap(cur, next) {
			return true
		}
	}
}

func (b *sharedBest) load() (depth, worker, score int, m board.Move, ok bool) {
	v := b.v.Load()
	if v == 0 {
		return 0, 0, 0, board.NoMove, false
	}
	depth, worker, score, m = unpackBest(v)
	return depth, worker, score, m, true
}

// ensureWorkers grows the worker pool to n. Workers keep their evaluator
// and ordering tables between searches.
func (e *Engine) ensureWorkers(n int) {
	for len(e.workers) < n {
		e.workers = append(e.workers, NewWorker(len(e.workers), &e.opts))
	}
}

// search runs the Lazy SMP workers and collects the deepest result.
func (e *Engine) search(ctx context.Context, pos *board.Position, limits Limits, id uuid.UUID, start time.Time) Result {
	threads := limits.Threads
	if threads <= 0 {
		threads = e.opts.Threads
	}
	threads = clampThreads(threads)

	maxDepth := limits.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	if limits.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.TimeLimit)
		defer cancel()
	}

	var (
		stop   atomic.Bool
		total  atomic.Uint64
		best   sharedBest
		infoMu sync.Mutex
	)
	release := context.AfterFunc(ctx, func() { stop.Store(true) })
	defer release()

	e.ensureWorkers(threads)
	e.tt.NewSearch()

	log := e.log.With().Str("id", id.String()).Logger()
	log.Debug().
		Int("threads", threads).
		Int("max_depth", maxDepth).
		Dur("time_limit", limits.TimeLimit).
		Str("fen", pos.FEN()).
		Msg("search started")

	publish := func(w *Worker) bool {
		if best.publish(w.depth, w.id, w.score, w.best) && e.opts.OnInfo != nil {
			elapsed := time.Since(start)
			nodes := total.Load()
			info := SearchInfo{
				ID:       id,
				Depth:    w.depth,
				Score:    w.score,
				Nodes:    nodes,
				NPS:      nps(nodes, elapsed),
				Time:     elapsed,
				PV:       append([]board.Move(nil), w.line...),
				HashFull: e.tt.HashFull(),
				Worker:   w.id,
			}
			infoMu.Lock()
			defer infoMu.Unlock()
			e.opts.OnInfo(info)
		}
		if w.id != 0 {
			return true
		}
		if limits.Infinite {
			return true
		}
		if IsMateScore(w.score) || (limits.SoftTime > 0 && time.Since(start) >= limits.SoftTime) {
			stop.Store(true)
			return false
		}
		return true
	}

	var g errgroup.Group
	for _, w := range e.workers[:threads] {
		w := w
		w.InitSearch(pos, e.tt, &stop, &total)
		startDepth := 1
		if w.id > 0 {
			startDepth = 1 + w.id%2
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, w.id, r)
					log.Error().Err(err).Int("worker", w.id).Msg("worker panic")
					if w.id == 0 {
						stop.Store(true)
					}
				}
			}()
			w.iterate(startDepth, maxDepth, publish)
			if w.id == 0 {
				// The main worker is done; helpers stop with it.
				stop.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("search finished with failed workers")
	}
	if limits.Infinite {
		<-ctx.Done()
	}

	res := Result{ID: id, Nodes: total.Load()}
	depth, worker, score, m, ok := best.load()
	if !ok {
		return res
	}
	res.Move, res.Score, res.Depth = m, score, depth
	res.PV = append([]board.Move(nil), e.workers[worker].line...)
	if len(res.PV) == 0 || res.PV[0] != m {
		res.PV = []board.Move{m}
	}
	return res
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nodes) / elapsed.Seconds())
}
