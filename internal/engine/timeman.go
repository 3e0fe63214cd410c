package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Clock contains UCI time control parameters.
type Clock struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Infinite  bool             // search until stopped
}

// TimeManager handles time allocation for searches.
type TimeManager struct {
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Maximum time allowed
	startTime   time.Time     // When search started
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number). Both times stay zero
// when the clock sets no limit.
func (tm *TimeManager) Init(clock Clock, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.optimumTime, tm.maximumTime = 0, 0

	// Fixed move time mode
	if clock.MoveTime > 0 {
		tm.optimumTime = clock.MoveTime
		tm.maximumTime = clock.MoveTime
		return
	}

	if clock.Infinite || clock.Time[us] == 0 {
		return
	}

	timeLeft := clock.Time[us]
	inc := clock.Inc[us]

	// Estimate moves to go
	mtg := clock.MovesToGo
	if mtg == 0 {
		// Sudden death: fewer moves expected later in the game
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime

	// Slight reduction for very early moves
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	// Maximum time: 5x optimum or 80% of remaining, whichever is smaller
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	// Never use more than 95% of remaining time
	tm.maximumTime = min(tm.maximumTime, timeLeft*95/100)

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Limits converts the allocation into search limits.
func (tm *TimeManager) Limits(depth, threads int) Limits {
	return Limits{
		MaxDepth:  depth,
		TimeLimit: tm.maximumTime,
		SoftTime:  tm.optimumTime,
		Threads:   threads,
	}
}
