// Package uci implements the Universal Chess Interface protocol on top of
// the search engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Options configures the protocol handler.
type Options struct {
	Name   string
	Author string
	Logger zerolog.Logger
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	opts     Options
	log      zerolog.Logger

	outMu sync.Mutex
	out   *bufio.Writer

	threads int

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
	infinite   bool
}

// New creates a new UCI protocol handler.
func New(eng *engine.Engine, opts Options) *UCI {
	if opts.Name == "" {
		opts.Name = "chesscore"
	}
	if opts.Author == "" {
		opts.Author = "the chesscore authors"
	}
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		opts:     opts,
		log:      opts.Logger.With().Str("component", "uci").Logger(),
		threads:  eng.Options().Threads,
	}
}

// Run reads commands from r and writes responses to w until "quit" or
// end of input. A search still running at end of input is allowed to
// finish unless it is infinite.
func (u *UCI) Run(r io.Reader, w io.Writer) error {
	u.out = bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		u.log.Debug().Str("cmd", line).Msg("received")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println(strings.TrimRight(u.position.String(), "\n"))
		case "eval":
			score := u.engine.Evaluate(u.position)
			u.printf("Evaluation: %s (%s to move)", engine.ScoreToString(score), u.position.SideToMove)
		case "perft":
			u.handlePerft(args)
		default:
			u.println("info string unknown command " + cmd)
		}
	}

	if u.infinite {
		u.handleStop()
	}
	u.wait()
	return scanner.Err()
}

func (u *UCI) println(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	u.out.WriteString(s)
	u.out.WriteByte('\n')
	u.out.Flush()
}

func (u *UCI) printf(format string, args ...any) {
	u.println(fmt.Sprintf(format, args...))
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name " + u.opts.Name)
	u.println("id author " + u.opts.Author)
	u.println("")
	u.printf("option name Hash type spin default %d min 1 max 4096", engine.DefaultOptions().HashMB)
	u.printf("option name Threads type spin default %d min 1 max %d", u.threads, engine.MaxThreads)
	u.println("option name Clear Hash type button")
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string invalid position: %v", err)
			u.log.Warn().Err(err).Msg("position rejected")
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := pos.ParseMove(s)
			if err != nil {
				u.printf("info string invalid move: %v", err)
				u.log.Warn().Err(err).Str("move", s).Msg("position rejected")
				return
			}
			pos.MakeMove(m)
		}
	}
	u.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth    int
	Infinite bool
	Clock    engine.Clock
}

// ParseGoOptions parses "go" command arguments. Unknown tokens are skipped.
func ParseGoOptions(args []string) GoOptions {
	var opts GoOptions

	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(&i)
		case "movetime":
			opts.Clock.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
			opts.Clock.Infinite = true
		case "wtime":
			opts.Clock.Time[board.White] = ms(&i)
		case "btime":
			opts.Clock.Time[board.Black] = ms(&i)
		case "winc":
			opts.Clock.Inc[board.White] = ms(&i)
		case "binc":
			opts.Clock.Inc[board.Black] = ms(&i)
		case "movestogo":
			opts.Clock.MovesToGo = next(&i)
		}
	}
	return opts
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := ParseGoOptions(args)
	pos := u.position.Copy()

	tm := engine.NewTimeManager()
	ply := (pos.FullMoveNumber-1)*2 + int(pos.SideToMove)
	tm.Init(opts.Clock, pos.SideToMove, ply)
	limits := tm.Limits(opts.Depth, u.threads)

	infoRoot := pos.Copy()
	u.engine.SetOnInfo(func(info engine.SearchInfo) {
		u.sendInfo(infoRoot, info)
	})

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.infinite = opts.Infinite || (limits.MaxDepth == 0 && limits.TimeLimit == 0)
	limits.Infinite = u.infinite
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res, err := u.engine.FindBestMove(ctx, pos, limits)
		if limits.Infinite {
			// Book and terminal answers come back at once; bestmove
			// still waits for "stop".
			<-ctx.Done()
		}
		if err != nil {
			u.log.Error().Err(err).Msg("search failed")
			u.println("bestmove 0000")
			return
		}
		if res.Terminal != engine.NotTerminal {
			u.printf("info string %s", res.Terminal)
		}
		if len(res.PV) > 1 {
			u.printf("bestmove %s ponder %s", res.Move, res.PV[1])
			return
		}
		u.printf("bestmove %s", res.Move)
	}()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(root *board.Position, info engine.SearchInfo) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d", info.Depth)

	if n := engine.MateIn(info.Score); n != 0 {
		fmt.Fprintf(&sb, " score mate %d", n)
	} else {
		fmt.Fprintf(&sb, " score cp %d", info.Score)
	}

	fmt.Fprintf(&sb, " nodes %d nps %d time %d", info.Nodes, info.NPS, info.Time.Milliseconds())
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}

	// Stop the PV at the first move that is not legal in sequence.
	if len(info.PV) > 0 {
		pos := root.Copy()
		sb.WriteString(" pv")
		for _, m := range info.PV {
			if !pos.IsLegal(m) {
				break
			}
			sb.WriteString(" " + m.String())
			pos.MakeMove(m)
		}
	}
	u.println(sb.String())
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.wait()
}

func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
		u.cancel = nil
		u.infinite = false
	}
}

// handleSetOption processes "setoption name <name> [value <value>]".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}

	u.handleStop()
	key := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")
	switch key {
	case "hash":
		mb, err := strconv.Atoi(val)
		if err != nil || mb < 1 {
			u.printf("info string bad Hash value %q", val)
			return
		}
		u.engine.SetHashSize(mb)
	case "threads":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			u.printf("info string bad Threads value %q", val)
			return
		}
		u.threads = min(n, engine.MaxThreads)
		u.engine.SetThreads(u.threads)
	case "clear hash":
		u.engine.Clear()
	default:
		u.printf("info string unknown option %q", strings.Join(name, " "))
		return
	}
	u.log.Debug().Str("option", key).Str("value", val).Msg("option set")
}

// handlePerft runs a perft test and prints the per-move split.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	split := u.position.Divide(depth)
	var nodes uint64
	for _, m := range u.position.LegalMoves() {
		u.printf("%s: %d", m, split[m])
		nodes += split[m]
	}
	elapsed := time.Since(start)

	u.println("")
	u.printf("Nodes: %d", nodes)
	u.printf("Time: %v", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		u.printf("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
