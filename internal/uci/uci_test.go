package uci

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func run(t *testing.T, script string) string {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.HashMB = 8
	u := New(engine.New(opts), Options{})
	var out bytes.Buffer
	if err := u.Run(strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func bestMove(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) >= 2 && f[0] == "bestmove" {
			return f[1]
		}
	}
	t.Fatalf("no bestmove in output:\n%s", out)
	return ""
}

func TestHandshake(t *testing.T) {
	out := run(t, "uci\nisready\nquit\n")
	for _, want := range []string{"id name chesscore", "option name Threads", "uciok", "readyok"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGoDepthFindsMate(t *testing.T) {
	out := run(t, "position fen 6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1\ngo depth 3\n")
	if got := bestMove(t, out); got != "d1d8" {
		t.Errorf("bestmove %s, want d1d8\n%s", got, out)
	}
	if !strings.Contains(out, "score mate 1") {
		t.Errorf("no mate score reported:\n%s", out)
	}
}

func TestPositionWithMoves(t *testing.T) {
	out := run(t, "position startpos moves e2e4 e7e5 g1f3\nd\n")
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if !strings.Contains(out, "Fen: "+want) {
		t.Errorf("want %s in:\n%s", want, out)
	}
	if n := strings.Count(out, "Fen:"); n != 1 {
		t.Errorf("Fen printed %d times:\n%s", n, out)
	}
}

func TestBadInputKeepsPreviousPosition(t *testing.T) {
	out := run(t, "position startpos moves e2e4\nposition startpos moves e2e5\nposition fen nonsense\nd\n")
	if !strings.Contains(out, "info string invalid move") || !strings.Contains(out, "info string invalid position") {
		t.Errorf("errors not reported:\n%s", out)
	}
	if !strings.Contains(out, "Fen: rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1") {
		t.Errorf("position after e2e4 lost:\n%s", out)
	}
}

func TestStopInfiniteSearch(t *testing.T) {
	out := run(t, "setoption name Threads value 2\nposition startpos\ngo infinite\nstop\n")
	m := bestMove(t, out)
	pos := board.NewPosition()
	if _, err := pos.ParseMove(m); err != nil {
		t.Errorf("bestmove %s: %v", m, err)
	}
}

// lockedBuffer lets the test read output while Run is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInfiniteSearchWaitsForStop(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.HashMB = 8
	u := New(engine.New(opts), Options{})

	in, feed := io.Pipe()
	var out lockedBuffer
	done := make(chan error, 1)
	go func() { done <- u.Run(in, &out) }()

	// A mate in one is proven at depth 2; the search must keep going.
	io.WriteString(feed, "position fen 6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1\ngo infinite\n")
	time.Sleep(300 * time.Millisecond)
	if got := out.String(); strings.Contains(got, "bestmove") {
		t.Fatalf("bestmove before stop:\n%s", got)
	}

	io.WriteString(feed, "stop\n")
	feed.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := bestMove(t, out.String()); got != "d1d8" {
		t.Errorf("bestmove %s, want d1d8", got)
	}
}

func TestInfiniteSearchWaitsForStopWithoutLegalMoves(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.HashMB = 8
	u := New(engine.New(opts), Options{})

	in, feed := io.Pipe()
	var out lockedBuffer
	done := make(chan error, 1)
	go func() { done <- u.Run(in, &out) }()

	io.WriteString(feed, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1\ngo infinite\n")
	time.Sleep(100 * time.Millisecond)
	if got := out.String(); strings.Contains(got, "bestmove") {
		t.Fatalf("bestmove before stop:\n%s", got)
	}
	io.WriteString(feed, "stop\n")
	feed.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := bestMove(t, out.String()); got != "0000" {
		t.Errorf("bestmove %s, want 0000", got)
	}
}

func TestNoLegalMoves(t *testing.T) {
	out := run(t, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1\ngo depth 2\n")
	if got := bestMove(t, out); got != "0000" {
		t.Errorf("bestmove %s, want 0000", got)
	}
	if !strings.Contains(out, "info string checkmate") {
		t.Errorf("terminal state not reported:\n%s", out)
	}
}

func TestEvalCommand(t *testing.T) {
	out := run(t, "position startpos moves e2e4\neval\n")
	if !strings.Contains(out, "Evaluation: ") || !strings.Contains(out, "(black to move)") {
		t.Errorf("eval output:\n%s", out)
	}
}

func TestDisplayShowsCheckers(t *testing.T) {
	out := run(t, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1\nd\n")
	if !strings.Contains(out, "Checkers: a8") {
		t.Errorf("d output:\n%s", out)
	}
}

func TestPerft(t *testing.T) {
	out := run(t, "position startpos\nperft 2\n")
	if !strings.Contains(out, "Nodes: 400") {
		t.Errorf("perft 2 output:\n%s", out)
	}
	if !strings.Contains(out, "e2e4: 20") {
		t.Errorf("missing divide line:\n%s", out)
	}
}

func TestParseGoOptions(t *testing.T) {
	opts := ParseGoOptions(strings.Fields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 7"))
	if opts.Depth != 7 || opts.Clock.MovesToGo != 20 {
		t.Errorf("got %+v", opts)
	}
	if opts.Clock.Time[board.White] != time.Minute || opts.Clock.Time[board.Black] != 30*time.Second {
		t.Errorf("times: %v", opts.Clock.Time)
	}
	if opts.Clock.Inc[board.White] != time.Second || opts.Clock.Inc[board.Black] != 500*time.Millisecond {
		t.Errorf("increments: %v", opts.Clock.Inc)
	}
	if !ParseGoOptions([]string{"infinite"}).Infinite {
		t.Error("infinite not parsed")
	}
}
