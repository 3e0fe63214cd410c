package eval

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

// mirrorFEN swaps colors and flips the board vertically.
func mirrorFEN(fen string) string {
	f := strings.Fields(fen)
	ranks := strings.Split(f[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	swap := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				return r - 'A' + 'a'
			}
			return r
		}, s)
	}
	side := "w"
	if f[1] == "w" {
		side = "b"
	}
	castling := f[2]
	if castling != "-" {
		castling = swap(castling)
		var up, low strings.Builder
		for _, r := range castling {
			if r >= 'A' && r <= 'Z' {
				up.WriteRune(r)
			} else {
				low.WriteRune(r)
			}
		}
		castling = up.String() + low.String()
	}
	ep := f[3]
	if ep != "-" {
		ep = string(ep[0]) + string('1'+'8'-ep[1])
	}
	return strings.Join([]string{swap(strings.Join(ranks, "/")), side, castling, ep, f[4], f[5]}, " ")
}

var evalFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"r1bq1rk1/pp2bppp/2n1pn2/3p4/2PP4/2N1PN2/PP3PPP/R2QKB1R w KQ - 2 8",
	"8/8/4k3/3p4/3P4/4K3/8/8 w - - 0 50",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 b - - 0 1",
}

func TestEvaluationIsColorSymmetric(t *testing.T) {
	for _, fen := range evalFENs {
		pos := mustFEN(t, fen)
		mirrored := mustFEN(t, mirrorFEN(fen))
		a, b := Evaluate(pos), Evaluate(mirrored)
		if a != b {
			t.Errorf("%s: eval %d, mirrored eval %d", fen, a, b)
		}
	}
}

func TestScoreIsFromSideToMove(t *testing.T) {
	white := mustFEN(t, "3qk3/8/8/8/8/8/8/3QK2Q w - - 0 1")
	black := mustFEN(t, "3qk3/8/8/8/8/8/8/3QK2Q b - - 0 1")
	w, b := Evaluate(white), Evaluate(black)
	if w <= 0 {
		t.Errorf("white up a queen, white to move: got %d, want > 0", w)
	}
	if b != -w {
		t.Errorf("black to move: got %d, want %d", b, -w)
	}
}

func TestMaterialValues(t *testing.T) {
	var e Classical
	c := e.Breakdown(mustFEN(t, board.StartFEN))
	if c.Material != 0 || c.Positional != 0 || c.Mobility != 0 || c.PawnStructure != 0 {
		t.Errorf("start position components not balanced: %+v", c)
	}
	c = e.Breakdown(mustFEN(t, "4k3/8/8/8/8/8/8/RNBQK3 w - - 0 1"))
	if want := RookValue + KnightValue + BishopValue + QueenValue; c.Material != want {
		t.Errorf("material = %d, want %d", c.Material, want)
	}
}

func TestEndgameFlag(t *testing.T) {
	if IsEndgame(mustFEN(t, board.StartFEN)) {
		t.Error("start position flagged as endgame")
	}
	if !IsEndgame(mustFEN(t, "8/8/4k3/3p4/3P4/4K3/8/8 w - - 0 1")) {
		t.Error("K+P vs K+P not flagged as endgame")
	}
}

func TestPassedPawnScoresHigherWhenAdvanced(t *testing.T) {
	low := pawnStructure(mustFEN(t, "4k3/8/8/8/8/P7/8/4K3 w - - 0 1"))
	high := pawnStructure(mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"))
	if high <= low {
		t.Errorf("pawn on a7 = %d, pawn on a3 = %d, want a7 higher", high, low)
	}
	connected := pawnStructure(mustFEN(t, "4k3/8/8/8/8/PP6/8/4K3 w - - 0 1"))
	if connected <= 2*low {
		t.Errorf("a3+b3 phalanx = %d, want more than two lone a3 pawns (%d)", connected, 2*low)
	}
}

func TestIncrementalMatchesFullAlongRandomGames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	full := NewClassical(0)
	inc := NewIncremental(NewClassical(64))

	for game := 0; game < 20; game++ {
		pos := mustFEN(t, evalFENs[game%len(evalFENs)])
		for ply := 0; ply < 80; ply++ {
			if got, want := inc.Evaluate(pos), full.Evaluate(pos); got != want {
				t.Fatalf("game %d ply %d %s: incremental %d, full %d", game, ply, pos.FEN(), got, want)
			}
			moves := pos.LegalMoves()
			if len(moves) == 0 {
				break
			}
			pos.MakeMove(moves[rng.Intn(len(moves))])
		}
		// Walk back through the same positions in reverse.
		for pos.Ply() > 0 {
			pos.UnmakeMove()
			if got, want := inc.Evaluate(pos), full.Evaluate(pos); got != want {
				t.Fatalf("game %d unwinding %s: incremental %d, full %d", game, pos.FEN(), got, want)
			}
		}
	}
}

func TestIncrementalSkipsPawnTermForPieceMoves(t *testing.T) {
	pos := mustFEN(t, board.StartFEN)
	inc := NewIncremental(nil)
	inc.Evaluate(pos)

	m, err := pos.ParseMove("g1f3")
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	inc.Evaluate(pos)
	if inc.PawnRecomputes != 0 {
		t.Errorf("knight move recomputed pawn structure %d times", inc.PawnRecomputes)
	}

	m, _ = pos.ParseMove("e7e5")
	pos.MakeMove(m)
	inc.Evaluate(pos)
	if inc.PawnRecomputes != 1 {
		t.Errorf("pawn move: %d pawn recomputes, want 1", inc.PawnRecomputes)
	}

	before := inc.DynamicRecomputes
	inc.Evaluate(pos)
	if inc.DynamicRecomputes != before {
		t.Error("unchanged position recomputed mobility")
	}
}

func TestPawnTableProbe(t *testing.T) {
	pt := NewPawnTable(1)
	if _, ok := pt.Probe(42); ok {
		t.Fatal("empty table hit")
	}
	pt.Store(42, -17)
	if s, ok := pt.Probe(42); !ok || s != -17 {
		t.Fatalf("Probe = %d, %v", s, ok)
	}
	pt.Clear()
	if _, ok := pt.Probe(42); ok {
		t.Fatal("hit after Clear")
	}
}
