package board

import (
	"errors"
	"testing"
)

var testFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"r1bq1rk1/pp2bppp/2n1pn2/3p4/2PP4/2N1PN2/PP3PPP/R2QKB1R w KQ - 2 8",
	"8/8/4k3/3p4/3P4/4K3/8/8 w - - 0 50",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
}

// checkInvariants verifies occupancy and hashes against a full rebuild.
func checkInvariants(t *testing.T, p *Position) {
	t.Helper()
	var all Bitboard
	var byColor [2]Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			if all&bb != 0 {
				t.Fatalf("square holds two pieces in %s", p.FEN())
			}
			all |= bb
			byColor[c] |= bb
		}
	}
	if all != p.AllOccupied || byColor != p.Occupied {
		t.Fatalf("occupancy out of sync in %s", p.FEN())
	}
	if h := p.computeHash(); h != p.Hash {
		t.Fatalf("hash %016x, recomputed %016x in %s", p.Hash, h, p.FEN())
	}
	if k := p.computePawnKey(); k != p.PawnKey {
		t.Fatalf("pawn key %016x, recomputed %016x in %s", p.PawnKey, k, p.FEN())
	}
}

func TestMakeUnmakeRestoresPosition(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		var walk func(depth int)
		walk = func(depth int) {
			if depth == 0 {
				return
			}
			for _, m := range pos.LegalMoves() {
				before := pos.Copy()
				pos.MakeMove(m)
				checkInvariants(t, pos)
				walk(depth - 1)
				pos.UnmakeMove()
				if !pos.Equal(before) || pos.Ply() != before.Ply() {
					t.Fatalf("%s: make/unmake %s changed\n%s\nto\n%s", fen, m, before, pos)
				}
			}
		}
		walk(2)
	}
}

func TestNullMoveRestoresPosition(t *testing.T) {
	pos, _ := ParseFEN(testFENs[6])
	before := pos.Copy()
	pos.MakeNullMove()
	if pos.SideToMove != Black || pos.EnPassant != NoSquare {
		t.Fatalf("null move: side %s ep %s", pos.SideToMove, pos.EnPassant)
	}
	checkInvariants(t, pos)
	pos.UnmakeNullMove()
	if !pos.Equal(before) {
		t.Fatal("null move not restored")
	}
}

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
		again, err := ParseFEN(pos.FEN())
		if err != nil {
			t.Fatalf("reparse: %v", err)
		}
		if !again.Equal(pos) {
			t.Errorf("round trip of %q not equal", fen)
		}
	}
}

func TestFENRoundTripAfterMoves(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e2e4", "c7c5", "g1f3", "d7d6", "e1e2"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		pos.MakeMove(m)
	}
	want := "rnbqkbnr/pp2pppp/3p4/2p5/4P3/5N2/PPPPKPPP/RNBQ1B1R b kq - 1 3"
	if got := pos.FEN(); got != want {
		t.Fatalf("FEN() = %q, want %q", got, want)
	}
	again, _ := ParseFEN(want)
	if !again.Equal(pos) {
		t.Error("reparsed position differs from played position")
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",            // 7 ranks
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR/8 w KQkq - 0 1", // 9 ranks
		"rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",    // 7 files
		"rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",  // 9 files
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",   // 9 empties
		"rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",   // unknown letter
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkz - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e6 0 1", // no pawn in front
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0",
		"rnbqqbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", // no black king
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNP w KQkq - 0 1", // pawn on rank 1
		"4k3/8/8/8/8/8/8/4K2R w KQ - 0 1",                          // Q right without rook
		"4k3/4R3/8/8/8/8/8/4K3 w - - 0 1",                          // side not to move in check
	}
	for _, fen := range bad {
		_, err := ParseFEN(fen)
		if err == nil {
			t.Errorf("ParseFEN(%q) succeeded, want error", fen)
			continue
		}
		if !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) error %v does not wrap ErrInvalidFEN", fen, err)
		}
	}
}

func TestParseFENSplitEmptyRun(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppppppp/44/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.FEN() != StartFEN {
		t.Errorf("FEN() = %q, want start position", pos.FEN())
	}
}

func TestParseMove(t *testing.T) {
	pos, err := ParseFEN("4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		in      string
		wantErr error
	}{
		{"b7b8q", nil},
		{"b7b8n", nil},
		{"b7b8", ErrMissingPromotion},
		{"b7b8x", ErrInvalidMove},
		{"z9b8", ErrInvalidMove},
		{"e1", ErrInvalidMove},
		{"c3c4", ErrIllegalMove},
		{"e1e3", ErrIllegalMove},
	}
	for _, tc := range tests {
		m, err := pos.ParseMove(tc.in)
		if tc.wantErr == nil {
			if err != nil {
				t.Errorf("ParseMove(%s): %v", tc.in, err)
			} else if m.String() != tc.in {
				t.Errorf("ParseMove(%s) = %s", tc.in, m)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("ParseMove(%s) error = %v, want %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestMoveFlags(t *testing.T) {
	pos, _ := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	castles, captures := 0, 0
	for _, m := range ml.Slice() {
		if m.IsCastling() {
			castles++
		}
		if m.IsCapture() {
			captures++
			if pos.PieceAt(m.To()) == NoPiece && !m.IsEnPassant() {
				t.Errorf("%s flagged capture onto empty square", m)
			}
		}
	}
	if castles != 2 || captures != 8 {
		t.Errorf("castles=%d captures=%d, want 2 and 8", castles, captures)
	}

	var caps MoveList
	pos.GenerateLegalCaptures(&caps)
	if caps.Len() != captures {
		t.Errorf("GenerateLegalCaptures = %d moves, want %d", caps.Len(), captures)
	}
}

func TestSeparateTablesAgree(t *testing.T) {
	other := NewTables(12345)
	a, _ := ParseFEN(testFENs[1])
	b, _ := other.ParseFEN(testFENs[1])
	if a.Hash == b.Hash {
		t.Error("different seeds produced the same hash")
	}
	if a.Perft(2) != b.Perft(2) {
		t.Error("perft differs between table instances")
	}
}
