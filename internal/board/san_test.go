package board

import (
	"slices"
	"testing"
)

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		want string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "d5e6", "dxe6"},
		{"7k/8/8/8/8/8/8/R4R1K w - - 0 1", "a1d1", "Rad1"},
		{"7k/8/8/8/8/8/8/R4R1K w - - 0 1", "f1d1", "Rfd1"},
		{"7k/8/8/8/R7/8/8/R6K w - - 0 1", "a1a2", "R1a2"},
		{"7k/8/8/8/R7/8/8/R6K w - - 0 1", "a4a2", "R4a2"},
		{"1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7b8q", "axb8=Q+"},
		{"1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8n", "a8=N"},
		{"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1", "d1d8", "Rd8#"},
		{"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
	}
	for _, tt := range tests {
		p, err := ParseFEN(tt.fen)
		if err != nil {
			t.Fatalf("%s: %v", tt.fen, err)
		}
		m, err := p.ParseMove(tt.move)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.fen, tt.move, err)
		}
		before := p.FEN()
		if got := p.SAN(m); got != tt.want {
			t.Errorf("%s %s: SAN = %q, want %q", tt.fen, tt.move, got, tt.want)
		}
		if p.FEN() != before {
			t.Errorf("%s: SAN changed the position", tt.fen)
		}
	}
}

func TestSANLine(t *testing.T) {
	p := NewPosition()
	var moves []Move
	q := NewPosition()
	for _, s := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := q.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		moves = append(moves, m)
		q.MakeMove(m)
	}

	got := p.SANLine(moves)
	if want := []string{"e4", "e5", "Nf3"}; !slices.Equal(got, want) {
		t.Errorf("SANLine = %v, want %v", got, want)
	}
	if p.FEN() != StartFEN {
		t.Errorf("position changed: %s", p.FEN())
	}

	// A repeated move is illegal on the second ply.
	got = p.SANLine([]Move{moves[0], moves[0]})
	if want := []string{"e4"}; !slices.Equal(got, want) {
		t.Errorf("SANLine with illegal tail = %v, want %v", got, want)
	}
}
