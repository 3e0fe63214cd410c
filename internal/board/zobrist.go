package board

type zobristKeys struct {
	piece     [2][6][64]uint64
	enPassant [8]uint64 // one per file
	castling  [16]uint64
	side      uint64 // XOR when black to move
}

// xorshift64*; reproducible keys from a fixed seed.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func newZobristKeys(seed uint64) zobristKeys {
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := &prng{state: seed}
	var z zobristKeys
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				z.piece[c][pt][sq] = rng.next()
			}
		}
	}
	for f := range z.enPassant {
		z.enPassant[f] = rng.next()
	}
	for i := range z.castling {
		z.castling[i] = rng.next()
	}
	z.side = rng.next()
	return z
}

// computeHash rebuilds the Zobrist hash from scratch.
func (p *Position) computeHash() uint64 {
	z := &p.tables.zobrist
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				h ^= z.piece[c][pt][bb.PopLSB()]
			}
		}
	}
	h ^= z.castling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= z.enPassant[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= z.side
	}
	return h
}

// computePawnKey hashes pawn placement only.
func (p *Position) computePawnKey() uint64 {
	z := &p.tables.zobrist
	var h uint64
	for c := White; c <= Black; c++ {
		bb := p.Pieces[c][Pawn]
		for bb != 0 {
			h ^= z.piece[c][Pawn][bb.PopLSB()]
		}
	}
	return h
}
