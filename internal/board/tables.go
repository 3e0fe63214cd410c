package board

// Ray directions. The first four walk toward higher square indices.
const (
	dirNorth = iota
	dirEast
	dirNorthEast
	dirNorthWest
	dirSouth
	dirWest
	dirSouthEast
	dirSouthWest
)

var (
	rookDirs   = [4]int{dirNorth, dirEast, dirSouth, dirWest}
	bishopDirs = [4]int{dirNorthEast, dirNorthWest, dirSouthEast, dirSouthWest}
)

// DefaultSeed seeds the Zobrist keys of DefaultTables.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// Tables holds the precomputed attack and hashing data.
// A Tables value is immutable after NewTables returns and may be shared
// by any number of positions and goroutines.
type Tables struct {
	knight [64]Bitboard
	king   [64]Bitboard
	pawn   [2][64]Bitboard
	rays   [8][64]Bitboard

	zobrist zobristKeys
}

var defaultTables = NewTables(DefaultSeed)

// DefaultTables returns the process-wide tables built at startup.
func DefaultTables() *Tables {
	return defaultTables
}

// NewTables builds attack tables and Zobrist keys from seed.
func NewTables(seed uint64) *Tables {
	t := &Tables{}
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		t.king[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		// A knight jump is one orthogonal step followed by a diagonal step
		// that keeps moving away from the origin.
		n, s, e, w := bb.North(), bb.South(), bb.East(), bb.West()
		t.knight[sq] = n.NorthEast() | n.NorthWest() | s.SouthEast() | s.SouthWest() |
			e.NorthEast() | e.SouthEast() | w.NorthWest() | w.SouthWest()

		t.pawn[White][sq] = bb.NorthEast() | bb.NorthWest()
		t.pawn[Black][sq] = bb.SouthEast() | bb.SouthWest()

		for dir := dirNorth; dir <= dirSouthWest; dir++ {
			t.rays[dir][sq] = walkRay(sq, dir)
		}
	}
	t.zobrist = newZobristKeys(seed)
	return t
}

func step(bb Bitboard, dir int) Bitboard {
	switch dir {
	case dirNorth:
		return bb.North()
	case dirEast:
		return bb.East()
	case dirNorthEast:
		return bb.NorthEast()
	case dirNorthWest:
		return bb.NorthWest()
	case dirSouth:
		return bb.South()
	case dirWest:
		return bb.West()
	case dirSouthEast:
		return bb.SouthEast()
	default:
		return bb.SouthWest()
	}
}

// walkRay returns every square from sq (exclusive) to the board edge.
func walkRay(sq Square, dir int) Bitboard {
	var ray Bitboard
	for bb := step(SquareBB(sq), dir); bb != 0; bb = step(bb, dir) {
		ray |= bb
	}
	return ray
}

// rayAttacks walks one direction and stops at the first occupied square,
// which is included.
func (t *Tables) rayAttacks(dir int, sq Square, occ Bitboard) Bitboard {
	ray := t.rays[dir][sq]
	blockers := ray & occ
	if blockers == 0 {
		return ray
	}
	var first Square
	if dir < dirSouth {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return ray ^ t.rays[dir][first]
}

func (t *Tables) KnightAttacks(sq Square) Bitboard { return t.knight[sq] }
func (t *Tables) KingAttacks(sq Square) Bitboard   { return t.king[sq] }

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func (t *Tables) PawnAttacks(c Color, sq Square) Bitboard { return t.pawn[c][sq] }

// BishopAttacks returns diagonal attacks from sq given occupancy occ.
func (t *Tables) BishopAttacks(sq Square, occ Bitboard) Bitboard {
	var a Bitboard
	for _, d := range bishopDirs {
		a |= t.rayAttacks(d, sq, occ)
	}
	return a
}

// RookAttacks returns orthogonal attacks from sq given occupancy occ.
func (t *Tables) RookAttacks(sq Square, occ Bitboard) Bitboard {
	var a Bitboard
	for _, d := range rookDirs {
		a |= t.rayAttacks(d, sq, occ)
	}
	return a
}

func (t *Tables) QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return t.BishopAttacks(sq, occ) | t.RookAttacks(sq, occ)
}

// Attacks dispatches on piece type. Pawns use color c.
func (t *Tables) Attacks(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return t.pawn[c][sq]
	case Knight:
		return t.knight[sq]
	case Bishop:
		return t.BishopAttacks(sq, occ)
	case Rook:
		return t.RookAttacks(sq, occ)
	case Queen:
		return t.QueenAttacks(sq, occ)
	case King:
		return t.king[sq]
	}
	return Empty
}
