package board

// Attack queries are computed from the current occupancy on every call.

// AttackersTo returns all pieces of both colors attacking sq given occ.
func (p *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	t := p.tables
	rooks := p.Pieces[White][Rook] | p.Pieces[Black][Rook] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]

	return t.pawn[Black][sq]&p.Pieces[White][Pawn] |
		t.pawn[White][sq]&p.Pieces[Black][Pawn] |
		t.knight[sq]&(p.Pieces[White][Knight]|p.Pieces[Black][Knight]) |
		t.king[sq]&(p.Pieces[White][King]|p.Pieces[Black][King]) |
		t.RookAttacks(sq, occ)&rooks |
		t.BishopAttacks(sq, occ)&bishops
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	t := p.tables
	if t.pawn[by.Other()][sq]&p.Pieces[by][Pawn] != 0 {
		return true
	}
	if t.knight[sq]&p.Pieces[by][Knight] != 0 {
		return true
	}
	if t.king[sq]&p.Pieces[by][King] != 0 {
		return true
	}
	queens := p.Pieces[by][Queen]
	if t.RookAttacks(sq, p.AllOccupied)&(p.Pieces[by][Rook]|queens) != 0 {
		return true
	}
	return t.BishopAttacks(sq, p.AllOccupied)&(p.Pieces[by][Bishop]|queens) != 0
}

// IsInCheck reports whether c's king is attacked.
func (p *Position) IsInCheck(c Color) bool {
	ksq := p.KingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsInCheck(p.SideToMove)
}

// Checkers returns the enemy pieces giving check to the side to move.
func (p *Position) Checkers() Bitboard {
	us := p.SideToMove
	return p.AttackersTo(p.KingSquare[us], p.AllOccupied) & p.Occupied[us.Other()]
}
