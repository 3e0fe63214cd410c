package board

// GeneratePseudoLegalMoves fills ml with every pseudo-legal move.
func (p *Position) GeneratePseudoLegalMoves(ml *MoveList) {
	ml.Clear()
	p.generate(ml, false)
}

// GenerateLegalMoves fills ml with every legal move.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	ml.Clear()
	p.generate(ml, false)
	p.filterLegal(ml)
}

// GenerateLegalCaptures fills ml with legal captures and promotions.
func (p *Position) GenerateLegalCaptures(ml *MoveList) {
	ml.Clear()
	p.generate(ml, true)
	p.filterLegal(ml)
}

// LegalMoves returns the legal moves as a new slice.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	return append([]Move(nil), ml.Slice()...)
}

func (p *Position) generate(ml *MoveList, tacticalOnly bool) {
	t := p.tables
	us := p.SideToMove
	own := p.Occupied[us]
	enemies := p.Occupied[us.Other()]
	occ := p.AllOccupied

	targets := ^own
	if tacticalOnly {
		targets = enemies
	}

	p.generatePawnMoves(ml, us, tacticalOnly)

	for pt := Knight; pt <= King; pt++ {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := t.Attacks(pt, us, from, occ) & targets
			for attacks != 0 {
				to := attacks.PopLSB()
				if enemies.IsSet(to) {
					ml.Add(NewMove(from, to, FlagCapture))
				} else {
					ml.Add(NewMove(from, to, 0))
				}
			}
		}
	}

	if !tacticalOnly {
		p.generateCastlingMoves(ml, us)
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, tacticalOnly bool) {
	t := p.tables
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	promotionRank, doubleRank, pushDir := Rank8, Rank3, 8
	if us == Black {
		promotionRank, doubleRank, pushDir = Rank1, Rank6, -8
	}

	for bb := pawns; bb != 0; {
		from := bb.PopLSB()

		one := SquareBB(from).Forward(us) & empty
		if one != 0 {
			to := Square(int(from) + pushDir)
			if one&promotionRank != 0 {
				addPromotions(ml, from, to, 0)
			} else if !tacticalOnly {
				ml.Add(NewMove(from, to, 0))
				if (one&doubleRank).Forward(us)&empty != 0 {
					ml.Add(NewMove(from, Square(int(to)+pushDir), FlagDoublePush))
				}
			}
		}

		captures := t.pawn[us][from] & enemies
		for captures != 0 {
			to := captures.PopLSB()
			if SquareBB(to)&promotionRank != 0 {
				addPromotions(ml, from, to, FlagCapture)
			} else {
				ml.Add(NewMove(from, to, FlagCapture))
			}
		}

		if p.EnPassant != NoSquare && t.pawn[us][from].IsSet(p.EnPassant) {
			ml.Add(NewMove(from, p.EnPassant, FlagCapture|FlagEnPassant))
		}
	}
}

// addPromotions adds the four promotions, queen first.
func addPromotions(ml *MoveList, from, to Square, flags Move) {
	ml.Add(NewPromotion(from, to, Queen, flags))
	ml.Add(NewPromotion(from, to, Rook, flags))
	ml.Add(NewPromotion(from, to, Bishop, flags))
	ml.Add(NewPromotion(from, to, Knight, flags))
}

// castleRule describes one castling option: the squares that must be
// empty and the squares the king stands on, crosses and lands on, none of
// which may be attacked.
type castleRule struct {
	right    CastlingRights
	from, to Square
	empty    Bitboard
	safe     [3]Square
}

var castleRules = [2][2]castleRule{
	White: {
		{WhiteKingSideCastle, E1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
		{WhiteQueenSideCastle, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
		{BlackQueenSideCastle, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	for _, r := range castleRules[us] {
		if p.CastlingRights&r.right == 0 || p.AllOccupied&r.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(r.safe[0], them) ||
			p.IsSquareAttacked(r.safe[1], them) ||
			p.IsSquareAttacked(r.safe[2], them) {
			continue
		}
		ml.Add(NewMove(r.from, r.to, FlagCastling))
	}
}

// filterLegal keeps the moves that do not leave the mover in check.
// Each candidate is made, tested and unmade, so the position is unchanged
// afterwards.
func (p *Position) filterLegal(ml *MoveList) {
	us := p.SideToMove
	n := 0
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		p.MakeMove(m)
		legal := !p.IsInCheck(us)
		p.UnmakeMove()
		if legal {
			ml.moves[n] = m
			n++
		}
	}
	ml.count = n
}

// IsLegal reports whether m is in the legal move list.
func (p *Position) IsLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	return ml.Contains(m)
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GeneratePseudoLegalMoves(&ml)
	us := p.SideToMove
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		legal := !p.IsInCheck(us)
		p.UnmakeMove()
		if legal {
			return true
		}
	}
	return false
}

// IsCheckmate reports the side to move in check with no legal move.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports the side to move not in check with no legal move.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// Perft counts the leaf nodes of the legal move tree to depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove()
	}
	return nodes
}

// Divide returns the perft count below each legal root move.
func (p *Position) Divide(depth int) map[Move]uint64 {
	out := make(map[Move]uint64)
	if depth < 1 {
		return out
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		out[m] = p.Perft(depth - 1)
		p.UnmakeMove()
	}
	return out
}
