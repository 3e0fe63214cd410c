package board

// castlingRook returns the rook's from and to squares for a castling king
// landing on kingTo.
func castlingRook(kingTo Square) (Square, Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// epCaptureSquare is the square of the pawn taken en passant.
func epCaptureSquare(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// MakeMove applies m, which must be pseudo-legal for this position, and
// pushes an undo record.
func (p *Position) MakeMove(m Move) {
	z := &p.tables.zobrist
	from, to := m.From(), m.To()
	us := p.SideToMove
	moving := p.PieceAt(from)

	u := undo{
		move:      m,
		captured:  NoPiece,
		castling:  p.CastlingRights,
		enPassant: p.EnPassant,
		halfMove:  p.HalfMoveClock,
		hash:      p.Hash,
		pawnKey:   p.PawnKey,
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= z.enPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	capSq := to
	if m.IsEnPassant() {
		capSq = epCaptureSquare(to, us)
	}
	if captured := p.PieceAt(capSq); captured != NoPiece {
		u.captured = captured
		p.takePiece(captured, capSq)
		p.hashPiece(captured, capSq)
	}

	p.takePiece(moving, from)
	p.hashPiece(moving, from)
	placed := moving
	if m.IsPromotion() {
		placed = NewPiece(m.Promotion(), us)
	}
	p.putPiece(placed, to)
	p.hashPiece(placed, to)

	if m.IsCastling() {
		rook := NewPiece(Rook, us)
		rFrom, rTo := castlingRook(to)
		p.takePiece(rook, rFrom)
		p.hashPiece(rook, rFrom)
		p.putPiece(rook, rTo)
		p.hashPiece(rook, rTo)
	}

	if cr := p.CastlingRights & castleMask[from] & castleMask[to]; cr != p.CastlingRights {
		p.Hash ^= z.castling[p.CastlingRights] ^ z.castling[cr]
		p.CastlingRights = cr
	}

	if m.IsDoublePush() {
		p.EnPassant = Square((int(from) + int(to)) / 2)
		p.Hash ^= z.enPassant[p.EnPassant.File()]
	}

	if moving.Type() == Pawn || u.captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.Hash ^= z.side
	p.history = append(p.history, u)
}

// UnmakeMove reverts the most recent MakeMove.
func (p *Position) UnmakeMove() {
	n := len(p.history) - 1
	u := p.history[n]
	p.history = p.history[:n]

	m := u.move
	from, to := m.From(), m.To()
	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	placed := p.PieceAt(to)
	p.takePiece(placed, to)
	if m.IsPromotion() {
		p.putPiece(NewPiece(Pawn, us), from)
	} else {
		p.putPiece(placed, from)
	}

	if m.IsCastling() {
		rook := NewPiece(Rook, us)
		rFrom, rTo := castlingRook(to)
		p.takePiece(rook, rTo)
		p.putPiece(rook, rFrom)
	}

	if u.captured != NoPiece {
		capSq := to
		if m.IsEnPassant() {
			capSq = epCaptureSquare(to, us)
		}
		p.putPiece(u.captured, capSq)
	}

	p.CastlingRights = u.castling
	p.EnPassant = u.enPassant
	p.HalfMoveClock = u.halfMove
	p.Hash = u.hash
	p.PawnKey = u.pawnKey
}

// MakeNullMove passes the turn. It must not be called while in check.
func (p *Position) MakeNullMove() {
	z := &p.tables.zobrist
	p.history = append(p.history, undo{
		captured:  NoPiece,
		castling:  p.CastlingRights,
		enPassant: p.EnPassant,
		halfMove:  p.HalfMoveClock,
		hash:      p.Hash,
		pawnKey:   p.PawnKey,
		null:      true,
	})
	if p.EnPassant != NoSquare {
		p.Hash ^= z.enPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= z.side
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove() {
	n := len(p.history) - 1
	u := p.history[n]
	p.history = p.history[:n]
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.enPassant
	p.HalfMoveClock = u.halfMove
	p.Hash = u.hash
}

// LastMoveWasNull reports whether the most recent entry is a null move.
func (p *Position) LastMoveWasNull() bool {
	return len(p.history) > 0 && p.history[len(p.history)-1].null
}

// IsRepetition reports a threefold repetition of the current position,
// looking back no further than the last irreversible move.
func (p *Position) IsRepetition() bool {
	count := 1
	for i := len(p.history) - 1; i >= 0; i-- {
		u := &p.history[i]
		if u.null {
			return false
		}
		if u.hash == p.Hash {
			count++
			if count >= 3 {
				return true
			}
		}
		if u.halfMove == 0 {
			return false
		}
	}
	return false
}

// IsFiftyMoveDraw reports whether the fifty-move rule applies.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// IsInsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or bishops all on one color.
func (p *Position) IsInsufficientMaterial() bool {
	heavy := p.Pieces[White][Pawn] | p.Pieces[Black][Pawn] |
		p.Pieces[White][Rook] | p.Pieces[Black][Rook] |
		p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	if heavy != 0 {
		return false
	}
	knights := p.Pieces[White][Knight] | p.Pieces[Black][Knight]
	bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop]
	minors := (knights | bishops).PopCount()
	if minors <= 1 {
		return true
	}
	const darkSquares Bitboard = 0xAA55AA55AA55AA55
	if knights == 0 && (bishops&darkSquares == 0 || bishops&^darkSquares == 0) {
		return true
	}
	return false
}

// IsDraw reports a draw by rule: fifty moves, repetition or material.
func (p *Position) IsDraw() bool {
	return p.IsFiftyMoveDraw() || p.IsRepetition() || p.IsInsufficientMaterial()
}
