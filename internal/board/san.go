package board

import "strings"

const sanLetters = "PNBRQK"

// SAN formats a legal move of p in Standard Algebraic Notation, with a
// "+" or "#" suffix when it gives check or mate. Moves that are not
// legal in p fall back to coordinate notation.
func (p *Position) SAN(m Move) string {
	if m == NoMove || !p.IsLegal(m) {
		return m.String()
	}
	from, to := m.From(), m.To()

	var sb strings.Builder
	switch {
	case m.IsCastling() && to > from:
		sb.WriteString("O-O")
	case m.IsCastling():
		sb.WriteString("O-O-O")
	default:
		pt := p.PieceAt(from).Type()
		if pt != Pawn {
			sb.WriteByte(sanLetters[pt])
			sb.WriteString(p.disambiguation(m, pt))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(sanLetters[m.Promotion()])
		}
	}

	p.MakeMove(m)
	switch {
	case p.IsCheckmate():
		sb.WriteByte('#')
	case p.InCheck():
		sb.WriteByte('+')
	}
	p.UnmakeMove()
	return sb.String()
}

// disambiguation returns the origin file, rank, or square needed to tell
// m apart from other legal moves of the same piece type to the same square.
func (p *Position) disambiguation(m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	own := p.Pieces[p.SideToMove][pt]

	var ml MoveList
	p.GenerateLegalMoves(&ml)
	ambiguous, sameFile, sameRank := false, false, false
	for _, other := range ml.Slice() {
		if other.To() != to || other.From() == from || !own.IsSet(other.From()) {
			continue
		}
		ambiguous = true
		if other.From().File() == from.File() {
			sameFile = true
		}
		if other.From().Rank() == from.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// SANLine formats a sequence of moves played from p. It stops at the
// first move that is not legal in sequence. p is left unchanged.
func (p *Position) SANLine(moves []Move) []string {
	out := make([]string, 0, len(moves))
	played := 0
	for _, m := range moves {
		if !p.IsLegal(m) {
			break
		}
		out = append(out, p.SAN(m))
		p.MakeMove(m)
		played++
	}
	for ; played > 0; played-- {
		p.UnmakeMove()
	}
	return out
}
