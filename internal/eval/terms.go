package eval

import "github.com/hailam/chesscore/internal/board"

// Mobility weight per reachable square, by piece type.
var mobilityWeight = [6]int{0, 4, 5, 2, 1, 0}

// King safety weights per attacker type.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	kingDefenderBonus  = 5
	pawnShieldBonus    = 10
	pawnShieldMissing  = -15
	openFileNearKing   = -20
	semiOpenNearKing   = -10
	doubledPawnPenalty = -15
	isolatedPenalty    = -20
	connectedBonus     = 8
)

// Passed pawn bonus by relative rank.
var passedPawnBonus = [8]int{0, 10, 15, 25, 45, 75, 120, 0}

func sign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

func material(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pieceValues[pt] * (pos.Pieces[board.White][pt].PopCount() - pos.Pieces[board.Black][pt].PopCount())
	}
	return score
}

func positional(pos *board.Position) int {
	score := 0
	for c := board.White; c <= board.Black; c++ {
		s := sign(c)
		for pt := board.Pawn; pt < board.King; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				score += s * pstValue(pt, c, bb.PopLSB())
			}
		}
	}
	return score
}

// mobility counts the squares each minor and major piece can move to,
// excluding squares held by its own side.
func mobility(pos *board.Position) int {
	t := pos.Tables()
	occ := pos.AllOccupied
	score := 0
	for c := board.White; c <= board.Black; c++ {
		s := sign(c)
		own := pos.Occupied[c]
		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				n := (t.Attacks(pt, c, sq, occ) &^ own).PopCount()
				score += s * mobilityWeight[pt] * n
			}
		}
	}
	return score
}

// kingSafety scores attackers and defenders around each king. In the
// endgame the king is rewarded for centralization instead.
func kingSafety(pos *board.Position) int {
	if IsEndgame(pos) {
		score := 0
		for c := board.White; c <= board.Black; c++ {
			ksq := pos.KingSquare[c]
			score += sign(c) * kingEndgamePST[pstIndex(ksq, c)]
		}
		return score
	}

	t := pos.Tables()
	occ := pos.AllOccupied
	score := 0
	for c := board.White; c <= board.Black; c++ {
		s := sign(c)
		enemy := c.Other()
		ksq := pos.KingSquare[c]
		score += s * kingMidgamePST[pstIndex(ksq, c)]

		zone := t.KingAttacks(ksq) | board.SquareBB(ksq)
		zone |= zone.Forward(c)

		defenders := (t.KingAttacks(ksq) & pos.Occupied[c]).PopCount()
		score += s * kingDefenderBonus * defenders

		attackers, weight := 0, 0
		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[enemy][pt]; bb != 0; {
				sq := bb.PopLSB()
				if t.Attacks(pt, enemy, sq, occ)&zone != 0 {
					attackers++
					weight += attackerWeight[pt]
				}
			}
		}
		if attackers >= 2 {
			weight = weight * attackers / 2
		}
		score -= s * weight

		own := pos.Pieces[c][board.Pawn]
		theirs := pos.Pieces[enemy][board.Pawn]
		shieldRank := board.RankMask[1]
		if c == board.Black {
			shieldRank = board.RankMask[6]
		}
		kf := ksq.File()
		for f := kf - 1; f <= kf+1; f++ {
			if f < 0 || f > 7 {
				continue
			}
			file := board.FileMask[f]
			switch {
			case own&file&shieldRank != 0:
				score += s * pawnShieldBonus
			case own&file == 0:
				score += s * pawnShieldMissing
			}
			if own&file == 0 {
				if theirs&file == 0 {
					score += s * openFileNearKing
				} else {
					score += s * semiOpenNearKing
				}
			}
		}
	}
	return score
}

// frontSpan is every square ahead of sq from c's side, same file.
func frontSpan(sq board.Square, c board.Color) board.Bitboard {
	bb := board.SquareBB(sq)
	if c == board.White {
		return bb.NorthFill() &^ bb
	}
	return bb.SouthFill() &^ bb
}

// pawnStructure depends on pawn placement only, so it can be cached by
// the pawn key.
func pawnStructure(pos *board.Position) int {
	t := pos.Tables()
	score := 0
	for c := board.White; c <= board.Black; c++ {
		s := sign(c)
		own := pos.Pieces[c][board.Pawn]
		theirs := pos.Pieces[c.Other()][board.Pawn]

		for f := 0; f < 8; f++ {
			if n := (own & board.FileMask[f]).PopCount(); n > 1 {
				score += s * doubledPawnPenalty * (n - 1)
			}
		}

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			f := sq.File()
			adjacent := board.AdjacentFiles(f)

			if own&adjacent == 0 {
				score += s * isolatedPenalty
			}

			span := frontSpan(sq, c)
			if theirs&(span|span.East()|span.West()) == 0 {
				score += s * passedPawnBonus[sq.RelativeRank(c)]
			}

			// Side by side or defended by a pawn.
			phalanx := (board.SquareBB(sq).East() | board.SquareBB(sq).West()) & own
			defended := t.PawnAttacks(c.Other(), sq) & own
			if phalanx|defended != 0 {
				score += s * connectedBonus
			}
		}
	}
	return score
}
