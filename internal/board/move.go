package board

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMove reports move text that does not name two squares.
	ErrInvalidMove = errors.New("invalid move")
	// ErrIllegalMove reports a well-formed move that is not legal here.
	ErrIllegalMove = errors.New("illegal move")
	// ErrMissingPromotion reports a pawn move to the last rank without a
	// promotion piece. It is never defaulted to a queen.
	ErrMissingPromotion = errors.New("promotion piece required")
)

// Move encodes a chess move in 32 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-14: promotion piece type + 1 (0 = none)
// bits 16-19: flags
type Move uint32

const (
	FlagCapture    Move = 1 << 16
	FlagEnPassant  Move = 1 << 17
	FlagCastling   Move = 1 << 18
	FlagDoublePush Move = 1 << 19
)

// NoMove is the zero move. It never matches a generated move.
const NoMove Move = 0

// NewMove creates a move with the given flags.
func NewMove(from, to Square, flags Move) Move {
	return Move(from) | Move(to)<<6 | flags
}

// NewPromotion creates a promotion to promo, optionally capturing.
func NewPromotion(from, to Square, promo PieceType, flags Move) Move {
	return Move(from) | Move(to)<<6 | Move(promo+1)<<12 | flags
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square((m >> 6) & 0x3F) }

// Promotion returns the promotion piece type, NoPieceType if none.
func (m Move) Promotion() PieceType {
	p := (m >> 12) & 0x7
	if p == 0 {
		return NoPieceType
	}
	return PieceType(p - 1)
}

func (m Move) IsPromotion() bool  { return (m>>12)&0x7 != 0 }
func (m Move) IsCapture() bool    { return m&FlagCapture != 0 }
func (m Move) IsEnPassant() bool  { return m&FlagEnPassant != 0 }
func (m Move) IsCastling() bool   { return m&FlagCastling != 0 }
func (m Move) IsDoublePush() bool { return m&FlagDoublePush != 0 }

// IsTactical reports captures and promotions.
func (m Move) IsTactical() bool { return m.IsCapture() || m.IsPromotion() }

// String returns UCI notation ("e2e4", "e7e8q"), "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove parses UCI notation and returns the matching legal move.
func (p *Position) ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	promo := NoPieceType
	if len(s) == 5 {
		var ok bool
		if promo, ok = PromotionFromChar(s[4]); !ok {
			return NoMove, fmt.Errorf("%w: bad promotion piece %q", ErrInvalidMove, s[4])
		}
	}

	piece := p.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	lastRank := to.RelativeRank(piece.Color()) == 7
	if piece.Type() == Pawn && lastRank && promo == NoPieceType {
		return NoMove, fmt.Errorf("%w: %s", ErrMissingPromotion, s)
	}

	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, s, p.FEN())
}

// MaxMoves bounds the number of moves in any legal position.
const MaxMoves = 256

// MoveList is a fixed-size list of moves, reused across calls.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int          { return ml.count }
func (ml *MoveList) Get(i int) Move    { return ml.moves[i] }
func (ml *MoveList) Swap(i, j int)     { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Clear()            { ml.count = 0 }
func (ml *MoveList) Slice() []Move     { return ml.moves[:ml.count] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}
