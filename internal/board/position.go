package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castleMask[sq] is ANDed into the rights whenever a move leaves or lands on sq.
var castleMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	for sq := range m {
		m[sq] = AllCastling
	}
	m[A1] &^= WhiteQueenSideCastle
	m[H1] &^= WhiteKingSideCastle
	m[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	m[A8] &^= BlackQueenSideCastle
	m[H8] &^= BlackKingSideCastle
	m[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	return m
}()

// undo is one entry of the make/unmake stack.
type undo struct {
	move      Move
	captured  Piece
	castling  CastlingRights
	enPassant Square
	halfMove  int
	hash      uint64
	pawnKey   uint64
	null      bool
}

// Position is a chess position. It is mutated in place by MakeMove and
// restored by UnmakeMove.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	Hash    uint64
	PawnKey uint64

	KingSquare [2]Square

	history []undo
	tables  *Tables
}

// NewPosition returns the starting position on the default tables.
func NewPosition() *Position {
	return DefaultTables().NewPosition()
}

// NewPosition returns the starting position using t.
func (t *Tables) NewPosition() *Position {
	pos, err := t.ParseFEN(StartFEN)
	if err != nil {
		panic("board: start position: " + err.Error())
	}
	return pos
}

// Tables returns the tables this position was built with.
func (p *Position) Tables() *Tables {
	return p.tables
}

// Copy returns an independent copy, undo stack included.
func (p *Position) Copy() *Position {
	c := *p
	c.history = make([]undo, len(p.history), cap(p.history))
	copy(c.history, p.history)
	return &c
}

// Equal compares every field except the undo stack.
func (p *Position) Equal(o *Position) bool {
	return p.Pieces == o.Pieces &&
		p.Occupied == o.Occupied &&
		p.AllOccupied == o.AllOccupied &&
		p.SideToMove == o.SideToMove &&
		p.CastlingRights == o.CastlingRights &&
		p.EnPassant == o.EnPassant &&
		p.HalfMoveClock == o.HalfMoveClock &&
		p.FullMoveNumber == o.FullMoveNumber &&
		p.Hash == o.Hash &&
		p.PawnKey == o.PawnKey &&
		p.KingSquare == o.KingSquare
}

// Ply returns the number of moves made since the position was set up.
func (p *Position) Ply() int {
	return len(p.history)
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// putPiece and takePiece touch the bitboards only; hashing is separate.
func (p *Position) putPiece(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) takePiece(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
}

// hashPiece toggles pc on sq in the Zobrist and pawn keys.
func (p *Position) hashPiece(pc Piece, sq Square) {
	k := p.tables.zobrist.piece[pc.Color()][pc.Type()][sq]
	p.Hash ^= k
	if pc.Type() == Pawn {
		p.PawnKey ^= k
	}
}

// HasNonPawnMaterial reports whether the side to move has a piece other
// than pawns and king.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// validate checks structural invariants after a FEN parse.
func (p *Position) validate() error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawn on first or last rank")
	}
	if p.IsInCheck(p.SideToMove.Other()) {
		return fmt.Errorf("side not to move is in check")
	}
	return nil
}

// String returns a diagram of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.FEN())
	fmt.Fprintf(&sb, "Key: %016X\n", p.Hash)
	sb.WriteString("Checkers:")
	for c := p.Checkers(); c != 0; {
		sb.WriteString(" " + c.PopLSB().String())
	}
	sb.WriteByte('\n')
	return sb.String()
}
