package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN wraps every FEN parse failure.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN parses a FEN string using the default tables.
func ParseFEN(fen string) (*Position, error) {
	return DefaultTables().ParseFEN(fen)
}

// ParseFEN parses a FEN string. The half-move and full-move fields may be
// omitted and default to 0 and 1.
func (t *Tables) ParseFEN(fen string) (*Position, error) {
	pos, err := t.parseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return pos, nil
}

func (t *Tables) parseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("need 4 or 6 fields, got %d", len(parts))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
		tables:         t,
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move %q", parts[1])
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("en passant: %v", err)
		}
		want := 5
		if pos.SideToMove == Black {
			want = 2
		}
		if sq.Rank() != want {
			return nil, fmt.Errorf("en passant square %s on wrong rank", sq)
		}
		mover := pos.SideToMove.Other()
		if pos.PieceAt(epCaptureSquare(sq, pos.SideToMove)) != NewPiece(Pawn, mover) {
			return nil, fmt.Errorf("en passant square %s without a pawn in front", sq)
		}
		pos.EnPassant = sq
	}

	if len(parts) == 6 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("invalid half-move clock %q", parts[4])
		}
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("invalid full-move number %q", parts[5])
		}
		pos.HalfMoveClock = hmc
		pos.FullMoveNumber = fmn
	}

	if err := pos.validate(); err != nil {
		return nil, err
	}
	pos.Hash = pos.computeHash()
	pos.PawnKey = pos.computePawnKey()
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				if file > 8 {
					return fmt.Errorf("rank %d has more than 8 files", rank+1)
				}
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece {
				return fmt.Errorf("invalid piece character %q", c)
			}
			if file > 7 {
				return fmt.Errorf("rank %d has more than 8 files", rank+1)
			}
			pos.putPiece(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("rank %d has %d files", rank+1, file)
		}
	}
	return nil
}

// castleHome lists the king and rook squares each right depends on.
var castleHome = [4]struct {
	right      CastlingRights
	king, rook Piece
	kingSq     Square
	rookSq     Square
}{
	{WhiteKingSideCastle, WhiteKing, WhiteRook, E1, H1},
	{WhiteQueenSideCastle, WhiteKing, WhiteRook, E1, A1},
	{BlackKingSideCastle, BlackKing, BlackRook, E8, H8},
	{BlackQueenSideCastle, BlackKing, BlackRook, E8, A8},
}

func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		return nil
	}
	for _, c := range castling {
		i := strings.IndexRune("KQkq", c)
		if i < 0 {
			return fmt.Errorf("invalid castling character %q", c)
		}
		pos.CastlingRights |= 1 << i
	}
	for _, h := range castleHome {
		if pos.CastlingRights&h.right == 0 {
			continue
		}
		if pos.PieceAt(h.kingSq) != h.king || pos.PieceAt(h.rookSq) != h.rook {
			return fmt.Errorf("castling right %s without king and rook at home", h.right)
		}
	}
	return nil
}

// FEN returns the FEN representation of the position.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := " w "
	if p.SideToMove == Black {
		side = " b "
	}
	sb.WriteString(side)
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	fmt.Fprintf(&sb, " %d %d", p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}

// Key returns the FEN without the move counters, used for book lookups.
func (p *Position) Key() string {
	f := strings.Fields(p.FEN())
	return strings.Join(f[:4], " ")
}
