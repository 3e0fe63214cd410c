package book

import (
	"context"
	"fmt"

	"github.com/freeeve/pgn/v3"

	"github.com/hailam/chesscore/internal/board"
)

// ImportPGN replays every game in the PGN file at path (plain or .pgn.zst)
// and adds one weight to each of its first maxPly moves. A game is cut
// short at the first move that does not replay. Returns the number of
// games read.
func (b *Book) ImportPGN(ctx context.Context, path string, maxPly int) (int, error) {
	if maxPly <= 0 {
		return 0, fmt.Errorf("book: maxPly must be positive, got %d", maxPly)
	}
	parser := pgn.Games(path)

	games, moves := 0, 0
	stopped := false
gameLoop:
	for game := range parser.Games {
		select {
		case <-ctx.Done():
			if !stopped {
				parser.Stop()
				stopped = true
			}
			break gameLoop
		default:
		}

		pos := board.NewPosition()
		for ply, mv := range game.Moves {
			if ply >= maxPly {
				break
			}
			text := mvToUCI(mv)
			m, err := pos.ParseMove(text)
			if err != nil {
				b.log.Warn().Err(err).Int("game", games+1).Int("ply", ply).Msg("pgn move does not replay")
				break
			}
			if err := b.Put(pos.FEN(), text); err != nil {
				return games, err
			}
			pos.MakeMove(m)
			moves++
		}
		games++
	}

	if err := parser.Err(); err != nil {
		return games, fmt.Errorf("book: read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return games, err
	}
	b.log.Info().Str("path", path).Int("games", games).Int("moves", moves).Msg("pgn imported")
	return games, nil
}

// mvToUCI converts a parsed PGN move to coordinate notation.
func mvToUCI(mv pgn.Mv) string {
	const files, ranks = "abcdefgh", "12345678"
	uci := string(files[mv.From%8]) + string(ranks[mv.From/8]) +
		string(files[mv.To%8]) + string(ranks[mv.To/8])

	switch mv.Promo {
	case pgn.PromoQueen:
		uci += "q"
	case pgn.PromoRook:
		uci += "r"
	case pgn.PromoBishop:
		uci += "b"
	case pgn.PromoKnight:
		uci += "n"
	}
	return uci
}
