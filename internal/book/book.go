// Package book stores prepared moves for known positions in BadgerDB.
package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

const keyPrefix = "pos/"

// ErrNotFound is returned when a position has no book entry.
var ErrNotFound = errors.New("book: position not found")

// Entry is one candidate move for a position.
type Entry struct {
	Move   string `json:"move"`
	Weight int    `json:"weight"`
}

// Book wraps BadgerDB for persistent storage of book moves.
type Book struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens the book stored in dir. An empty dir keeps the book in
// memory.
func Open(dir string, logger zerolog.Logger) (*Book, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = badgerLogger{logger.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("book: open %q: %w", dir, err)
	}
	return &Book{db: db, log: logger.With().Str("component", "book").Logger()}, nil
}

// Close closes the database
func (b *Book) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// normalize parses fen and returns the position with its storage key.
func normalize(fen string) (*board.Position, []byte, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, nil, err
	}
	return pos, []byte(keyPrefix + pos.Key()), nil
}

// Put adds one to the weight of move in the position given by fen.
func (b *Book) Put(fen, move string) error {
	return b.update(fen, move, func(e *Entry) { e.Weight++ })
}

// PutWeighted sets the weight of move in the position given by fen.
func (b *Book) PutWeighted(fen, move string, weight int) error {
	return b.update(fen, move, func(e *Entry) { e.Weight = weight })
}

func (b *Book) update(fen, move string, apply func(*Entry)) error {
	pos, key, err := normalize(fen)
	if err != nil {
		return err
	}
	m, err := pos.ParseMove(move)
	if err != nil {
		return fmt.Errorf("book: %s in %q: %w", move, fen, err)
	}
	text := m.String()

	return b.db.Update(func(txn *badger.Txn) error {
		entries, err := readEntries(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		i := indexOf(entries, text)
		if i < 0 {
			entries = append(entries, Entry{Move: text})
			i = len(entries) - 1
		}
		apply(&entries[i])

		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func indexOf(entries []Entry, move string) int {
	for i, e := range entries {
		if e.Move == move {
			return i
		}
	}
	return -1
}

func readEntries(txn *badger.Txn, key []byte) ([]Entry, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entries)
	})
	return entries, err
}

// Moves returns the stored entries for fen in insertion order.
func (b *Book) Moves(fen string) ([]Entry, error) {
	_, key, err := normalize(fen)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	err = b.db.View(func(txn *badger.Txn) error {
		entries, err = readEntries(txn, key)
		return err
	})
	return entries, err
}

// GetMove returns the heaviest legal book move for fen. Ties go to the
// entry added first.
func (b *Book) GetMove(fen string) (board.Move, bool) {
	pos, key, err := normalize(fen)
	if err != nil {
		return board.NoMove, false
	}
	var entries []Entry
	err = b.db.View(func(txn *badger.Txn) error {
		entries, err = readEntries(txn, key)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.log.Warn().Err(err).Str("fen", fen).Msg("book lookup failed")
		}
		return board.NoMove, false
	}

	best, bestWeight := board.NoMove, 0
	for _, e := range entries {
		m, err := pos.ParseMove(e.Move)
		if err != nil {
			b.log.Warn().Err(err).Str("fen", fen).Str("move", e.Move).Msg("skipping bad book move")
			continue
		}
		if best == board.NoMove || e.Weight > bestWeight {
			best, bestWeight = m, e.Weight
		}
	}
	return best, best != board.NoMove
}

// Delete removes every entry for fen.
func (b *Book) Delete(fen string) error {
	_, key, err := normalize(fen)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Count returns the number of positions in the book.
func (b *Book) Count() (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// badgerLogger routes Badger's logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}
