package book

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// Export writes every entry as a zstd-compressed stream of
// "fen<TAB>move<TAB>weight" lines. The FEN has no move counters.
func (b *Book) Export(w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(enc)

	lines := 0
	err = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			fen := strings.TrimPrefix(string(item.Key()), keyPrefix)
			var entries []Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entries)
			}); err != nil {
				return fmt.Errorf("book: decode %q: %w", fen, err)
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(bw, "%s\t%s\t%d\n", fen, e.Move, e.Weight); err != nil {
					return err
				}
				lines++
			}
		}
		return nil
	})
	if err != nil {
		enc.Close()
		return lines, err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return lines, err
	}
	return lines, enc.Close()
}

// Import reads a stream written by Export and stores its entries,
// overwriting weights for moves already present.
func (b *Book) Import(r io.Reader) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	n, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			return n, fmt.Errorf("book: line %d: want 3 tab-separated fields, got %d", lineNo, len(parts))
		}
		weight, err := strconv.Atoi(parts[2])
		if err != nil {
			return n, fmt.Errorf("book: line %d: weight: %w", lineNo, err)
		}
		if err := b.PutWeighted(parts[0], parts[1], weight); err != nil {
			return n, fmt.Errorf("book: line %d: %w", lineNo, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	b.log.Info().Int("entries", n).Msg("book imported")
	return n, nil
}
