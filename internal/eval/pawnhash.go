package eval

// PawnEntry caches one pawn-structure score.
type PawnEntry struct {
	Key   uint64
	Score int32
	Used  bool
}

// PawnTable is a direct-mapped cache of pawn-structure scores keyed by
// the position's pawn key. Not safe for concurrent use.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a table of roughly sizeKB kilobytes, rounded down
// to a power-of-two entry count.
func NewPawnTable(sizeKB int) *PawnTable {
	const entrySize = 16
	n := sizeKB * 1024 / entrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the cached score for key.
func (pt *PawnTable) Probe(key uint64) (int, bool) {
	e := &pt.entries[key&pt.mask]
	if e.Used && e.Key == key {
		return int(e.Score), true
	}
	return 0, false
}

// Store records the score for key, replacing whatever held the slot.
func (pt *PawnTable) Store(key uint64, score int) {
	pt.entries[key&pt.mask] = PawnEntry{Key: key, Score: int32(score), Used: true}
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
