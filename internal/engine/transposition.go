package engine

import (
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the decoded content of a table slot.
type TTEntry struct {
	Key   uint64
	Move  board.Move
	Score int16
	Depth uint8
	Flag  TTFlag
	Age   uint8
}

// Layout of the packed data word.
const (
	ttMoveBits   = 20
	ttMoveMask   = 1<<ttMoveBits - 1
	ttScoreShift = 20
	ttDepthShift = 36
	ttFlagShift  = 44
	ttUsedBit    = 1 << 46
	ttAgeShift   = 47
)

func packEntry(m board.Move, score int, depth int, flag TTFlag, age uint8) uint64 {
	if depth > 255 {
		depth = 255
	}
	return uint64(m)&ttMoveMask |
		uint64(uint16(int16(score)))<<ttScoreShift |
		uint64(uint8(depth))<<ttDepthShift |
		uint64(flag&3)<<ttFlagShift |
		ttUsedBit |
		uint64(age)<<ttAgeShift
}

func unpackEntry(key, data uint64) TTEntry {
	return TTEntry{
		Key:   key,
		Move:  board.Move(data & ttMoveMask),
		Score: int16(uint16(data >> ttScoreShift)),
		Depth: uint8(data >> ttDepthShift),
		Flag:  TTFlag((data >> ttFlagShift) & 3),
		Age:   uint8(data >> ttAgeShift),
	}
}

// ttSlot holds the key XORed with the data next to the data itself. A
// reader that sees halves of two different writes fails the XOR check and
// treats the slot as a miss.
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// TranspositionTable is a shared hash table for search results. It takes
// no locks; concurrent readers and writers race benignly.
type TranspositionTable struct {
	slots []ttSlot
	mask  uint64
	age   atomic.Uint32
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const slotSize = 16
	n := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / slotSize)
	return &TranspositionTable{
		slots: make([]ttSlot, n),
		mask:  n - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position. A slot holding a different position is a miss.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	s := &tt.slots[hash&tt.mask]
	data := s.data.Load()
	check := s.check.Load()
	if data&ttUsedBit == 0 || check^data != hash {
		return TTEntry{}, false
	}
	return unpackEntry(hash, data), true
}

// Store saves a search result. Entries from the current search that are
// deeper than the new one survive, unless the new one is exact for the
// same position.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, m board.Move) {
	s := &tt.slots[hash&tt.mask]
	age := uint8(tt.age.Load())

	if old := s.data.Load(); old&ttUsedBit != 0 {
		prev := unpackEntry(s.check.Load()^old, old)
		if prev.Age == age && int(prev.Depth) > depth {
			if prev.Key != hash || flag != TTExact {
				return
			}
		}
		if m == board.NoMove && prev.Key == hash {
			m = prev.Move
		}
	}

	data := packEntry(m, score, depth, flag, age)
	s.data.Store(data)
	s.check.Store(hash ^ data)
}

// NewSearch advances the generation so older entries are replaced first.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear empties the table and its counters.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].data.Store(0)
		tt.slots[i].check.Store(0)
	}
	tt.age.Store(0)
}

// HashFull returns the permille of sampled slots written in the current
// generation.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if len(tt.slots) < sample {
		sample = len(tt.slots)
	}
	age := uint8(tt.age.Load())
	used := 0
	for i := 0; i < sample; i++ {
		d := tt.slots[i].data.Load()
		if d&ttUsedBit != 0 && uint8(d>>ttAgeShift) == age {
			used++
		}
	}
	return used * 1000 / sample
}

// AdjustScoreToTT converts a mate score relative to the root into one
// relative to the stored node.
func AdjustScoreToTT(score, ply int) int {
	if score >= mateThreshold {
		return score + ply
	}
	if score <= -mateThreshold {
		return score - ply
	}
	return score
}

// AdjustScoreFromTT undoes AdjustScoreToTT for a lookup at ply.
func AdjustScoreFromTT(score, ply int) int {
	if score >= mateThreshold {
		return score - ply
	}
	if score <= -mateThreshold {
		return score + ply
	}
	return score
}
