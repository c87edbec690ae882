package engine

import (
	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// Bound says how a stored score relates to the true value.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundExact       // score is exact
	BoundLower       // failed high: true value >= score
	BoundUpper       // failed low: true value <= score
)

// TTEntry is one slot of the transposition table.
type TTEntry struct {
	Key   uint64     // full hash, verified on probe
	Move  board.Move // best move found, NoMove if none
	Score int32
	Depth int16
	Bound Bound
}

// TranspositionTable maps position hashes to search results. It belongs to
// exactly one Searcher and is not safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(40)
	numEntries := roundDownToPowerOf2((uint64(sizeMB) * 1024 * 1024) / entrySize)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
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

// Probe returns the entry stored for hash, if any.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	e := tt.entries[hash&tt.mask]
	if e.Bound != BoundNone && e.Key == hash {
		tt.hits++
		return e, true
	}
	return TTEntry{}, false
}

// Store records a result. A slot holding a deeper or equally deep result for
// another position is kept; the same position at equal depth is refreshed.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, bound Bound, best board.Move) {
	e := &tt.entries[hash&tt.mask]
	if e.Bound != BoundNone && int(e.Depth) >= depth && !(e.Key == hash && int(e.Depth) == depth) {
		return
	}
	*e = TTEntry{
		Key:   hash,
		Move:  best,
		Score: int32(score),
		Depth: int16(depth),
		Bound: bound,
	}
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// ClearExcept empties the table but keeps the entry for hash.
func (tt *TranspositionTable) ClearExcept(hash uint64) {
	keep, ok := tt.Probe(hash)
	tt.Clear()
	if ok {
		tt.entries[hash&tt.mask] = keep
	}
}

// HashFull returns the permille of sampled slots in use.
func (tt *TranspositionTable) HashFull() int {
	sample := uint64(1000)
	if sample > tt.size {
		sample = tt.size
	}
	used := 0
	for i := uint64(0); i < sample; i++ {
		if tt.entries[i].Bound != BoundNone {
			used++
		}
	}
	return used * 1000 / int(sample)
}

// HitRate returns the hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Mate scores are stored relative to the node rather than the root so they
// stay valid when the same position is reached at another ply.

func scoreToTT(score, ply int) int {
	switch {
	case score > Infinite-MaxPly:
		return score + ply
	case score < -Infinite+MaxPly:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score > Infinite-MaxPly:
		return score - ply
	case score < -Infinite+MaxPly:
		return score + ply
	}
	return score
}
