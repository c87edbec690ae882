package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// PawnEntry caches the pawn-structure term for one pawn configuration.
// Both bitboards are kept so a probe can verify the match exactly.
type PawnEntry struct {
	White board.Bitboard
	Black board.Bitboard
	Score int32
	used  bool
}

// PawnTable is a direct-mapped cache keyed by the two pawn bitboards.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a pawn table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	entrySize := 24
	numEntries := (sizeMB * 1024 * 1024) / entrySize

	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

func pawnIndex(white, black board.Bitboard) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(white))
	binary.LittleEndian.PutUint64(buf[8:], uint64(black))
	return xxhash.Sum64(buf[:])
}

// Probe returns the cached score for the configuration, if present.
func (pt *PawnTable) Probe(white, black board.Bitboard) (int, bool) {
	e := &pt.entries[pawnIndex(white, black)&pt.mask]
	if e.used && e.White == white && e.Black == black {
		return int(e.Score), true
	}
	return 0, false
}

// Store saves a score, replacing whatever shared the slot.
func (pt *PawnTable) Store(white, black board.Bitboard, score int) {
	e := &pt.entries[pawnIndex(white, black)&pt.mask]
	*e = PawnEntry{White: white, Black: black, Score: int32(score), used: true}
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
