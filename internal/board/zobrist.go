package board

import (
	"math"

	"lukechampine.com/frand"
)

// Zobrist keys. The hash covers piece placement and side to move only;
// castling rights and en passant are tracked by Game but not hashed.
var (
	zobristPiece [2][6][64]uint64 // [Color][PieceType][Square]
	sideKey      uint64
)

// zobristSeed fixes the key stream so hashes (and opening-book entries keyed
// by them) are stable across runs.
var zobristSeed = []byte("mateus zobrist keys, fixed seed!")

func init() {
	initZobrist()
}

func initZobrist() {
	rng := frand.NewCustom(zobristSeed, 1024, 12)
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.Uint64n(math.MaxUint64) + 1
			}
		}
	}
	sideKey = rng.Uint64n(math.MaxUint64) + 1
}

// ZobristPiece returns the key for piece p standing on sq, 0 for NoPiece.
func ZobristPiece(p Piece, sq Square) uint64 {
	if p >= NoPiece {
		return 0
	}
	return zobristPiece[p.Color()][p.Type()][sq]
}

// ZobristSide is XORed into the hash whenever Black is to move.
func ZobristSide() uint64 {
	return sideKey
}
