package engine

import (
	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// Pawn structure weights.
const (
	doubledPenalty  = 20
	isolatedPenalty = 4
)

// Evaluate scores the position for colour c: incremental material (with
// piece-square terms), pawn structure and the pseudo-legal mobility
// difference. Positive is good for c.
func Evaluate(g *board.Game, c board.Color, pawns *PawnTable) int {
	bm := g.Bitmaps()
	score := int(g.Material())
	score += pawnScore(bm.Pawns&bm.White, bm.Pawns&bm.Black, pawns)
	score += g.CountMoves(board.White) - g.CountMoves(board.Black)
	if c == board.Black {
		return -score
	}
	return score
}

func pawnScore(white, black board.Bitboard, pawns *PawnTable) int {
	if pawns == nil {
		return PawnStructure(white, black)
	}
	if s, ok := pawns.Probe(white, black); ok {
		return s
	}
	s := PawnStructure(white, black)
	pawns.Store(white, black, s)
	return s
}

// PawnStructure is the White-positive pawn term: doubled and isolated pawn
// penalties plus a bonus for passed pawns.
func PawnStructure(white, black board.Bitboard) int {
	score := -weakPawns(white) + weakPawns(black)
	for f := 0; f < 8; f++ {
		w := white & board.FileMask[f]
		b := black & board.FileMask[f]
		// A file's most advanced pawn counts as passed when no enemy pawn
		// stands further along the same file.
		if w != 0 {
			r := w.MSB().Rank()
			if b&aboveRank(r) == 0 {
				score += r * r
			}
		}
		if b != 0 {
			r := b.LSB().Rank()
			if w&belowRank(r) == 0 {
				d := 7 - r
				score -= d * d
			}
		}
	}
	return score
}

// weakPawns is 20 per doubled pawn plus 4 per isolated pawn.
func weakPawns(pawns board.Bitboard) int {
	files := pawns.Files()
	doubled := pawns.PopCount() - popcount8(files)
	isolated := 0
	for f := 0; f < 8; f++ {
		if files&(1<<f) == 0 {
			continue
		}
		neighbours := (files << 1) | (files >> 1)
		if neighbours&(1<<f) == 0 {
			isolated += (pawns & board.FileMask[f]).PopCount()
		}
	}
	return doubledPenalty*doubled + isolatedPenalty*isolated
}

func popcount8(b uint8) int {
	return board.Bitboard(b).PopCount()
}

// aboveRank is every square on ranks strictly above r.
func aboveRank(r int) board.Bitboard {
	if r >= 7 {
		return 0
	}
	return ^board.Bitboard(0) << (8 * (r + 1))
}

// belowRank is every square on ranks strictly below r.
func belowRank(r int) board.Bitboard {
	if r <= 0 {
		return 0
	}
	return ^board.Bitboard(0) >> (8 * (8 - r))
}
