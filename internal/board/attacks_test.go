package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bb(squares ...Square) Bitboard {
	var b Bitboard
	for _, sq := range squares {
		b |= SquareBB(sq)
	}
	return b
}

func TestLeaperTables(t *testing.T) {
	assert.Equal(t, bb(B3, C2), KnightMoves(A1))
	assert.Equal(t, 8, KnightMoves(E4).PopCount())
	assert.Equal(t, bb(G8, H7, G7), KingMoves(H8))
	assert.Equal(t, bb(B2), PawnCaptures(A1, White))
	assert.Equal(t, bb(D5, F5), PawnCaptures(E4, White))
	assert.Equal(t, bb(D3, F3), PawnCaptures(E4, Black))
	assert.Equal(t, bb(E5), PawnPushes(E4, White))
	assert.Equal(t, Empty, PawnPushes(E8, White))
}

func TestRaysStopAtEdge(t *testing.T) {
	assert.Equal(t, 14, RookRays(A1).PopCount())
	assert.Equal(t, 14, RookRays(E4).PopCount())
	assert.Equal(t, 7, BishopRays(A1).PopCount())
	assert.Equal(t, 13, BishopRays(D4).PopCount())
	// No wrap from the h-file onto the a-file.
	assert.False(t, BishopRays(H4).Has(A6))
	assert.False(t, RookRays(H1).Has(A2))
}

func TestRayCut(t *testing.T) {
	assert.Equal(t, bb(A4, A5, A6, A7, A8), RayCut(A1, A3))
	assert.Equal(t, bb(F6, G7, H8), RayCut(C3, E5))
	assert.Equal(t, bb(A1), RayCut(D4, B2))
	assert.Equal(t, Empty, RayCut(A1, B3), "not aligned")
	assert.Equal(t, Empty, RayCut(A1, A8), "nothing beyond the edge")

	for origin := A1; origin <= H8; origin++ {
		for blocker := A1; blocker <= H8; blocker++ {
			cut := RayCut(origin, blocker)
			assert.False(t, cut.Has(blocker))
			assert.False(t, cut.Has(origin))
		}
	}
}

// walkAttacks is the step-by-step ray march the cut table replaces.
func walkAttacks(sq Square, occ Bitboard, dirs []direction) Bitboard {
	var out Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f, r) {
			s := NewSquare(f, r)
			out |= SquareBB(s)
			if occ.Has(s) {
				break
			}
			f += d.df
			r += d.dr
		}
	}
	return out
}

func TestSliderAttacksMatchRayMarch(t *testing.T) {
	occupancies := []Bitboard{
		Empty,
		Rank2 | Rank7,
		0x00FF00000000FF00 | bb(D4, E5, C6),
		0x5A3C_1E0F_F0E1_C3A5,
		^Empty,
	}
	for _, occ := range occupancies {
		for sq := A1; sq <= H8; sq++ {
			assert.Equal(t, walkAttacks(sq, occ, rookDirections[:]), RookAttacks(sq, occ), "rook %s", sq)
			assert.Equal(t, walkAttacks(sq, occ, bishopDirections[:]), BishopAttacks(sq, occ), "bishop %s", sq)
			assert.Equal(t, RookAttacks(sq, occ)|BishopAttacks(sq, occ), QueenAttacks(sq, occ), "queen %s", sq)
		}
	}
}

func TestZobristKeysDistinct(t *testing.T) {
	seen := make(map[uint64]bool)
	for p := WhitePawn; p < NoPiece; p++ {
		for sq := A1; sq <= H8; sq++ {
			k := ZobristPiece(p, sq)
			assert.NotZero(t, k)
			assert.False(t, seen[k])
			seen[k] = true
		}
	}
	assert.False(t, seen[ZobristSide()])
	assert.Zero(t, ZobristPiece(NoPiece, E4))
}

func TestHashIgnoresMoveOrder(t *testing.T) {
	a, b := NewStartGame(), NewStartGame()
	for _, s := range []string{"g1f3", "g8f6", "b1c3"} {
		m, _ := a.ParseMove(s)
		a.Play(m)
	}
	for _, s := range []string{"b1c3", "g8f6", "g1f3"} {
		m, _ := b.ParseMove(s)
		b.Play(m)
	}
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.ComputeHash(), a.Hash())
}
