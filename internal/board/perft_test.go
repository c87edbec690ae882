package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerft(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		counts []uint64 // depth 1, 2, ...
	}{
		{"startpos", StartFEN, []uint64{20, 400, 8902, 197281}},
		// Castling through and out of check, promotions, en passant.
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []uint64{48, 2039, 97862}},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []uint64{14, 191, 2812, 43238}},
		// e4xd3 would expose the king on a4 to the rook on h4.
		{"ep-pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []uint64{6, 94}},
		{"promotions", "n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1", []uint64{24, 496, 9483}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := GameFromFEN(tc.fen)
			require.NoError(t, err)
			before := snapshot(g)
			for i, want := range tc.counts {
				assert.Equal(t, want, g.Perft(i+1), "perft(%d)", i+1)
			}
			assert.Equal(t, before, snapshot(g), "perft must leave the game untouched")
		})
	}
}

func TestEnPassantPinnedIsIllegal(t *testing.T) {
	g, err := GameFromFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	require.NoError(t, err)

	var ep []Move
	for _, m := range g.PseudoLegalMoves(nil) {
		if m.IsEnPassant() {
			ep = append(ep, m)
		}
	}
	require.Len(t, ep, 1, "pseudo-legal generation should offer e4xd3")
	assert.False(t, g.IsLegal(ep[0]))
	for _, m := range g.LegalMoves() {
		assert.False(t, m.IsEnPassant(), "%s should be filtered", m)
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	g := NewStartGame()
	div := g.Divide(3)
	assert.Len(t, div, 20)
	var sum uint64
	for _, n := range div {
		sum += n
	}
	assert.Equal(t, uint64(8902), sum)
	assert.Equal(t, uint64(600), div["e2e4"])
	assert.Equal(t, uint64(380), div["a2a3"])
}
