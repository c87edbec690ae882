package book

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
)

const testBook = `
- fen: startpos
  moves: [e2e4, d4, Nf3]
  weights: [10, 5, 0]
- line: [e4, c5, Nf3, d6]
- fen: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
  moves: [e7e5]
`

func play(t *testing.T, g *board.Game, text string) {
	t.Helper()
	m, err := g.ParseMove(text)
	require.NoError(t, err)
	g.Play(m)
}

func TestLoadAndImport(t *testing.T) {
	entries, err := LoadYAML(strings.NewReader(testBook))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	b := NewMemory()
	n, err := Import(b, entries)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	start := board.NewStartGame()
	moves, err := b.Lookup(start.Hash())
	require.NoError(t, err)
	// e2e4 from the line merges into the existing entry
	assert.Equal(t, []Move{
		{From: board.E2, To: board.E4, Weight: 10},
		{From: board.D2, To: board.D4, Weight: 5},
		{From: board.G1, To: board.F3, Weight: 0},
	}, moves)

	play(t, start, "e2e4")
	reply, err := b.Lookup(start.Hash())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c7c5", "e7e5"}, []string{reply[0].String(), reply[1].String()})
	assert.Equal(t, 4, b.Size())
}

func TestImportRejectsIllegalMoves(t *testing.T) {
	_, err := Import(NewMemory(), []Entry{{Moves: []string{"e2e5"}}})
	assert.ErrorIs(t, err, board.ErrIllegalMove)

	_, err = Import(NewMemory(), []Entry{{FEN: "not a fen", Moves: []string{"e4"}}})
	assert.ErrorIs(t, err, board.ErrInvalidFEN)

	_, err = Import(NewMemory(), []Entry{{Moves: []string{"e4", "d4"}, Weights: []uint16{1}}})
	assert.Error(t, err)
}

func TestChooseWeighted(t *testing.T) {
	b := NewMemory()
	g := board.NewStartGame()
	require.NoError(t, b.Add(g.Hash(), []Move{
		{From: board.E2, To: board.E4, Weight: 1},
		{From: board.D2, To: board.D4, Weight: 0},
	}))

	c := NewChooser(b, "fixed")
	for range 20 {
		m, ok, err := c.Choose(g)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "e2e4", m.String())
	}
}

func TestChooseSkipsIllegal(t *testing.T) {
	b := NewMemory()
	g := board.NewStartGame()
	require.NoError(t, b.Add(g.Hash(), []Move{{From: board.E2, To: board.E5, Weight: 9}}))

	_, ok, err := NewChooser(b, "").Choose(g)
	require.NoError(t, err)
	assert.False(t, ok)

	play(t, g, "g1f3")
	_, ok, err = NewChooser(b, "").Choose(g)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChooseSeedIsReproducible(t *testing.T) {
	b := NewMemory()
	g := board.NewStartGame()
	require.NoError(t, b.Add(g.Hash(), []Move{
		{From: board.E2, To: board.E4, Weight: 3},
		{From: board.D2, To: board.D4, Weight: 3},
		{From: board.C2, To: board.C4, Weight: 3},
	}))

	pick := func() []string {
		c := NewChooser(b, "seed")
		var out []string
		for range 10 {
			m, _, err := c.Choose(g)
			require.NoError(t, err)
			out = append(out, m.String())
		}
		return out
	}
	assert.Equal(t, pick(), pick())
}

func TestPersistentBook(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	b := NewPersistent(store)
	g := board.NewStartGame()

	moves, err := b.Lookup(g.Hash())
	require.NoError(t, err)
	assert.Empty(t, moves)

	n, err := Import(b, []Entry{{Line: []string{"d4", "Nf6", "c4"}}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	m, ok, err := NewChooser(b, "").Choose(g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "d2d4", m.String())
}
