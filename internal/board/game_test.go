package board

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gameSnapshot struct {
	board    [64]Piece
	bitmaps  Bitmaps
	side     Color
	hash     uint64
	material int32
	castling []CastlingRights
	reps     map[uint64]int
	repTotal int
	ply      int
}

func snapshot(g *Game) gameSnapshot {
	return gameSnapshot{
		board:    g.board,
		bitmaps:  g.bitmaps,
		side:     g.side,
		hash:     g.hash,
		material: g.material,
		castling: append([]CastlingRights(nil), g.castling...),
		reps:     maps.Clone(g.reps),
		repTotal: g.repTotal,
		ply:      len(g.history),
	}
}

// walk visits every node to depth, checking the incremental state against a
// full recomputation and make/unmake symmetry at each one.
func walk(t *testing.T, g *Game, depth int) {
	t.Helper()
	require.NoError(t, g.CheckConsistency())
	if depth == 0 {
		return
	}
	for _, m := range g.LegalMoves() {
		before := snapshot(g)
		us := g.Side()
		g.Update(m)
		require.False(t, g.InCheck(us), "%s leaves own king in check", m)
		walk(t, g, depth-1)
		g.Backdate()
		require.Equal(t, before, snapshot(g), "unmake of %s", m)
	}
}

func TestIncrementalStateMatchesRecomputation(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1",
		"r1bq1r2/pp2npp1/7k/3pP1NP/1b4Q1/2N5/PP3PP1/R1B1K2R w - -",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			g, err := GameFromFEN(fen)
			require.NoError(t, err)
			walk(t, g, 2)
		})
	}
}

func TestStartPositionHasTwentyMoves(t *testing.T) {
	g := NewStartGame()
	assert.Len(t, g.LegalMoves(), 20)
	assert.Equal(t, White, g.Side())
	assert.Equal(t, int32(0), g.Material())
	assert.Equal(t, AllCastling, g.CastlingRights())
}

func TestMovesSortedByValue(t *testing.T) {
	g, err := GameFromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	moves := g.PseudoLegalMoves(nil)
	for i := 1; i < len(moves); i++ {
		assert.GreaterOrEqual(t, moves[i-1].Val, moves[i].Val)
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
		"8/k7/3p4/p2P1p2/P2P1P2/8/8/K7 w - - 12 40",
	}
	for _, fen := range fens {
		g, err := GameFromFEN(fen)
		require.NoError(t, err)
		assert.Equal(t, fen, g.FEN())
	}
}

func TestFENAfterMoves(t *testing.T) {
	g := NewStartGame()
	for _, s := range []string{"e2e4", "c7c5", "g1f3"} {
		m, err := g.ParseMove(s)
		require.NoError(t, err)
		g.Play(m)
	}
	assert.Equal(t, "rnbqkbnr/pp1ppppp/8/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2", g.FEN())
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQz -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5",
		// en passant square on the wrong side for the mover
		"4k3/8/8/8/8/8/3p4/4K3 w - d3 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 b - d6 0 1",
	}
	for _, fen := range bad {
		_, err := ParseFEN(fen)
		assert.ErrorIs(t, err, ErrInvalidFEN, fen)
	}
}

func TestNewGameValidation(t *testing.T) {
	_, err := GameFromFEN("8/8/8/8/8/8/8/K7 w - -")
	assert.ErrorIs(t, err, ErrMissingKing)

	_, err = GameFromFEN("kk6/8/8/8/8/8/8/K7 w - -")
	assert.ErrorIs(t, err, ErrMissingKing)

	_, err = GameFromFEN("k6P/8/8/8/8/8/8/K7 w - -")
	assert.ErrorIs(t, err, ErrInvalidFEN)
}

func TestCastlingRightsFollowKingAndRooks(t *testing.T) {
	g, err := GameFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	play := func(s string) {
		m, err := g.ParseMove(s)
		require.NoError(t, err)
		g.Play(m)
	}
	play("h1h8") // rook takes rook: white loses K, black loses k
	assert.Equal(t, WhiteQueenSideCastle|BlackQueenSideCastle, g.CastlingRights())
	play("e8d7")
	assert.Equal(t, WhiteQueenSideCastle, g.CastlingRights())
	play("e1c1")
	assert.Equal(t, NoCastling, g.CastlingRights())
	assert.Equal(t, WhiteRook, g.PieceAt(D1))
	assert.Equal(t, WhiteKing, g.PieceAt(C1))
	assert.Equal(t, NoPiece, g.PieceAt(A1))
	require.NoError(t, g.CheckConsistency())
}

func TestCastlingThroughCheckIsIllegal(t *testing.T) {
	// The bishop on c4 covers f1.
	g, err := GameFromFEN("4k3/8/8/8/2b5/8/8/4K2R w K - 0 1")
	require.NoError(t, err)
	for _, m := range g.LegalMoves() {
		assert.False(t, m.IsCastle(), "%s", m)
	}

	// Out of check.
	g, err = GameFromFEN("4k3/8/8/8/8/8/4r3/R3K3 w Q - 0 1")
	require.NoError(t, err)
	for _, m := range g.LegalMoves() {
		assert.False(t, m.IsCastle(), "%s", m)
	}
}

func TestCheckmateAndStalemateDetection(t *testing.T) {
	tests := []struct {
		fen     string
		inCheck bool
		anyMove bool
	}{
		{"R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false}, // back rank mate
		{"6Rk/8/8/8/8/8/8/K7 b - - 0 1", true, true},    // king takes the rook
		{"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, false}, // stalemate
	}
	for _, tc := range tests {
		g, err := GameFromFEN(tc.fen)
		require.NoError(t, err)
		assert.Equal(t, tc.inCheck, g.InCheck(g.Side()), tc.fen)
		assert.Equal(t, tc.anyMove, g.HasLegalMove(), tc.fen)
		assert.Equal(t, tc.anyMove, len(g.LegalMoves()) > 0, tc.fen)
	}
}

func TestRepetitionCountsAndClock(t *testing.T) {
	g := NewStartGame()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	assert.Equal(t, 1, g.RepCount())
	for round := 0; round < 2; round++ {
		for _, s := range shuffle {
			m, err := g.ParseMove(s)
			require.NoError(t, err)
			g.Play(m)
		}
	}
	assert.Equal(t, 3, g.RepCount())
	assert.Equal(t, 8, g.HalfMoveClock())

	m, err := g.ParseMove("e2e4")
	require.NoError(t, err)
	g.Play(m)
	assert.Equal(t, 1, g.RepCount())
	assert.Equal(t, 0, g.HalfMoveClock())
}

func TestHalfMoveClockCarriesFENValue(t *testing.T) {
	g, err := GameFromFEN("4k3/8/8/8/8/8/8/4K2R w - - 97 80")
	require.NoError(t, err)
	assert.Equal(t, 97, g.HalfMoveClock())
	m, err := g.ParseMove("h1h2")
	require.NoError(t, err)
	g.Update(m)
	assert.Equal(t, 98, g.HalfMoveClock())
	g.Backdate()
	assert.Equal(t, 97, g.HalfMoveClock())
}

func TestBackdatePastPlayPanics(t *testing.T) {
	g := NewStartGame()
	m, err := g.ParseMove("e2e4")
	require.NoError(t, err)
	g.Play(m)
	assert.Panics(t, g.Backdate)
}

func TestEnPassantFromFEN(t *testing.T) {
	g, err := GameFromFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	require.NoError(t, err)
	m, err := g.ParseMove("e5d6")
	require.NoError(t, err)
	assert.True(t, m.IsEnPassant())
	g.Update(m)
	assert.Equal(t, NoPiece, g.PieceAt(D5))
	assert.Equal(t, WhitePawn, g.PieceAt(D6))
	require.NoError(t, g.CheckConsistency())
	g.Backdate()
	assert.Equal(t, BlackPawn, g.PieceAt(D5))
}

func TestEnPassantNeedsOpponentPawn(t *testing.T) {
	// d6 behind a white pawn cannot be an en passant target for White.
	g, err := GameFromFEN("4k3/8/8/3PP3/8/8/8/4K3 w - d6 0 1")
	require.NoError(t, err)
	assert.True(t, g.LastMove().IsNull())
	for _, m := range g.LegalMoves() {
		assert.False(t, m.IsEnPassant(), "%s", m)
	}
}

func TestEnPassantExpires(t *testing.T) {
	g, err := GameFromFEN("4k3/3p4/8/4P3/8/8/8/4K2R b - - 0 1")
	require.NoError(t, err)
	for _, s := range []string{"d7d5", "h1h2", "e8f7"} {
		m, err := g.ParseMove(s)
		require.NoError(t, err)
		g.Play(m)
	}
	_, err = g.ParseMove("e5d6")
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestParseMove(t *testing.T) {
	g, err := GameFromFEN("4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	m, err := g.ParseMove("b7b8")
	require.NoError(t, err)
	assert.Equal(t, Queen, m.Promote, "bare promotion defaults to queen")

	m, err = g.ParseMove("b7b8n")
	require.NoError(t, err)
	assert.Equal(t, Knight, m.Promote)
	assert.Equal(t, "b7b8n", m.String())

	for _, s := range []string{"b7b6", "zz", "b7b8k", "e1e3"} {
		_, err = g.ParseMove(s)
		assert.ErrorIs(t, err, ErrIllegalMove, s)
	}
}

func TestBoardArt(t *testing.T) {
	s := NewStartGame().String()
	assert.Contains(t, s, "8  r n b q k b n r")
	assert.Contains(t, s, "1  R N B Q K B N R")
	assert.Contains(t, s, "Side to move: White")
}
