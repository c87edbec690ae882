package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/engine"
)

func run(t *testing.T, script string) []string {
	t.Helper()
	var out bytes.Buffer
	u := New(engine.New(engine.DefaultOptions), engine.Limits{Depth: 3}, strings.NewReader(script), &out)
	if err := u.Run(); err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func bestMove(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if m, ok := strings.CutPrefix(lines[i], "bestmove "); ok {
			return m
		}
	}
	return ""
}

func TestHandshake(t *testing.T) {
	is := is.New(t)
	lines := run(t, "uci\nisready\nquit\n")
	is.Equal(lines[len(lines)-2], "uciok")
	is.Equal(lines[len(lines)-1], "readyok")
}

func TestPositionAndGo(t *testing.T) {
	is := is.New(t)
	lines := run(t, "position startpos moves e2e4 e7e5 g1f3\ngo depth 3\n")

	best := bestMove(lines)
	is.True(best != "")

	g := board.NewStartGame()
	for _, m := range []string{"e2e4", "e7e5", "g1f3"} {
		mv, err := g.ParseMove(m)
		is.NoErr(err)
		g.Play(mv)
	}
	_, err := g.ParseMove(best)
	is.NoErr(err) // bestmove is legal for Black

	var infos int
	for _, l := range lines {
		if strings.HasPrefix(l, "info depth") {
			infos++
		}
	}
	is.True(infos >= 1)
}

func TestGoFindsMate(t *testing.T) {
	is := is.New(t)
	lines := run(t, "position fen k7/8/1K6/8/8/8/8/7R w - - 0 1\ngo depth 4\n")
	is.Equal(bestMove(lines), "h1h8")

	var sawMate bool
	for _, l := range lines {
		sawMate = sawMate || strings.Contains(l, "score mate 1")
	}
	is.True(sawMate)
}

func TestNoLegalMoves(t *testing.T) {
	is := is.New(t)
	lines := run(t, "position fen k7/8/1Q6/8/8/8/8/K7 b - - 0 1\ngo depth 2\n")
	is.Equal(bestMove(lines), "0000")
}

func TestStop(t *testing.T) {
	is := is.New(t)
	start := time.Now()
	lines := run(t, "position startpos\ngo infinite\nstop\n")
	is.True(bestMove(lines) != "")
	is.True(time.Since(start) < 10*time.Second)
}

func TestBadInput(t *testing.T) {
	is := is.New(t)
	lines := run(t, "position fen nonsense\nposition startpos moves e2e5\nfoo\n")
	is.True(strings.HasPrefix(lines[0], "info string invalid fen"))
	is.True(strings.HasPrefix(lines[1], "info string invalid move"))
	is.Equal(lines[2], "info string unknown command: foo")
}

func TestPerftAndDisplay(t *testing.T) {
	is := is.New(t)
	lines := run(t, "perft 3\nd\n")
	is.Equal(lines[0], "Nodes: 8902")
	is.True(strings.Contains(strings.Join(lines, "\n"), "Fen: "+board.StartFEN))
}

func TestParseGoOptions(t *testing.T) {
	is := is.New(t)
	o := ParseGoOptions(strings.Fields("wtime 60000 btime 30000 winc 1000 movestogo 20 depth 7"))
	is.Equal(o.Depth, 7)
	is.Equal(o.Clock.Time[board.White], time.Minute)
	is.Equal(o.Clock.Time[board.Black], 30*time.Second)
	is.Equal(o.Clock.Inc[board.White], time.Second)
	is.Equal(o.Clock.MovesToGo, 20)
	is.True(o.hasLimit())

	is.True(!ParseGoOptions(nil).hasLimit())
	is.True(ParseGoOptions([]string{"infinite"}).Infinite)
	is.Equal(ParseGoOptions([]string{"nodes"}).Nodes, uint64(0))
}
