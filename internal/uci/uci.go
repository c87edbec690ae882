// Package uci speaks a minimal subset of the Universal Chess Interface.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/engine"
)

const (
	engineName   = "Mateus"
	engineAuthor = "the Mateus authors"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	defaults engine.Limits

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serialises writes to out

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a protocol handler. defaults apply to "go" commands that
// give no limit of their own.
func New(eng *engine.Engine, defaults engine.Limits, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		defaults: defaults,
		in:       in,
		out:      out,
	}
}

func (u *UCI) println(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or end of input. At end of input a
// running search is allowed to finish.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.wait()
			u.engine.NewGame()
			u.engine.Clear()
		case "position":
			u.wait()
			u.handlePosition(args)
		case "go":
			u.wait()
			u.handleGo(args)
		case "stop":
			u.stop()
		case "quit":
			u.stop()
			return nil
		case "setoption":
			u.println("info string option not supported: %s", strings.Join(args, " "))
		// Debug commands
		case "d":
			u.wait()
			u.println("%s\nFen: %s", u.engine.Game(), u.engine.Game().FEN())
		case "perft":
			u.wait()
			u.handlePerft(args)
		default:
			u.println("info string unknown command: %s", cmd)
		}
	}
	u.wait()
	return scanner.Err()
}

func (u *UCI) handleUCI() {
	u.println("id name %s", engineName)
	u.println("id author %s", engineAuthor)
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.engine.NewGame()
	case "fen":
		fen := strings.Join(args[1:moveStart], " ")
		if err := u.engine.SetFEN(fen); err != nil {
			u.println("info string invalid fen: %v", err)
			return
		}
	default:
		u.println("info string invalid position command")
		return
	}

	if moveStart >= len(args) {
		return
	}
	for _, text := range args[moveStart+1:] {
		if _, err := u.engine.PlayText(text); err != nil {
			u.println("info string invalid move: %v", err)
			return
		}
	}
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth    int
	Nodes    uint64
	MoveTime time.Duration
	Infinite bool
	Clock    engine.ClockLimits
}

func (o GoOptions) hasLimit() bool {
	return o.Infinite || o.Depth > 0 || o.Nodes > 0 || o.MoveTime > 0 ||
		o.Clock.Time[board.White] > 0 || o.Clock.Time[board.Black] > 0
}

// ParseGoOptions parses "go" command arguments. Unknown words are skipped.
func ParseGoOptions(args []string) GoOptions {
	var opts GoOptions
	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(&i)
		case "nodes":
			opts.Nodes = uint64(max(next(&i), 0))
		case "movetime":
			opts.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.Clock.Time[board.White] = ms(&i)
		case "btime":
			opts.Clock.Time[board.Black] = ms(&i)
		case "winc":
			opts.Clock.Inc[board.White] = ms(&i)
		case "binc":
			opts.Clock.Inc[board.Black] = ms(&i)
		case "movestogo":
			opts.Clock.MovesToGo = next(&i)
		}
	}
	return opts
}

// limits converts GoOptions to engine.Limits for the side to move.
func (u *UCI) limits(opts GoOptions) engine.Limits {
	if !opts.hasLimit() {
		return u.defaults
	}
	if opts.Infinite {
		return engine.Limits{}
	}
	limits := engine.Limits{Depth: opts.Depth, Nodes: opts.Nodes, MoveTime: opts.MoveTime}
	if limits.MoveTime == 0 {
		g := u.engine.Game()
		limits.MoveTime = opts.Clock.MoveTime(g.Side(), g.Ply())
	}
	return limits
}

// handleGo starts a search in the background. It ends with a "bestmove"
// line whether it completes, is stopped or finds no legal move.
func (u *UCI) handleGo(args []string) {
	limits := u.limits(ParseGoOptions(args))
	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searchDone = make(chan struct{})

	u.engine.OnInfo = func(info engine.Info) {
		ms := max(info.Time.Milliseconds(), 1)
		u.println("info depth %d score %s nodes %d nps %d time %d hashfull %d pv %s",
			info.Depth, engine.UCIScore(info.Score), info.Nodes,
			info.Nodes*1000/uint64(ms), ms, u.engine.HashFull(), info.Best)
	}

	go func() {
		defer close(u.searchDone)
		defer cancel()

		r, err := u.engine.Search(ctx, limits)
		switch {
		case errors.Is(err, engine.ErrNoLegalMoves):
			u.println("bestmove 0000")
		case err != nil:
			log.Error().Err(err).Msg("search-failed")
			u.println("info string search failed: %v", err)
			u.println("bestmove 0000")
		default:
			if r.FromBook {
				u.println("info string book move")
			}
			u.println("bestmove %s", r.Move)
		}
	}()
}

// wait blocks until a running search has finished.
func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
		u.cancel = nil
	}
}

// stop cancels a running search and waits for its bestmove.
func (u *UCI) stop() {
	if u.cancel != nil {
		u.cancel()
		u.engine.Stop()
	}
	u.wait()
}

func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(depth)
	elapsed := time.Since(start)

	u.println("Nodes: %d", nodes)
	u.println("Time: %v", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		u.println("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
