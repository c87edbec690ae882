// Package shell is an interactive front end for playing against the engine.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/engine"
)

// ErrQuit is returned by Execute for "quit" and "exit".
var ErrQuit = errors.New("quit")

var commandNames = []string{
	"help", "new", "fen", "move", "go", "hint", "eval", "board",
	"moves", "perft", "playout", "auto", "quit",
}

// Controller holds the shell state.
type Controller struct {
	engine *engine.Engine
	limits engine.Limits
	out    io.Writer
	auto   bool // engine replies to every move the user makes
}

// New creates a controller writing to out.
func New(eng *engine.Engine, limits engine.Limits, out io.Writer) *Controller {
	return &Controller{engine: eng, limits: limits, out: out, auto: true}
}

func (c *Controller) show(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "new - start a new game\n")
	io.WriteString(w, "fen \"<fen>\" - set up a position\n")
	io.WriteString(w, "<move> or move <move>... - play moves (e2e4 or SAN); the engine replies when auto is on\n")
	io.WriteString(w, "go [depth] - let the engine move\n")
	io.WriteString(w, "hint [depth] - show the engine's choice without playing it\n")
	io.WriteString(w, "eval - static evaluation for the side to move\n")
	io.WriteString(w, "board - show the board\n")
	io.WriteString(w, "moves - list legal moves\n")
	io.WriteString(w, "perft <depth> - count move-tree leaves\n")
	io.WriteString(w, "playout [plies] - let the engine play both sides\n")
	io.WriteString(w, "auto on|off - toggle engine replies\n")
	io.WriteString(w, "quit - leave\n")
}

func (c *Controller) depthLimits(args []string) (engine.Limits, error) {
	limits := c.limits
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil {
			return limits, fmt.Errorf("bad depth %q", args[0])
		}
		limits = engine.Limits{Depth: d}
	}
	return limits, nil
}

// Execute runs one command line.
func (c *Controller) Execute(ctx context.Context, line string) error {
	fields, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		usage(c.out)
	case "quit", "exit", "bye":
		return ErrQuit
	case "new":
		c.engine.NewGame()
		c.show("%s", c.engine.Game())
	case "fen":
		if err := c.engine.SetFEN(strings.Join(args, " ")); err != nil {
			return err
		}
		c.show("%s", c.engine.Game())
	case "board", "d":
		c.show("%s", c.engine.Game())
	case "moves":
		g := c.engine.Game()
		c.show("%s", strings.Join(lo.Map(g.LegalMoves(), func(m board.Move, _ int) string {
			return g.SAN(m)
		}), " "))
	case "eval":
		c.show("%s", engine.ScoreToString(c.engine.Evaluate()))
	case "perft":
		depth := 1
		if len(args) > 0 {
			if depth, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("bad depth %q", args[0])
			}
		}
		c.show("%d", c.engine.Perft(depth))
	case "go":
		limits, err := c.depthLimits(args)
		if err != nil {
			return err
		}
		return c.reply(ctx, limits)
	case "hint":
		limits, err := c.depthLimits(args)
		if err != nil {
			return err
		}
		r, err := c.engine.Search(ctx, limits)
		if err != nil {
			return err
		}
		c.show("hint: %s (%s, depth %d)", c.engine.Game().SAN(r.Move), engine.ScoreToString(r.Score), r.Depth)
	case "playout":
		plies := 0
		if len(args) > 0 {
			if plies, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("bad ply count %q", args[0])
			}
		}
		moves, outcome, err := c.engine.PlayOut(ctx, c.limits, plies)
		c.show("%d plies played: %s", len(moves), outcome)
		if err != nil {
			return err
		}
		c.show("%s", c.engine.Game())
	case "auto":
		c.auto = len(args) == 0 || args[0] == "on"
		c.show("auto %v", c.auto)
	case "move", "m":
		return c.playMoves(ctx, args)
	default:
		return c.playMoves(ctx, fields)
	}
	return nil
}

func (c *Controller) playMoves(ctx context.Context, moves []string) error {
	for _, text := range moves {
		g := c.engine.Game()
		m, err := g.ParseAny(text)
		if err != nil {
			return err
		}
		san := g.SAN(m)
		c.engine.Play(m)
		c.show("you: %s", san)
	}
	if o := c.engine.Outcome(); o != engine.Ongoing {
		c.show("game over: %s", o)
		return nil
	}
	if c.auto && len(moves) > 0 {
		return c.reply(ctx, c.limits)
	}
	return nil
}

// reply lets the engine play one move.
func (c *Controller) reply(ctx context.Context, limits engine.Limits) error {
	r, err := c.engine.Search(ctx, limits)
	if err != nil {
		return err
	}
	san := c.engine.Game().SAN(r.Move)
	c.engine.Play(r.Move)
	source := fmt.Sprintf("%s, depth %d", engine.ScoreToString(r.Score), r.Depth)
	if r.FromBook {
		source = "book"
	}
	c.show("engine: %s (%s)", san, source)
	if o := c.engine.Outcome(); o != engine.Ongoing {
		c.show("game over: %s", o)
	}
	return nil
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

type completer struct{}

// Do implements the readline.AutoCompleter interface for command names.
func (completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	if len(fields) > 1 || strings.HasSuffix(text, " ") {
		return nil, 0
	}
	prefix := ""
	if len(fields) == 1 {
		prefix = fields[0]
	}
	return lo.FilterMap(commandNames, func(name string, _ int) ([]rune, bool) {
		if !strings.HasPrefix(name, prefix) {
			return nil, false
		}
		return []rune(name[len(prefix):] + " "), true
	}), len(prefix)
}

// Loop reads commands with line editing until quit or end of input.
func (c *Controller) Loop(ctx context.Context) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmateus>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "mateus-history.tmp"),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    completer{},

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	c.out = l.Stdout()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		}

		err = c.Execute(ctx, strings.TrimSpace(line))
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil:
			log.Debug().Err(err).Str("line", line).Msg("command-failed")
			c.show("Error: %v", err)
		}
	}
}
