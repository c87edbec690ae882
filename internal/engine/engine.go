package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/book"
)

// Options configure an Engine.
type Options struct {
	HashMB        int  // transposition table size
	RecaptureOnly bool // narrow quiescence to recaptures after a capture
	Verbose       bool // log iterations at info level
}

// DefaultOptions are used by front ends without a config file.
var DefaultOptions = Options{HashMB: 16, RecaptureOnly: true}

// Outcome is the state of the game at the current position.
type Outcome int

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
	Repetition
	FiftyMoves
)

func (o Outcome) String() string {
	switch o {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Repetition:
		return "threefold repetition"
	case FiftyMoves:
		return "fifty-move rule"
	}
	return "ongoing"
}

// Result is the answer to one Search call.
type Result struct {
	Move     board.Move
	Score    int // side to move's view; 0 for book moves
	Depth    int // last completed iteration, 0 if none completed
	Nodes    uint64
	Scored   []ScoredMove // all root moves, best first
	FromBook bool
}

// Engine owns a game, its transposition table and a searcher. It is not
// safe for concurrent use, except for Stop.
type Engine struct {
	game     *board.Game
	tt       *TranspositionTable
	searcher *Searcher
	book     *book.Chooser

	// OnInfo is called after every completed iteration.
	OnInfo func(Info)
}

// New creates an engine at the initial position.
func New(opts Options) *Engine {
	g := board.NewStartGame()
	tt := NewTranspositionTable(opts.HashMB)
	s := NewSearcher(g, tt)
	s.SetRecaptureOnly(opts.RecaptureOnly)
	s.SetVerbose(opts.Verbose)
	return &Engine{game: g, tt: tt, searcher: s}
}

// Game returns the engine's game. Callers must not mutate it while a
// search is running.
func (e *Engine) Game() *board.Game {
	return e.game
}

// SetBook installs an opening book consulted before searching. nil removes it.
func (e *Engine) SetBook(c *book.Chooser) {
	e.book = c
}

func (e *Engine) setGame(g *board.Game) {
	e.game = g
	e.searcher.SetGame(g)
	e.tt.Clear()
}

// NewGame resets to the initial position.
func (e *Engine) NewGame() {
	e.setGame(board.NewStartGame())
}

// SetFEN sets up the position described by fen.
func (e *Engine) SetFEN(fen string) error {
	g, err := board.GameFromFEN(fen)
	if err != nil {
		return err
	}
	e.setGame(g)
	return nil
}

// Play commits m. After an irreversible move no earlier position can recur,
// so the table is cleared except for the new root.
func (e *Engine) Play(m board.Move) {
	irreversible := e.game.IsIrreversible(m)
	e.game.Play(m)
	if irreversible {
		e.tt.ClearExcept(e.game.Hash())
	}
}

// PlayText parses m in long algebraic or SAN and plays it.
func (e *Engine) PlayText(text string) (board.Move, error) {
	m, err := e.game.ParseAny(text)
	if err != nil {
		return board.NoMove, err
	}
	e.Play(m)
	return m, nil
}

// LegalMoves returns the legal moves of the current position.
func (e *Engine) LegalMoves() []board.Move {
	return e.game.LegalMoves()
}

// Outcome classifies the current position.
func (e *Engine) Outcome() Outcome {
	g := e.game
	switch {
	case !g.HasLegalMove() && g.InCheck(g.Side()):
		return Checkmate
	case !g.HasLegalMove():
		return Stalemate
	case g.RepCount() >= 3:
		return Repetition
	case g.HalfMoveClock() >= 100:
		return FiftyMoves
	}
	return Ongoing
}

// Search picks a move for the side to move: from the book when it has a
// legal one, otherwise by iterative deepening within limits.
func (e *Engine) Search(ctx context.Context, limits Limits) (Result, error) {
	moves := e.game.LegalMoves()
	if len(moves) == 0 {
		return Result{}, ErrNoLegalMoves
	}

	if e.book != nil {
		m, ok, err := e.book.Choose(e.game)
		if err != nil {
			log.Warn().Err(err).Msg("book-lookup-failed")
		} else if ok {
			return Result{Move: m, FromBook: true}, nil
		}
	}

	depth := 0
	e.searcher.OnInfo = func(info Info) {
		depth = info.Depth
		if e.OnInfo != nil {
			e.OnInfo(info)
		}
	}
	scored, err := e.searcher.ScoreMoves(ctx, moves, limits)
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", e.game.FEN(), err)
	}
	return Result{
		Move:   scored[0].Move,
		Score:  scored[0].Score,
		Depth:  depth,
		Nodes:  e.searcher.Nodes(),
		Scored: scored,
	}, nil
}

// BestMove is Search reduced to its move.
func (e *Engine) BestMove(ctx context.Context, limits Limits) (board.Move, error) {
	r, err := e.Search(ctx, limits)
	return r.Move, err
}

// Stop aborts a running search. Safe to call from another goroutine.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear empties the transposition and pawn tables.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.pawns.Clear()
}

// HashFull returns the permille of the transposition table in use.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Perft counts leaf nodes of the legal move tree from the current position.
func (e *Engine) Perft(depth int) uint64 {
	return e.game.Perft(depth)
}

// Evaluate returns the static evaluation for the side to move.
func (e *Engine) Evaluate() int {
	return Evaluate(e.game, e.game.Side(), e.searcher.pawns)
}

// IsMate reports whether score announces a forced mate.
func IsMate(score int) bool {
	return abs(score) > Infinite-MaxPly
}

// MateIn converts a mate score into full moves: positive when the side to
// move mates, negative when it is mated.
func MateIn(score int) int {
	if score > 0 {
		return (Infinite - score + 1) / 2
	}
	return -(Infinite + score + 1) / 2
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if IsMate(score) {
		if n := MateIn(score); n > 0 {
			return fmt.Sprintf("Mate in %d", n)
		}
		return fmt.Sprintf("Mated in %d", -MateIn(score))
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}

// UCIScore renders a score as the "score" field of a UCI info line.
func UCIScore(score int) string {
	if IsMate(score) {
		return fmt.Sprintf("mate %d", MateIn(score))
	}
	return fmt.Sprintf("cp %d", score)
}
