package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// Search constants
const (
	Infinite = 32000
	MaxPly   = 128
)

// abortCheckInterval is how many nodes pass between deadline and
// cancellation checks. Must be a power of two.
const abortCheckInterval = 1024

var (
	ErrNoLegalMoves = errors.New("no legal moves")
	ErrInvariant    = errors.New("search invariant violated")
)

// ScoredMove is a root move with the score of its last completed search.
type ScoredMove struct {
	Move  board.Move
	Score int
}

// Info describes one completed iteration.
type Info struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Best  board.Move
}

// Searcher runs the tree search over one Game it mutates in place. The game
// and the transposition table are owned by the Searcher for the duration of
// a search; every Update is matched by a Backdate on all paths, including
// aborts.
type Searcher struct {
	game  *board.Game
	tt    *TranspositionTable
	pawns *PawnTable

	recaptureOnly bool
	verbose       bool

	buf   [MaxPly + 1][]board.Move
	nodes uint64

	ctx      context.Context
	deadline deadline
	stopped  bool
	stopFlag atomic.Bool

	OnInfo func(Info)
}

// NewSearcher creates a searcher over g.
func NewSearcher(g *board.Game, tt *TranspositionTable) *Searcher {
	s := &Searcher{
		game:          g,
		tt:            tt,
		pawns:         NewPawnTable(1),
		recaptureOnly: true,
	}
	for i := range s.buf {
		s.buf[i] = make([]board.Move, 0, 128)
	}
	return s
}

// SetGame points the searcher at another game.
func (s *Searcher) SetGame(g *board.Game) {
	s.game = g
}

// SetRecaptureOnly narrows quiescence to recaptures on the last destination
// once a capture has been made.
func (s *Searcher) SetRecaptureOnly(on bool) {
	s.recaptureOnly = on
}

// SetVerbose raises iteration logging from debug to info.
func (s *Searcher) SetVerbose(on bool) {
	s.verbose = on
}

// Stop makes a running search return at its next abort check. Safe to call
// from another goroutine.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

func (s *Searcher) begin(ctx context.Context, limits Limits) {
	s.ctx = ctx
	s.deadline = newDeadline(limits.MoveTime)
	s.nodes = 0
	s.stopped = false
	s.stopFlag.Store(false)
}

func (s *Searcher) checkAbort() {
	if s.stopFlag.Load() || s.ctx.Err() != nil || s.deadline.passed() {
		s.stopped = true
	}
}

// visit counts a node and polls the abort conditions periodically.
func (s *Searcher) visit() bool {
	s.nodes++
	if s.nodes&(abortCheckInterval-1) == 0 {
		s.checkAbort()
	}
	return !s.stopped
}

func (s *Searcher) evaluate() int {
	return Evaluate(s.game, s.game.Side(), s.pawns)
}

// quiescentAfter reports whether m left the position quiet: it did not when
// m brought a pawn one step from promotion. Quiescence passes the mover's
// previous move so the pawn's owner gets to promote it.
func (s *Searcher) quiescentAfter(m board.Move) bool {
	pc := s.game.PieceAt(m.To)
	return pc.Type() != board.Pawn || m.To.RelativeRank(pc.Color()) != 6
}

// tryMove makes m if it is legal, reporting whether it did.
func (s *Searcher) tryMove(m board.Move) bool {
	g := s.game
	us := g.Side()
	if m.IsCastle() && !g.IsLegal(m) {
		return false
	}
	g.Update(m)
	if g.InCheck(us) {
		g.Backdate()
		return false
	}
	return true
}

// pvs is a negamax principal variation search. Scores are from the side to
// move's point of view.
func (s *Searcher) pvs(depth, ply, alpha, beta int) int {
	if !s.visit() {
		return 0
	}
	g := s.game

	if g.RepCount() >= 3 || g.HalfMoveClock() >= 100 {
		return 0
	}
	if ply >= MaxPly {
		return s.evaluate()
	}

	origAlpha, origBeta := alpha, beta
	hash := g.Hash()
	ttMove := board.NoMove
	if e, ok := s.tt.Probe(hash); ok {
		ttMove = e.Move
		if int(e.Depth) >= depth {
			score := scoreFromTT(int(e.Score), ply)
			switch e.Bound {
			case BoundExact:
				return score
			case BoundLower:
				alpha = max(alpha, score)
			case BoundUpper:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}

	us := g.Side()
	inCheck := g.InCheck(us)
	// Check extension: a node in check does not consume depth.
	childDepth := depth
	if !inCheck {
		if depth <= 0 {
			return s.quiescence(ply, alpha, beta, g.LastMove().To, s.quiescentAfter(g.RecentMove(1)), false)
		}
		childDepth = depth - 1
	}

	moves := g.PseudoLegalMoves(s.buf[ply][:0])
	s.buf[ply] = moves
	if !ttMove.IsNull() {
		// A stale table move is simply not found here and ignored.
		if i := slices.IndexFunc(moves, func(m board.Move) bool {
			return m.Same(ttMove) && m.Promote == ttMove.Promote
		}); i > 0 {
			m := moves[i]
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
		}
	}

	best := -Infinite
	bestMove := board.NoMove
	legal := 0
	for _, m := range moves {
		if !s.tryMove(m) {
			continue
		}
		legal++
		var score int
		if legal == 1 {
			score = -s.pvs(childDepth, ply+1, -beta, -alpha)
		} else {
			score = -s.pvs(childDepth, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta && depth > 2 {
				score = -s.pvs(childDepth, ply+1, -beta, -alpha)
			}
		}
		g.Backdate()
		if s.stopped {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
			alpha = max(alpha, score)
		}
		if best >= beta {
			break
		}
	}

	if legal == 0 {
		if inCheck {
			return -Infinite + ply
		}
		return 0
	}

	bound := BoundExact
	switch {
	case best <= origAlpha:
		bound = BoundUpper
	case best >= origBeta:
		bound = BoundLower
	}
	s.tt.Store(hash, depth, scoreToTT(best, ply), bound, bestMove)
	return best
}

// quiescence searches captures until the position is quiet. Once a capture
// has been made and recapture is set, only moves landing on lastTo are
// tried. Quiet promotions are searched when quiescent is false, that is
// when the side to move pushed a pawn to its seventh rank on its previous
// move.
func (s *Searcher) quiescence(ply, alpha, beta int, lastTo board.Square, quiescent, recapture bool) int {
	if !s.visit() {
		return 0
	}
	g := s.game

	standPat := s.evaluate()
	if standPat >= beta || ply >= MaxPly {
		return standPat
	}
	alpha = max(alpha, standPat)
	best := standPat

	moves := g.Captures(s.buf[ply][:0])
	s.buf[ply] = moves
	for _, m := range moves {
		if recapture && m.To != lastTo {
			continue
		}
		capture := g.IsCapture(m)
		if !capture && quiescent {
			continue
		}
		if !s.tryMove(m) {
			continue
		}
		score := -s.quiescence(ply+1, -beta, -alpha, m.To, s.quiescentAfter(g.RecentMove(1)), s.recaptureOnly && capture)
		g.Backdate()
		if s.stopped {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}

// ScoreMoves ranks the given root moves by iterative deepening from depth 2.
// It stops when the soft node budget is spent, when the best line is a mate
// inside the horizon, at Limits.Depth, or when the context or move time
// runs out; an interrupted iteration is discarded and the last completed
// ranking returned.
func (s *Searcher) ScoreMoves(ctx context.Context, moves []board.Move, limits Limits) ([]ScoredMove, error) {
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	g := s.game
	if g.KingSquare(board.White) == board.NoSquare || g.KingSquare(board.Black) == board.NoSquare {
		return nil, fmt.Errorf("%w: missing king", ErrInvariant)
	}
	rootHash, rootPly := g.Hash(), g.Ply()

	s.begin(ctx, limits)
	current := make([]ScoredMove, len(moves))
	for i, m := range moves {
		current[i] = ScoredMove{Move: m}
	}
	completed := slices.Clone(current)

	level := zerolog.DebugLevel
	if s.verbose {
		level = zerolog.InfoLevel
	}

	for depth := 2; depth <= limits.maxDepth(); depth++ {
		log.WithLevel(level).Int("plies", depth).Msg("deepening-iteratively")

		alpha := -Infinite
		for i := range current {
			m := current[i].Move
			if !s.tryMove(m) {
				return nil, fmt.Errorf("%w: root move %s is not legal", ErrInvariant, m)
			}
			var score int
			if i == 0 {
				score = -s.pvs(depth-1, 1, -Infinite, -alpha)
			} else {
				score = -s.pvs(depth-1, 1, -alpha-1, -alpha)
				if score > alpha && !s.stopped {
					score = -s.pvs(depth-1, 1, -Infinite, -alpha)
				}
			}
			g.Backdate()
			if s.stopped {
				break
			}
			current[i].Score = score
			alpha = max(alpha, score)
		}

		if g.Hash() != rootHash || g.Ply() != rootPly {
			return nil, fmt.Errorf("%w: game not restored after depth %d", ErrInvariant, depth)
		}
		if s.stopped {
			log.WithLevel(level).Int("plies", depth).Uint64("nodes", s.nodes).Msg("iteration-aborted")
			break
		}

		slices.SortStableFunc(current, func(a, b ScoredMove) int {
			return cmp.Compare(b.Score, a.Score)
		})
		copy(completed, current)

		best := completed[0]
		s.tt.Store(rootHash, depth, scoreToTT(best.Score, 0), BoundExact, best.Move)
		log.WithLevel(level).
			Int("plies", depth).
			Int("score", best.Score).
			Str("best", best.Move.String()).
			Uint64("nodes", s.nodes).
			Float64("tt-hit-rate", s.tt.HitRate()).
			Msg("best-val")
		if s.OnInfo != nil {
			s.OnInfo(Info{
				Depth: depth,
				Score: best.Score,
				Nodes: s.nodes,
				Time:  s.deadline.elapsed(),
				Best:  best.Move,
			})
		}

		if limits.Nodes > 0 && s.nodes >= limits.Nodes {
			break
		}
		if abs(best.Score) >= Infinite-depth {
			break
		}
	}
	return completed, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
