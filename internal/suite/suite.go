// Package suite runs a set of test positions through independent engines.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/engine"
)

// Position is one suite entry. Best lists the acceptable answers in long
// algebraic or SAN.
type Position struct {
	Name string   `yaml:"name"`
	FEN  string   `yaml:"fen"`
	Best []string `yaml:"best"`
}

// Load reads a YAML list of positions.
func Load(r io.Reader) ([]Position, error) {
	var positions []Position
	if err := yaml.NewDecoder(r).Decode(&positions); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode suite: %w", err)
	}
	for i, p := range positions {
		if p.FEN == "" {
			return nil, fmt.Errorf("suite entry %d (%s): missing fen", i, p.Name)
		}
		if positions[i].Name == "" {
			positions[i].Name = fmt.Sprintf("#%d", i+1)
		}
	}
	return positions, nil
}

type Options struct {
	Workers int
	Engine  engine.Options
	Limits  engine.Limits
}

type Result struct {
	Position Position
	Move     string // long algebraic
	SAN      string
	Score    int
	Depth    int
	Nodes    uint64
	Elapsed  time.Duration
	Passed   bool
}

type Summary struct {
	Results []Result
	Passed  int
	Nodes   uint64
	Elapsed time.Duration
}

// normalize resolves the expected answers to long algebraic.
func normalize(g *board.Game, best []string) ([]string, error) {
	out := make([]string, 0, len(best))
	for _, b := range best {
		m, err := g.ParseAny(b)
		if err != nil {
			return nil, err
		}
		out = append(out, m.String())
	}
	return out, nil
}

func solve(ctx context.Context, p Position, opts Options) (Result, error) {
	e := engine.New(opts.Engine)
	if err := e.SetFEN(p.FEN); err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	want, err := normalize(e.Game(), p.Best)
	if err != nil {
		return Result{}, fmt.Errorf("%s: expected move: %w", p.Name, err)
	}

	start := time.Now()
	r, err := e.Search(ctx, opts.Limits)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	res := Result{
		Position: p,
		Move:     r.Move.String(),
		SAN:      e.Game().SAN(r.Move),
		Score:    r.Score,
		Depth:    r.Depth,
		Nodes:    r.Nodes,
		Elapsed:  time.Since(start),
	}
	res.Passed = lo.Contains(want, res.Move)
	log.Debug().
		Str("name", p.Name).
		Str("move", res.SAN).
		Bool("passed", res.Passed).
		Int("depth", res.Depth).
		Msg("suite-position")
	return res, nil
}

// Run searches every position with its own engine, at most opts.Workers at
// a time. Results keep the order of positions.
func Run(ctx context.Context, positions []Position, opts Options) (Summary, error) {
	start := time.Now()
	results := make([]Result, len(positions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, p := range positions {
		g.Go(func() error {
			r, err := solve(ctx, p, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summary{
		Results: results,
		Passed:  lo.CountBy(results, func(r Result) bool { return r.Passed }),
		Nodes:   lo.SumBy(results, func(r Result) uint64 { return r.Nodes }),
		Elapsed: time.Since(start),
	}
	log.Info().
		Int("positions", len(results)).
		Int("passed", s.Passed).
		Uint64("nodes", s.Nodes).
		Dur("elapsed", s.Elapsed).
		Msg("suite-finished")
	return s, nil
}

// Report writes one line per position and a total.
func (s Summary) Report(w io.Writer) error {
	for _, r := range s.Results {
		mark := "FAIL"
		if r.Passed {
			mark = "ok"
		}
		if _, err := fmt.Fprintf(w, "%-4s %-20s %-8s %-12s depth %2d  %s\n",
			mark, r.Position.Name, r.SAN, engine.ScoreToString(r.Score), r.Depth, r.Elapsed.Round(time.Millisecond)); err != nil {
			return err
		}
	}
	failed := lo.FilterMap(s.Results, func(r Result, _ int) (string, bool) {
		return r.Position.Name, !r.Passed
	})
	_, err := fmt.Fprintf(w, "passed %d/%d, %d nodes in %s; failed: %v\n",
		s.Passed, len(s.Results), s.Nodes, s.Elapsed.Round(time.Millisecond), failed)
	return err
}
