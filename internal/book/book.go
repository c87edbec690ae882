// Package book maps position hashes to known opening moves.
package book

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
)

// Move is a book move. Promotions are not distinguished; a book move onto
// the last rank resolves to the first matching legal move, a queen.
type Move struct {
	From   board.Square
	To     board.Square
	Weight uint16
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// Source looks up the book moves for a position hash. An empty result means
// the position is not in the book.
type Source interface {
	Lookup(hash uint64) ([]Move, error)
}

// Writer accepts book moves for a position hash, merging with what is there.
type Writer interface {
	Add(hash uint64, moves []Move) error
}

// Memory is an in-process book.
type Memory struct {
	entries map[uint64][]Move
}

// NewMemory creates an empty book.
func NewMemory() *Memory {
	return &Memory{entries: make(map[uint64][]Move)}
}

func (b *Memory) Lookup(hash uint64) ([]Move, error) {
	return slices.Clone(b.entries[hash]), nil
}

func (b *Memory) Add(hash uint64, moves []Move) error {
	b.entries[hash] = merge(b.entries[hash], moves)
	return nil
}

// Size returns the number of positions in the book.
func (b *Memory) Size() int {
	return len(b.entries)
}

func merge(have, moves []Move) []Move {
	for _, m := range moves {
		i := slices.IndexFunc(have, func(h Move) bool { return h.From == m.From && h.To == m.To })
		if i < 0 {
			have = append(have, m)
			continue
		}
		have[i].Weight = max(have[i].Weight, m.Weight)
	}
	return have
}

// Persistent is a book kept in a storage.Store.
type Persistent struct {
	store *storage.Store
}

// NewPersistent wraps store.
func NewPersistent(store *storage.Store) *Persistent {
	return &Persistent{store: store}
}

func (b *Persistent) Lookup(hash uint64) ([]Move, error) {
	stored, err := b.store.Moves(hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("book lookup: %w", err)
	}
	return lo.Map(stored, func(m storage.BookMove, _ int) Move {
		return Move{From: m.From, To: m.To, Weight: m.Weight}
	}), nil
}

func (b *Persistent) Add(hash uint64, moves []Move) error {
	return b.store.AddMoves(hash, lo.Map(moves, func(m Move, _ int) storage.BookMove {
		return storage.BookMove{From: m.From, To: m.To, Weight: m.Weight}
	}))
}

// Entry is one record of a YAML book. Moves are alternatives in the
// position given by FEN; Line is a sequence played from it, each move
// booked in the position it is played from. An empty FEN or "startpos"
// is the initial position.
type Entry struct {
	FEN     string   `yaml:"fen,omitempty"`
	Moves   []string `yaml:"moves,omitempty"`
	Weights []uint16 `yaml:"weights,omitempty"`
	Line    []string `yaml:"line,omitempty"`
}

// LoadYAML reads a list of entries.
func LoadYAML(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode book: %w", err)
	}
	return entries, nil
}

func (e Entry) game() (*board.Game, error) {
	fen := strings.TrimSpace(e.FEN)
	if fen == "" || fen == "startpos" {
		return board.NewStartGame(), nil
	}
	return board.GameFromFEN(fen)
}

// Import checks every entry against the rules and writes its moves to dst.
// It returns the number of moves written.
func Import(dst Writer, entries []Entry) (int, error) {
	n := 0
	for i, e := range entries {
		g, err := e.game()
		if err != nil {
			return n, fmt.Errorf("entry %d: %w", i, err)
		}
		if len(e.Weights) > 0 && len(e.Weights) != len(e.Moves) {
			return n, fmt.Errorf("entry %d: %d weights for %d moves", i, len(e.Weights), len(e.Moves))
		}

		var alts []Move
		for j, text := range e.Moves {
			m, err := g.ParseAny(text)
			if err != nil {
				return n, fmt.Errorf("entry %d move %q: %w", i, text, err)
			}
			w := uint16(1)
			if len(e.Weights) > 0 {
				w = e.Weights[j]
			}
			alts = append(alts, Move{From: m.From, To: m.To, Weight: w})
		}
		if len(alts) > 0 {
			if err := dst.Add(g.Hash(), alts); err != nil {
				return n, err
			}
			n += len(alts)
		}

		for _, text := range e.Line {
			m, err := g.ParseAny(text)
			if err != nil {
				return n, fmt.Errorf("entry %d line move %q: %w", i, text, err)
			}
			if err := dst.Add(g.Hash(), []Move{{From: m.From, To: m.To, Weight: 1}}); err != nil {
				return n, err
			}
			n++
			g.Play(m)
		}
	}
	log.Debug().Int("entries", len(entries)).Int("moves", n).Msg("book-imported")
	return n, nil
}

// Chooser picks book moves for a game.
type Chooser struct {
	src Source
	rng *frand.RNG
}

// NewChooser creates a chooser over src. A non-empty seed makes the weighted
// choice reproducible.
func NewChooser(src Source, seed string) *Chooser {
	c := &Chooser{src: src}
	if seed != "" {
		key := sha256.Sum256([]byte(seed))
		c.rng = frand.NewCustom(key[:], 1024, 12)
	}
	return c
}

func (c *Chooser) intn(n int) int {
	if c.rng != nil {
		return c.rng.Intn(n)
	}
	return frand.Intn(n)
}

// Choose returns a legal book move for g, weighted by the book weights. The
// boolean is false when the position is not in the book or none of its book
// moves is legal.
func (c *Chooser) Choose(g *board.Game) (board.Move, bool, error) {
	entries, err := c.src.Lookup(g.Hash())
	if err != nil || len(entries) == 0 {
		return board.NoMove, false, err
	}

	legal := g.LegalMoves()
	type candidate struct {
		move   board.Move
		weight uint16
	}
	candidates := lo.FilterMap(entries, func(e Move, _ int) (candidate, bool) {
		m, ok := lo.Find(legal, func(m board.Move) bool { return m.From == e.From && m.To == e.To })
		return candidate{m, e.Weight}, ok
	})
	if len(candidates) == 0 {
		log.Warn().Uint64("hash", g.Hash()).Msg("book-moves-illegal")
		return board.NoMove, false, nil
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return int(b.weight) - int(a.weight)
	})
	total := lo.SumBy(candidates, func(c candidate) int { return int(c.weight) })
	if total == 0 {
		return candidates[0].move, true, nil
	}

	r := c.intn(total)
	for _, cand := range candidates {
		r -= int(cand.weight)
		if r < 0 {
			log.Debug().Str("move", cand.move.String()).Msg("book-hit")
			return cand.move, true, nil
		}
	}
	return candidates[0].move, true, nil
}
