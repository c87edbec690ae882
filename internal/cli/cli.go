// Package cli holds start-up code shared by the commands.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/book"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/engine"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
)

// LoadConfig loads the config file named by the -config flag with every
// flag the user set on the command line as an override. Flag names must be
// config keys, except for "config" itself.
func LoadConfig(fs *flag.FlagSet) (*config.Config, error) {
	overrides := make(map[string]any)
	path := ""
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			path = f.Value.String()
			return
		}
		overrides[f.Name] = f.Value.(flag.Getter).Get()
	})
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging(os.Stderr)
	return cfg, nil
}

// OpenBook opens the persistent book named in cfg, if any. The returned
// close function is never nil.
func OpenBook(cfg *config.Config) (*book.Chooser, func() error, error) {
	if cfg.BookDir == "" {
		return nil, func() error { return nil }, nil
	}
	store, err := storage.Open(cfg.BookDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open book %s: %w", cfg.BookDir, err)
	}
	n, err := store.CountPositions()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	log.Info().Str("dir", cfg.BookDir).Int("positions", n).Msg("book-opened")
	return book.NewChooser(book.NewPersistent(store), cfg.BookSeed), store.Close, nil
}

// NewEngine creates an engine from cfg with its book, if any.
func NewEngine(cfg *config.Config) (*engine.Engine, func() error, error) {
	eng := engine.New(cfg.EngineOptions())
	chooser, closeBook, err := OpenBook(cfg)
	if err != nil {
		return nil, nil, err
	}
	if chooser != nil {
		eng.SetBook(chooser)
	}
	return eng, closeBook, nil
}
