package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/book"
	"github.com/jesper-olsen/mateus-sub000/internal/cli"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
)

var (
	defaults = config.Defaults()

	_ = flag.String("config", "", "config file (yaml, toml or json)")
	_ = flag.String(config.KeyBookDir, "", "directory of the opening book database (default: user data dir)")
	_ = flag.String(config.KeyLogLevel, defaults.LogLevel, "log level")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] book.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flag.CommandLine)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	var store *storage.Store
	if cfg.BookDir != "" {
		store, err = storage.Open(cfg.BookDir)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open book")
	}
	defer store.Close()

	dst := book.NewPersistent(store)
	total := 0
	for _, path := range flag.Args() {
		n, err := importFile(dst, path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("import")
			store.Close()
			os.Exit(1)
		}
		total += n
	}

	positions, err := store.CountPositions()
	if err != nil {
		log.Fatal().Err(err).Msg("count")
	}
	log.Info().Int("moves", total).Int("positions", positions).Msg("book-written")
}

func importFile(dst book.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	entries, err := book.LoadYAML(f)
	if err != nil {
		return 0, err
	}
	return book.Import(dst, entries)
}
