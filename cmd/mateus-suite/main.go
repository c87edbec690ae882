package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/cli"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
	"github.com/jesper-olsen/mateus-sub000/internal/suite"
)

var (
	defaults = config.Defaults()

	statsDir = flag.String("stats-dir", "", "record the run in the database in this directory")
	_        = flag.String("config", "", "config file (yaml, toml or json)")
	_        = flag.Int(config.KeyDepth, defaults.Depth, "maximum search depth")
	_        = flag.Uint64(config.KeyNodes, defaults.Nodes, "soft node budget per position")
	_        = flag.Duration(config.KeyMoveTime, defaults.MoveTime, "hard time limit per position")
	_        = flag.Int(config.KeySuiteWorkers, defaults.SuiteWorkers, "positions searched in parallel")
	_        = flag.String(config.KeyLogLevel, defaults.LogLevel, "log level")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] suite.yaml...\n", os.Args[0])
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := false
	for _, path := range flag.Args() {
		ok, err := runFile(ctx, cfg, path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("suite")
		}
		failed = failed || !ok
	}
	if failed {
		os.Exit(1)
	}
}

func runFile(ctx context.Context, cfg *config.Config, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	positions, err := suite.Load(f)
	if err != nil {
		return false, err
	}
	summary, err := suite.Run(ctx, positions, suite.Options{
		Workers: cfg.SuiteWorkers,
		Engine:  cfg.EngineOptions(),
		Limits:  cfg.Limits(),
	})
	if err != nil {
		return false, err
	}
	if err := summary.Report(os.Stdout); err != nil {
		return false, err
	}

	if *statsDir != "" {
		store, err := storage.Open(*statsDir)
		if err != nil {
			return false, err
		}
		defer store.Close()
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := store.RecordSuiteRun(name, len(positions), summary.Passed); err != nil {
			return false, err
		}
		stats, err := store.LoadStats()
		if err != nil {
			return false, err
		}
		log.Info().
			Int("runs", stats.Runs).
			Float64("pass-rate", stats.PassRate()).
			Int("best", stats.BestByName[name]).
			Msg("suite-history")
	}
	return summary.Passed == len(positions), nil
}
