package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/cli"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/uci"
)

var (
	defaults = config.Defaults()

	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	_          = flag.String("config", "", "config file (yaml, toml or json)")
	_          = flag.Int(config.KeyHashMB, defaults.HashMB, "transposition table size in MB")
	_          = flag.String(config.KeyBookDir, "", "directory of the opening book database")
	_          = flag.String(config.KeyLogLevel, defaults.LogLevel, "log level")
)

func main() {
	flag.Parse()

	cfg, err := cli.LoadConfig(flag.CommandLine)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("file", profilePath).Msg("cpu-profiling")
	}

	eng, closeBook, err := cli.NewEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	defer closeBook()

	if err := uci.New(eng, cfg.Limits(), os.Stdin, os.Stdout).Run(); err != nil {
		log.Error().Err(err).Msg("uci")
	}
}
