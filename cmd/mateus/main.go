package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/cli"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/shell"
)

var (
	defaults = config.Defaults()

	_ = flag.String("config", "", "config file (yaml, toml or json)")
	_ = flag.Int(config.KeyDepth, defaults.Depth, "maximum search depth")
	_ = flag.Uint64(config.KeyNodes, defaults.Nodes, "soft node budget per move")
	_ = flag.String(config.KeyBookDir, "", "directory of the opening book database")
	_ = flag.String(config.KeyLogLevel, defaults.LogLevel, "log level")
)

func main() {
	flag.Parse()

	cfg, err := cli.LoadConfig(flag.CommandLine)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	eng, closeBook, err := cli.NewEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	defer closeBook()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := shell.New(eng, cfg.Limits(), os.Stdout).Loop(ctx); err != nil {
		log.Error().Err(err).Msg("shell")
	}
}
