// Package config loads engine and front-end settings from defaults, an
// optional config file and MATEUS_* environment variables.
package config

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/jesper-olsen/mateus-sub000/internal/engine"
)

// Keys
const (
	KeyHashMB        = "hash-mb"
	KeyNodes         = "nodes"
	KeyDepth         = "depth"
	KeyMoveTime      = "move-time"
	KeyBookDir       = "book-dir"
	KeyBookSeed      = "book-seed"
	KeyRecaptureOnly = "recapture-only"
	KeyVerbose       = "verbose"
	KeyLogLevel      = "log-level"
	KeySuiteWorkers  = "suite-workers"
)

const envPrefix = "MATEUS"

type Config struct {
	HashMB        int
	Nodes         uint64
	Depth         int
	MoveTime      time.Duration
	BookDir       string
	BookSeed      string
	RecaptureOnly bool
	Verbose       bool
	LogLevel      string
	SuiteWorkers  int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHashMB, 16)
	v.SetDefault(KeyNodes, 2_000_000)
	v.SetDefault(KeyDepth, engine.DefaultMaxDepth)
	v.SetDefault(KeyMoveTime, time.Duration(0))
	v.SetDefault(KeyBookDir, "")
	v.SetDefault(KeyBookSeed, "")
	v.SetDefault(KeyRecaptureOnly, true)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySuiteWorkers, runtime.NumCPU())
}

// Load reads the configuration. path may be empty; overrides (typically
// flags set on the command line) win over everything else.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("config-loaded")
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	c := fromViper(v)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Defaults returns the built-in settings, ignoring files and environment.
// Commands use it for the defaults their flags show.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	return *fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HashMB:        v.GetInt(KeyHashMB),
		Nodes:         v.GetUint64(KeyNodes),
		Depth:         v.GetInt(KeyDepth),
		MoveTime:      v.GetDuration(KeyMoveTime),
		BookDir:       v.GetString(KeyBookDir),
		BookSeed:      v.GetString(KeyBookSeed),
		RecaptureOnly: v.GetBool(KeyRecaptureOnly),
		Verbose:       v.GetBool(KeyVerbose),
		LogLevel:      v.GetString(KeyLogLevel),
		SuiteWorkers:  v.GetInt(KeySuiteWorkers),
	}
}

func (c *Config) validate() error {
	switch {
	case c.HashMB < 1:
		return fmt.Errorf("%s must be at least 1, got %d", KeyHashMB, c.HashMB)
	case c.Depth < 2:
		return fmt.Errorf("%s must be at least 2, got %d", KeyDepth, c.Depth)
	case c.SuiteWorkers < 1:
		return fmt.Errorf("%s must be at least 1, got %d", KeySuiteWorkers, c.SuiteWorkers)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return nil
}

// EngineOptions returns the options for engine.New.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		HashMB:        c.HashMB,
		RecaptureOnly: c.RecaptureOnly,
		Verbose:       c.Verbose,
	}
}

// Limits returns the default search limits.
func (c *Config) Limits() engine.Limits {
	return engine.Limits{Depth: c.Depth, Nodes: c.Nodes, MoveTime: c.MoveTime}
}

// SetupLogging points the global logger at w with the configured level.
func (c *Config) SetupLogging(w io.Writer) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}
