package cli

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesper-olsen/mateus-sub000/internal/book"
	"github.com/jesper-olsen/mateus-sub000/internal/config"
	"github.com/jesper-olsen/mateus-sub000/internal/storage"
)

func TestLoadConfigUsesSetFlagsOnly(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int(config.KeyDepth, 3, "")
	fs.Int(config.KeyHashMB, 999, "")
	require.NoError(t, fs.Parse([]string{"-depth", "7"}))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Depth)
	assert.Equal(t, 16, cfg.HashMB) // unset flag keeps the config default
}

func TestFlagDefaultsFollowConfig(t *testing.T) {
	defaults := config.Defaults()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String(config.KeyLogLevel, defaults.LogLevel, "")
	fs.Int(config.KeyDepth, defaults.Depth, "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := LoadConfig(fs)
	require.NoError(t, err)
	assert.Equal(t, fs.Lookup(config.KeyLogLevel).DefValue, cfg.LogLevel)
	assert.Equal(t, "64", fs.Lookup(config.KeyDepth).DefValue)
	assert.Equal(t, defaults.Depth, cfg.Depth)
}

func TestNewEngineWithBook(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(dir)
	require.NoError(t, err)
	_, err = book.Import(book.NewPersistent(store), []book.Entry{{Moves: []string{"d4"}}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cfg, err := config.Load("", map[string]any{config.KeyBookDir: dir})
	require.NoError(t, err)
	eng, closeBook, err := NewEngine(cfg)
	require.NoError(t, err)
	defer closeBook()

	m, err := eng.BestMove(t.Context(), cfg.Limits())
	require.NoError(t, err)
	assert.Equal(t, "d2d4", m.String())
}

func TestNewEngineWithoutBook(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	eng, closeBook, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.NoError(t, closeBook())
	assert.Len(t, eng.LegalMoves(), 20)
}
