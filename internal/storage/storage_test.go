package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

func TestBookMovesRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const hash = 0xDEADBEEF12345678
	_, err = s.Moves(hash)
	assert.ErrorIs(t, err, ErrNotFound)

	want := []BookMove{{From: board.E2, To: board.E4, Weight: 10}, {From: board.D2, To: board.D4, Weight: 5}}
	require.NoError(t, s.PutMoves(hash, want))

	got, err := s.Moves(hash)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	n, err := s.CountPositions()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddMovesMerges(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddMoves(1, []BookMove{{From: board.E2, To: board.E4, Weight: 1}}))
	require.NoError(t, s.AddMoves(1, []BookMove{
		{From: board.E2, To: board.E4, Weight: 7},
		{From: board.G1, To: board.F3, Weight: 2},
	}))

	got, err := s.Moves(1)
	require.NoError(t, err)
	assert.Equal(t, []BookMove{
		{From: board.E2, To: board.E4, Weight: 7},
		{From: board.G1, To: board.F3, Weight: 2},
	}, got)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutMoves(42, []BookMove{{From: board.C2, To: board.C4}}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Moves(42)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSuiteStats(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.PassRate())

	require.NoError(t, s.RecordSuiteRun("wac", 10, 6))
	require.NoError(t, s.RecordSuiteRun("wac", 10, 4))

	stats, err = s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 50.0, stats.PassRate())
	assert.Equal(t, 6, stats.BestByName["wac"])
	assert.False(t, stats.LastRun.IsZero())
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv(dataDirEnv, "")
	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.Equal(t, appName, filepath.Base(dataDir))

	_, err = os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestDataDirOverrideAndDefaultStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	t.Setenv(dataDirEnv, dir)

	dbDir, err := GetDatabaseDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "book"), dbDir)

	s, err := OpenDefault()
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.PutMoves(7, []BookMove{{From: board.E2, To: board.E4}}))
}
