// Package storage keeps opening-book lines and suite statistics in BadgerDB.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const (
	appName    = "mateus"
	dataDirEnv = "MATEUS_DATA_DIR"
)

// baseDataDir is the per-user data root of the platform:
// ~/Library/Application Support on macOS, %APPDATA% on Windows and
// $XDG_DATA_HOME (default ~/.local/share) elsewhere.
func baseDataDir() (string, error) {
	var env, fallback string
	switch runtime.GOOS {
	case "darwin":
		fallback = filepath.Join("Library", "Application Support")
	case "windows":
		env, fallback = "APPDATA", filepath.Join("AppData", "Roaming")
	default:
		env, fallback = "XDG_DATA_HOME", filepath.Join(".local", "share")
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback), nil
}

// GetDataDir returns the application's data directory, creating it if
// needed. MATEUS_DATA_DIR overrides the platform default.
func GetDataDir() (string, error) {
	dataDir := os.Getenv(dataDirEnv)
	if dataDir == "" {
		base, err := baseDataDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDatabaseDir returns the directory holding the BadgerDB files.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "book")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	log.Debug().Str("dir", dbDir).Msg("database-directory")
	return dbDir, nil
}
