package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// Storage keys
const (
	bookPrefix = "book/"
	keyStats   = "suite_stats"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// BookMove is one known-good move stored for a position hash.
type BookMove struct {
	From   board.Square `json:"from"`
	To     board.Square `json:"to"`
	Weight uint16       `json:"weight"`
}

// SuiteStats accumulates test-suite runs.
type SuiteStats struct {
	Runs       int            `json:"runs"`
	Positions  int            `json:"positions"`
	Passed     int            `json:"passed"`
	BestByName map[string]int `json:"best_by_name"` // suite name -> best pass count
	LastRun    time.Time      `json:"last_run"`
}

// NewSuiteStats returns empty statistics.
func NewSuiteStats() *SuiteStats {
	return &SuiteStats{BestByName: make(map[string]int)}
}

// PassRate returns the pass percentage over all runs.
func (s *SuiteStats) PassRate() float64 {
	if s.Positions == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Positions) * 100
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenDefault opens the store in the platform data directory.
func OpenDefault() (*Store, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func bookKey(hash uint64) []byte {
	return fmt.Appendf(nil, "%s%016x", bookPrefix, hash)
}

// PutMoves replaces the moves stored for a position hash.
func (s *Store) PutMoves(hash uint64, moves []BookMove) error {
	data, err := json.Marshal(moves)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bookKey(hash), data)
	})
}

// AddMoves merges moves into those stored for hash. A move already present
// keeps its position and takes the larger weight.
func (s *Store) AddMoves(hash uint64, moves []BookMove) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var have []BookMove
		item, err := txn.Get(bookKey(hash))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &have)
			}); err != nil {
				return err
			}
		}
	next:
		for _, m := range moves {
			for i := range have {
				if have[i].From == m.From && have[i].To == m.To {
					have[i].Weight = max(have[i].Weight, m.Weight)
					continue next
				}
			}
			have = append(have, m)
		}
		data, err := json.Marshal(have)
		if err != nil {
			return err
		}
		return txn.Set(bookKey(hash), data)
	})
}

// Moves returns the moves stored for hash, ErrNotFound if there are none.
func (s *Store) Moves(hash uint64) ([]BookMove, error) {
	var moves []BookMove
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bookKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &moves)
		})
	})
	return moves, err
}

// CountPositions returns how many positions have book moves.
func (s *Store) CountPositions() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(bookPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// LoadStats loads suite statistics, empty if none were saved.
func (s *Store) LoadStats() (*SuiteStats, error) {
	stats := NewSuiteStats()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	if stats.BestByName == nil {
		stats.BestByName = make(map[string]int)
	}
	return stats, err
}

// RecordSuiteRun adds one suite run to the statistics.
func (s *Store) RecordSuiteRun(name string, positions, passed int) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.Runs++
	stats.Positions += positions
	stats.Passed += passed
	stats.BestByName[name] = max(stats.BestByName[name], passed)
	stats.LastRun = time.Now()

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}
