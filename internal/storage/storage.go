// Package storage persists engine preferences in an embedded Badger
// key/value store, so option changes survive across sessions.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const keyPreferences = "preferences"

// Preferences are the engine settings worth keeping between runs:
// resources, evaluator choice and any tunable overrides applied through
// setoption.
type Preferences struct {
	HashMB   int            `json:"hash_mb"`
	Threads  int            `json:"threads"`
	UseNNUE  bool           `json:"use_nnue"`
	EvalFile string         `json:"eval_file,omitempty"`
	Tunables map[string]int `json:"tunables,omitempty"`
}

// DefaultPreferences returns the out-of-the-box settings.
func DefaultPreferences() *Preferences {
	return &Preferences{
		HashMB:  64,
		Threads: 1,
	}
}

// Store wraps the Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger's own logging is noise on a UCI stream
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening preference store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadPreferences reads the stored preferences, or an error when none
// were ever saved.
func (s *Store) LoadPreferences() (*Preferences, error) {
	var prefs Preferences
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prefs)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	return &prefs, nil
}

// SavePreferences writes the preferences.
func (s *Store) SavePreferences(p *Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
