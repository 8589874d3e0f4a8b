// Package rundb persists finished simulation runs to disk so that, e.g., a
// liveness sweep over many seeds can later inspect which ones committed.
// It is entirely optional cross-run archival; it never participates in
// the event loop itself.
package rundb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/yimin-chang/librabft-simulator/basetime"
)

// ErrNotFound is returned by Load when no run is stored under the given id.
var ErrNotFound = errors.New("rundb: run not found")

// RunResult is what Store persists for a single Simulator.Run call. Contexts
// holds the JSON encoding of each node's final protocol context, in author
// order, so the store stays independent of any particular context type.
type RunResult struct {
	Seed      int64             `json:"seed"`
	NumNodes  int               `json:"num_nodes"`
	MaxClock  basetime.GlobalTime `json:"max_clock"`
	Contexts  []json.RawMessage `json:"contexts"`
	Duration  time.Duration     `json:"duration"`
}

// Store wraps a LevelDB database keyed by "run:<id>", one JSON-serialized
// RunResult per call to Simulator.Run.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) a run archive at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("rundb: opening %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(id string) []byte {
	return []byte("run:" + id)
}

// Save persists result under id, overwriting any previous entry.
func (s *Store) Save(id string, result RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("rundb: marshaling run %q: %w", id, err)
	}
	if err := s.db.Put(runKey(id), data, nil); err != nil {
		return fmt.Errorf("rundb: writing run %q: %w", id, err)
	}
	return nil
}

// Load reads back the run stored under id. It returns ErrNotFound if no
// such run exists.
func (s *Store) Load(id string) (RunResult, error) {
	data, err := s.db.Get(runKey(id), nil)
	if err == leveldb.ErrNotFound {
		return RunResult{}, ErrNotFound
	}
	if err != nil {
		return RunResult{}, fmt.Errorf("rundb: reading run %q: %w", id, err)
	}
	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return RunResult{}, fmt.Errorf("rundb: parsing run %q: %w", id, err)
	}
	return result, nil
}

// MarshalContexts encodes a slice of per-author contexts into the
// json.RawMessage form RunResult.Contexts expects.
func MarshalContexts[C any](contexts []C) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(contexts))
	for i, c := range contexts {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("rundb: marshaling context for author %d: %w", i, err)
		}
		out[i] = data
	}
	return out, nil
}
