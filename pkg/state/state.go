// Package state persists operator settings and archive history in badger
// so they survive a restart.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/otairec/otairec/pkg/recorder"
)

const (
	settingsKey   = "recorder/settings"
	segmentPrefix = "archive/"
)

// Segment records one archived recording segment.
type Segment struct {
	Local      string    `json:"local"`
	Remote     string    `json:"remote"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store is a badger-backed key/value store for otairec state.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store at path. With inMemory set
// path is ignored and nothing touches disk.
func Open(path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("state.Open: %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSettings returns the persisted recorder settings. ok is false when
// nothing has been saved yet.
func (s *Store) LoadSettings() (settings recorder.Settings, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		return recorder.Settings{}, false, fmt.Errorf("state.LoadSettings: %w", err)
	}
	return settings, ok, nil
}

// SaveSettings replaces the persisted recorder settings.
func (s *Store) SaveSettings(settings recorder.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("state.SaveSettings: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
	if err != nil {
		return fmt.Errorf("state.SaveSettings: %w", err)
	}
	return nil
}

// PutSegment records an archived segment, keyed by its remote path.
func (s *Store) PutSegment(seg Segment) error {
	data, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("state.PutSegment: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(segmentPrefix+seg.Remote), data)
	})
	if err != nil {
		return fmt.Errorf("state.PutSegment: %w", err)
	}
	return nil
}

// Segments returns archived segments, oldest upload first.
func (s *Store) Segments() ([]Segment, error) {
	var out []Segment
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(segmentPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var seg Segment
				if err := json.Unmarshal(val, &seg); err != nil {
					slog.Warn("skipping corrupt segment record", "key", string(item.Key()), "error", err)
					return nil
				}
				out = append(out, seg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("state.Segments: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}
