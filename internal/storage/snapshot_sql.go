package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"promptstudio/internal/store"
)

// SnapshotKey is the single well-known key the session set lives under.
const SnapshotKey = "studio/sessions"

// SQLStore persists the session snapshot as one row in the snapshots table.
// It implements store.SnapshotPort.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened, migrated database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load reads and validates the stored snapshot. A missing row is an empty
// snapshot, not an error.
func (s *SQLStore) Load() (store.Snapshot, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM snapshots WHERE `key` = ?", SnapshotKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Snapshot{}, nil
		}
		return store.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := store.DecodeSnapshot([]byte(data))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save writes the whole snapshot under the well-known key.
func (s *SQLStore) Save(snap store.Snapshot) error {
	data, err := store.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	// REPLACE INTO is understood by both sqlite and mysql.
	_, err = s.db.Exec("REPLACE INTO snapshots (`key`, data, updated_at) VALUES (?, ?, ?)",
		SnapshotKey, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
