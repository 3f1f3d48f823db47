// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultLimit = 50

// Entry is one request to press keys on a TV
type Entry struct {
	ID        int64         `json:"id"`
	RequestID string        `json:"request_id"`
	TVID      string        `json:"tv_id"`
	Keys      []string      `json:"keys"`
	Status    int           `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store keeps the send history in SQLite
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection, so an in-memory database is shared by every query
	db.SetMaxOpenConns(1)

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT,
			tv_id TEXT NOT NULL,
			keys TEXT NOT NULL, -- JSON array as TEXT
			status INTEGER NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sends_tv_id ON sends(tv_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Record stores entry and fills in its ID
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	keysJSON, err := json.Marshal(entry.Keys)
	if err != nil {
		return fmt.Errorf("failed to marshal keys: %w", err)
	}

	query := `INSERT INTO sends (request_id, tv_id, keys, status, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query,
		entry.RequestID, entry.TVID, string(keysJSON), entry.Status, entry.Error, entry.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record send: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get send ID: %w", err)
	}
	entry.ID = id

	return nil
}

// Recent returns up to limit entries for a TV, newest first
func (s *Store) Recent(ctx context.Context, tvID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, request_id, tv_id, keys, status, error, duration_ms, created_at
			  FROM sends WHERE tv_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, tvID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry      Entry
			keysJSON   string
			durationMS int64
		)
		err := rows.Scan(
			&entry.ID, &entry.RequestID, &entry.TVID, &keysJSON,
			&entry.Status, &entry.Error, &durationMS, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan send: %w", err)
		}

		if err := json.Unmarshal([]byte(keysJSON), &entry.Keys); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keys: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return entries, nil
}
