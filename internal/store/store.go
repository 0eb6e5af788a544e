// Copyright 2024 Google Inc. All Rights Reserved.
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

package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a handle on the metadata database for a single mounted profile.
type Store struct {
	db *sql.DB

	// mu serializes all writes (spec §4.2, §5). It is held for one Store
	// call at a time; a caller's compound read-then-write sequence (e.g.
	// rename's target-exists check plus the mutation) is not covered by it.
	mu sync.Mutex
}

// Open creates (or truncates) the mirror tables and ensures request_queue
// exists, then inserts the well-known root row into both files and bin.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under our own mutex
	// discipline; readers reuse the same pool since sqlite3 serializes
	// internally when given one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}

	if _, err := db.Exec(dropAndCreateMirror); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mirror schema: %w", err)
	}
	if _, err := db.Exec(createQueueIfNotExists); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating request_queue: %w", err)
	}

	if err := s.insertRootRows(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) insertRootRows() error {
	now := time.Now().Unix()
	for _, table := range []string{"files", "bin"} {
		_, err := s.db.Exec(
			fmt.Sprintf(`INSERT INTO %s (inode, id, parent_id, dirname, basename, path, is_dir, atime, ctime, mtime)
			             VALUES (?, ?, NULL, '/', '', '/', 1, ?, ?, ?)`, table),
			RootInode, RootID, now, now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting root row into %s: %w", table, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func tableName(bin bool) string {
	if bin {
		return "bin"
	}
	return "files"
}
