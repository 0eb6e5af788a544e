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
	"strings"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
)

// PutDriveFile inserts or replaces one mirrored remote object.
func (s *Store) PutDriveFile(x DriveFile) error {
	return s.PutDriveFiles([]DriveFile{x})
}

// PutDriveFiles batch-inserts mirrored remote objects in one transaction,
// executing a single prepared one-row insert statement once per object.
func (s *Store) PutDriveFiles(xs []DriveFile) error {
	if len(xs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO drive_files
			(id, parent_id, name, size, atime, ctime, mtime, mime_type, target_id, trashed, md5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, x := range xs {
		parentID := x.ParentID
		if parentID == "" {
			parentID = RootID
		}
		if _, err := stmt.Exec(x.ID, parentID, x.Name, x.Size, x.Atime, x.Ctime, x.Mtime,
			x.MimeType, nullIfEmpty(x.TargetID), x.Trashed, nullIfEmpty(x.MD5)); err != nil {
			return fmt.Errorf("inserting drive_file %s: %w", x.ID, err)
		}
	}

	return tx.Commit()
}

// DriveFileLookup selects a drive_files row either by ID, or by
// (ParentID, Name) when ID is empty.
type DriveFileLookup struct {
	ID       string
	ParentID string
	Name     string
}

// GetDriveFile returns the mirrored remote object matching by, or
// apperrors.NotFound if none exists.
func (s *Store) GetDriveFile(by DriveFileLookup) (DriveFile, error) {
	var row *sql.Row
	if by.ID != "" {
		row = s.db.QueryRow(`SELECT id, parent_id, name, size, atime, ctime, mtime, mime_type,
			COALESCE(target_id, ''), trashed, COALESCE(md5, '') FROM drive_files WHERE id = ?`, by.ID)
	} else {
		row = s.db.QueryRow(`SELECT id, parent_id, name, size, atime, ctime, mtime, mime_type,
			COALESCE(target_id, ''), trashed, COALESCE(md5, '') FROM drive_files WHERE parent_id = ? AND name = ?`,
			by.ParentID, by.Name)
	}

	var x DriveFile
	var trashed int
	err := row.Scan(&x.ID, &x.ParentID, &x.Name, &x.Size, &x.Atime, &x.Ctime, &x.Mtime,
		&x.MimeType, &x.TargetID, &trashed, &x.MD5)
	if err == sql.ErrNoRows {
		return DriveFile{}, apperrors.New(apperrors.NotFound, "drive_file not found")
	}
	if err != nil {
		return DriveFile{}, fmt.Errorf("scanning drive_file: %w", err)
	}
	x.Trashed = trashed != 0
	return x, nil
}

// ListDriveFilesByParents returns every (non-)trashed drive_files row whose
// parent_id is in parentIDs, used by the Sync/Lister's round-based
// ingestion. Callers must chunk parentIDs to cfg.IngestBatchSize.
func (s *Store) ListDriveFilesByParents(parentIDs []string, trashed bool) ([]DriveFile, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(parentIDs))
	args := make([]any, 0, len(parentIDs)+1)
	for i, id := range parentIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, trashed)

	query := fmt.Sprintf(`SELECT id, parent_id, name, size, atime, ctime, mtime, mime_type,
		COALESCE(target_id, ''), trashed, COALESCE(md5, '') FROM drive_files
		WHERE parent_id IN (%s) AND trashed = ?`, strings.Join(placeholders, ","))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying drive_files by parents: %w", err)
	}
	defer rows.Close()

	var out []DriveFile
	for rows.Next() {
		var x DriveFile
		var t int
		if err := rows.Scan(&x.ID, &x.ParentID, &x.Name, &x.Size, &x.Atime, &x.Ctime, &x.Mtime,
			&x.MimeType, &x.TargetID, &t, &x.MD5); err != nil {
			return nil, fmt.Errorf("scanning drive_file: %w", err)
		}
		x.Trashed = t != 0
		out = append(out, x)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
