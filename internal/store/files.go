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
	"path"
	"strings"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
)

// MaterializeFromDriveFile composes the path of x from its already-
// materialized parent and inserts (or replaces) the corresponding files/bin
// row. It is the only operation that looks up the parent's path, so it
// must be called in parent-before-child order; the Sync/Lister guarantees
// this by construction (spec §4.2).
func (s *Store) MaterializeFromDriveFile(x DriveFile, bin bool) (FileRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := tableName(bin)

	parentID := x.ParentID
	if parentID == "" {
		parentID = RootID
	}

	var parentDir string
	err := s.db.QueryRow(fmt.Sprintf(`SELECT path FROM %s WHERE id = ?`, table), parentID).Scan(&parentDir)
	if err == sql.ErrNoRows {
		// The parent hasn't been materialized yet; the Sync/Lister's
		// ingestion rounds re-parent such orphans to root before calling
		// this again, so this indicates a caller ordering bug.
		return FileRow{}, apperrors.Newf(apperrors.NotFound, "parent %s not materialized", parentID)
	}
	if err != nil {
		return FileRow{}, fmt.Errorf("looking up parent path: %w", err)
	}

	basename, fullPath, err := s.resolveBasename(table, parentDir, parentID, x.Name, x.ID)
	if err != nil {
		return FileRow{}, fmt.Errorf("resolving basename: %w", err)
	}

	row := FileRow{
		ID:       x.ID,
		ParentID: parentID,
		Dirname:  parentDir,
		Basename: basename,
		Path:     fullPath,
		FileSize: x.Size,
		Atime:    x.Atime,
		Ctime:    x.Ctime,
		Mtime:    x.Mtime,
		IsDir:    IsFolderMime(x.MimeType),
		IsLink:   IsShortcutMime(x.MimeType),
		TargetID: x.TargetID,
		MD5:      x.MD5,
	}

	inode, err := s.putFileLocked(table, row)
	if err != nil {
		return FileRow{}, err
	}
	row.Inode = inode
	return row, nil
}

// resolveBasename disambiguates name against siblings already materialized
// under parentID, splicing " (N)" before name's extension for the 2nd and
// later row to claim a given basename (spec §3 item 1). Rows are always
// materialized in ascending drive_files.id order, so walking name, then
// "name (2)", "name (3)", ... until an unclaimed path is found reproduces
// the same deterministic N on every mount. selfID excludes the row being
// re-materialized for its own id (a refresh of an already-seen object must
// not collide with itself).
func (s *Store) resolveBasename(table, parentDir, parentID, name, selfID string) (basename, fullPath string, err error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 2; ; n++ {
		p := path.Join(parentDir, candidate)
		taken, err := s.pathTaken(table, parentID, p, selfID)
		if err != nil {
			return "", "", err
		}
		if !taken {
			return candidate, p, nil
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

func (s *Store) pathTaken(table, parentID, p, selfID string) (bool, error) {
	var exists int
	err := s.db.QueryRow(fmt.Sprintf(
		`SELECT 1 FROM %s WHERE parent_id = ? AND path = ? AND COALESCE(id,'') != ? LIMIT 1`, table),
		parentID, p, selfID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PutFile inserts or updates a materialized row (used for placeholders and
// worker reconciliation). When row.Inode is zero a new row is created;
// otherwise the existing row is replaced in place.
func (s *Store) PutFile(row FileRow, bin bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putFileLocked(tableName(bin), row)
}

func (s *Store) putFileLocked(table string, row FileRow) (int64, error) {
	if row.Inode != 0 {
		_, err := s.db.Exec(fmt.Sprintf(`
			UPDATE %s SET id=?, parent_id=?, dirname=?, basename=?, path=?, file_size=?,
				atime=?, ctime=?, mtime=?, is_dir=?, is_link=?, target_id=?, target_path=?, md5=?
			WHERE inode=?`, table),
			nullIfEmpty(row.ID), row.ParentID, row.Dirname, row.Basename, row.Path, row.FileSize,
			row.Atime, row.Ctime, row.Mtime, row.IsDir, row.IsLink,
			nullIfEmpty(row.TargetID), nullIfEmpty(row.TargetPath), nullIfEmpty(row.MD5), row.Inode)
		if err != nil {
			return 0, fmt.Errorf("updating %s row: %w", table, err)
		}
		return row.Inode, nil
	}

	res, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, dirname, basename, path, file_size, atime, ctime, mtime,
			is_dir, is_link, target_id, target_path, md5)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table),
		nullIfEmpty(row.ID), row.ParentID, row.Dirname, row.Basename, row.Path, row.FileSize,
		row.Atime, row.Ctime, row.Mtime, row.IsDir, row.IsLink,
		nullIfEmpty(row.TargetID), nullIfEmpty(row.TargetPath), nullIfEmpty(row.MD5))
	if err != nil {
		return 0, fmt.Errorf("inserting %s row: %w", table, err)
	}
	return res.LastInsertId()
}

// FileLookup selects a files/bin row either by Inode, or by (ParentInode,
// Name) when Inode is zero.
type FileLookup struct {
	Inode       int64
	ParentInode int64
	Name        string
}

// GetFile returns the materialized row matching by, or apperrors.NotFound.
func (s *Store) GetFile(by FileLookup, bin bool) (FileRow, error) {
	table := tableName(bin)

	var row *sql.Row
	if by.Inode != 0 {
		row = s.db.QueryRow(fmt.Sprintf(`SELECT inode, COALESCE(id,''), parent_id, dirname, basename,
			path, file_size, atime, ctime, mtime, is_dir, is_link, COALESCE(target_id,''),
			COALESCE(target_path,''), COALESCE(md5,'') FROM %s WHERE inode = ?`, table), by.Inode)
	} else {
		parent, err := s.GetFile(FileLookup{Inode: by.ParentInode}, bin)
		if err != nil {
			return FileRow{}, err
		}
		row = s.db.QueryRow(fmt.Sprintf(`SELECT inode, COALESCE(id,''), parent_id, dirname, basename,
			path, file_size, atime, ctime, mtime, is_dir, is_link, COALESCE(target_id,''),
			COALESCE(target_path,''), COALESCE(md5,'') FROM %s WHERE parent_id = ? AND basename = ?`, table),
			parent.ID, by.Name)
	}

	return scanFileRow(row)
}

func scanFileRow(row *sql.Row) (FileRow, error) {
	var r FileRow
	err := row.Scan(&r.Inode, &r.ID, &r.ParentID, &r.Dirname, &r.Basename, &r.Path, &r.FileSize,
		&r.Atime, &r.Ctime, &r.Mtime, &r.IsDir, &r.IsLink, &r.TargetID, &r.TargetPath, &r.MD5)
	if err == sql.ErrNoRows {
		return FileRow{}, apperrors.New(apperrors.NotFound, "file row not found")
	}
	if err != nil {
		return FileRow{}, fmt.Errorf("scanning file row: %w", err)
	}
	return r, nil
}

// GetFiles returns every child of parentID in ascending inode order, which
// is the ordering the kernel readdir resume-token contract requires
// (spec §4.7).
func (s *Store) GetFiles(parentID string, bin bool) ([]FileRow, error) {
	table := tableName(bin)
	rows, err := s.db.Query(fmt.Sprintf(`SELECT inode, COALESCE(id,''), parent_id, dirname, basename,
		path, file_size, atime, ctime, mtime, is_dir, is_link, COALESCE(target_id,''),
		COALESCE(target_path,''), COALESCE(md5,'') FROM %s WHERE parent_id = ? ORDER BY inode ASC`, table),
		parentID)
	if err != nil {
		return nil, fmt.Errorf("querying children: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var r FileRow
		if err := rows.Scan(&r.Inode, &r.ID, &r.ParentID, &r.Dirname, &r.Basename, &r.Path, &r.FileSize,
			&r.Atime, &r.Ctime, &r.Mtime, &r.IsDir, &r.IsLink, &r.TargetID, &r.TargetPath, &r.MD5); err != nil {
			return nil, fmt.Errorf("scanning child row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetFileByID returns the materialized row whose remote id is id, or
// apperrors.NotFound. Used to resolve a shortcut's target_id to the row it
// points at, since a placeholder row (empty id) can never be a target.
func (s *Store) GetFileByID(id string, bin bool) (FileRow, error) {
	table := tableName(bin)
	row := s.db.QueryRow(fmt.Sprintf(`SELECT inode, COALESCE(id,''), parent_id, dirname, basename,
		path, file_size, atime, ctime, mtime, is_dir, is_link, COALESCE(target_id,''),
		COALESCE(target_path,''), COALESCE(md5,'') FROM %s WHERE id = ?`, table), id)
	return scanFileRow(row)
}

// DeleteFile removes the row with the given inode from files or bin.
func (s *Store) DeleteFile(inode int64, bin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE inode = ?`, tableName(bin)), inode)
	if err != nil {
		return fmt.Errorf("deleting file row: %w", err)
	}
	return nil
}

// Lock exposes the store's write mutex. Store's write methods take the
// same non-reentrant mutex themselves, so a caller holding Lock cannot call
// them; the Facade does not use Lock.
func (s *Store) Lock()   { s.mu.Lock() }
func (s *Store) Unlock() { s.mu.Unlock() }
