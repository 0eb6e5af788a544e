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

// dropAndCreateMirror is executed on every Open: drive_files, files, and bin
// do not need to survive a crash (they are reconstructed by the Sync/Lister
// from the remote), so they are dropped and recreated fresh. request_queue
// is intentionally absent from this statement; see createQueueIfNotExists.
const dropAndCreateMirror = `
DROP TABLE IF EXISTS drive_files;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS bin;

CREATE TABLE drive_files (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT,
	name       TEXT NOT NULL,
	size       INTEGER NOT NULL DEFAULT 0,
	atime      INTEGER NOT NULL DEFAULT 0,
	ctime      INTEGER NOT NULL DEFAULT 0,
	mtime      INTEGER NOT NULL DEFAULT 0,
	mime_type  TEXT NOT NULL DEFAULT '',
	target_id  TEXT,
	trashed    INTEGER NOT NULL DEFAULT 0,
	md5        TEXT
);
CREATE INDEX drive_files_parent_id_idx ON drive_files (parent_id);
CREATE INDEX drive_files_name_idx ON drive_files (name);

CREATE TABLE files (
	inode       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT,
	parent_id   TEXT,
	dirname     TEXT NOT NULL,
	basename    TEXT NOT NULL,
	path        TEXT NOT NULL UNIQUE,
	file_size   INTEGER NOT NULL DEFAULT 0,
	atime       INTEGER NOT NULL DEFAULT 0,
	ctime       INTEGER NOT NULL DEFAULT 0,
	mtime       INTEGER NOT NULL DEFAULT 0,
	is_dir      INTEGER NOT NULL DEFAULT 0,
	is_link     INTEGER NOT NULL DEFAULT 0,
	target_id   TEXT,
	target_path TEXT,
	md5         TEXT
);
CREATE INDEX files_parent_id_idx ON files (parent_id);
CREATE INDEX files_id_idx ON files (id);

CREATE TABLE bin (
	inode       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT,
	parent_id   TEXT,
	dirname     TEXT NOT NULL,
	basename    TEXT NOT NULL,
	path        TEXT NOT NULL UNIQUE,
	file_size   INTEGER NOT NULL DEFAULT 0,
	atime       INTEGER NOT NULL DEFAULT 0,
	ctime       INTEGER NOT NULL DEFAULT 0,
	mtime       INTEGER NOT NULL DEFAULT 0,
	is_dir      INTEGER NOT NULL DEFAULT 0,
	is_link     INTEGER NOT NULL DEFAULT 0,
	target_id   TEXT,
	target_path TEXT,
	md5         TEXT
);
CREATE INDEX bin_parent_id_idx ON bin (parent_id);
CREATE INDEX bin_id_idx ON bin (id);
`

// createQueueIfNotExists is run separately from dropAndCreateMirror because
// request_queue must survive across mounts so a crashed mkdir can be
// retried on the next one.
const createQueueIfNotExists = `
CREATE TABLE IF NOT EXISTS request_queue (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	type     TEXT NOT NULL,
	payload  TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0
);
`

// rootInode is the kernel-visible inode assigned to the well-known root row
// inserted by Open. It is stable for the lifetime of a mount because Open
// inserts the root row with this inode explicitly, before any other row.
const rootInode = 1
