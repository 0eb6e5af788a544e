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

// Package store is the Metadata Store: a single embedded SQLite database
// mirroring the remote namespace (drive_files), materializing it into a
// live tree and a trash tree (files, bin), and holding the durable
// request_queue that survives a crashed mount. All writes serialize
// through a single mutex; reads do not take the mutex but share the single
// database connection Open configures, so SQLite runs them one at a time.
package store

// Known mime-type sentinels from the remote object model.
const (
	FolderMimeType    = "application/vnd.google-apps.folder"
	ShortcutMimeType  = "application/vnd.google-apps.shortcut"
	googleAppMimeTag  = "application/vnd.google-apps."
)

// IsFolderMime reports whether m marks a remote object as a folder.
func IsFolderMime(m string) bool { return m == FolderMimeType }

// IsShortcutMime reports whether m marks a remote object as a shortcut.
func IsShortcutMime(m string) bool { return m == ShortcutMimeType }

// IsVirtualAppMime reports whether m marks a remote object as a
// non-downloadable Google-native document (Docs, Sheets, Slides, ...).
func IsVirtualAppMime(m string) bool {
	if len(m) <= len(googleAppMimeTag) {
		return false
	}
	return m[:len(googleAppMimeTag)] == googleAppMimeTag && !IsFolderMime(m) && !IsShortcutMime(m)
}

// DriveFile mirrors a single remote object, as described by spec §3.1.
type DriveFile struct {
	ID       string
	ParentID string // empty means orphan; re-parented to RootID at ingestion
	Name     string
	Size     int64
	Atime    int64
	Ctime    int64
	Mtime    int64
	MimeType string
	TargetID string
	Trashed  bool
	MD5      string // empty for folders/shortcuts/virtual-apps
}

// FileRow is a materialized row of either the live tree (files) or the
// trash tree (bin), as described by spec §3.2.
type FileRow struct {
	Inode      int64
	ID         string // empty means this is a placeholder row
	ParentID   string
	Dirname    string
	Basename   string
	Path       string
	FileSize   int64
	Atime      int64
	Ctime      int64
	Mtime      int64
	IsDir      bool
	IsLink     bool
	TargetID   string
	TargetPath string
	MD5        string
}

// IsPlaceholder reports whether row was created optimistically by a
// mutating Facade call and is still awaiting Request Queue Worker
// reconciliation.
func (r *FileRow) IsPlaceholder() bool { return r.ID == "" }

// RequestRow is a pending row in request_queue (spec §3.4).
type RequestRow struct {
	Seq      int64
	Type     string
	Payload  string // JSON-encoded argument record
	Attempts int
}

// RootInode is the kernel-visible inode of the mountpoint root, reserved
// per spec §3.3 scheme (a).
const RootInode int64 = rootInode

// RootID is the well-known drive_files/files/bin id used for the root row
// and as the re-parent target for orphaned objects.
const RootID = "__ROOT__"
