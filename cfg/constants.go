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

package cfg

const (
	// RootID is the well-known drive_files id assigned to the mountpoint
	// root, matching what the remote API itself treats as its root alias.
	RootID = "__ROOT__"

	// DefaultMountDirName is appended to $HOME when no mountpoint is given.
	DefaultMountDirName = "Google Drive"

	// IngestBatchSize bounds how many parent ids may appear in a single
	// disjunctive subtree-refresh query.
	IngestBatchSize = 50
)

const (
	// Default file/dir cache and retry tunables.
	DefaultDownloadMaxRetries = 3
	DefaultRequestMaxAttempts = 5
	DefaultStatfsRefreshSecs  = 60
	DefaultRemoteCallTimeout  = 30 // seconds
)

// IgnoredNames is the fixed set of entries that never surface in readdir
// and are rejected with EIO from lookup/mkdir.
var IgnoredNames = map[string]bool{
	".Trash":            true,
	".Trash-1000":       true,
	"BDMV":              true,
	".xdg-volume-info":  true,
	"autorun.inf":       true,
	".hidden":           true,
	".comments":         true,
	".directory":        true,
}
