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

// Package syncer is the Sync/Lister: it pulls the remote namespace into
// the Metadata Store's drive_files mirror and materializes it into the
// live tree, using the round-based fixed-point ingestion described in
// spec §4.5.
package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/bananaloaf/drivefuse/cfg"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/metrics"
	"github.com/bananaloaf/drivefuse/internal/store"
	"google.golang.org/api/drive/v3"
)

// Syncer pulls and materializes the remote namespace against a Store,
// using client to talk to the remote.
type Syncer struct {
	client *driveapi.Client
	store  *store.Store
	trash  bool // whether this Syncer materializes the trash view (spec §6.2)
	m      *metrics.Metrics
	rootID string // remote-resolved root id, learned by RecursiveListRoot
}

// SetMetrics attaches a metrics sink; nil (the New default) disables
// instrumentation.
func (s *Syncer) SetMetrics(m *metrics.Metrics) { s.m = m }

// New returns a Syncer. trash selects which materialized tree
// (files vs bin) ingestion writes into, mirroring cfg.IsTrashView.
func New(client *driveapi.Client, st *store.Store, trash bool) *Syncer {
	return &Syncer{client: client, store: st, trash: trash}
}

// RecursiveListRoot performs the initial crawl (spec §4.5 item 1-4): fetch
// root, list every owned object of the requested trashed-ness, then
// materialize folders before non-folders in fixed-point rounds so every
// child is inserted only after its parent's path is known.
func (s *Syncer) RecursiveListRoot(ctx context.Context) error {
	rootID, err := s.client.GetRootID(ctx)
	if err != nil {
		return fmt.Errorf("fetching root: %w", err)
	}
	// Store.Open already seeds the well-known root row in both files and
	// bin; only drive_files needs an explicit entry so path-composing
	// lookups (MaterializeFromDriveFile) can resolve it as a parent.
	root := store.DriveFile{ID: store.RootID, Name: "", MimeType: store.FolderMimeType}
	if err := s.store.PutDriveFile(root); err != nil {
		return fmt.Errorf("inserting root drive_file: %w", err)
	}

	s.rootID = rootID

	query := fmt.Sprintf("'me' in owners and trashed=%t", s.trash)
	all, err := s.listAllPages(ctx, query)
	if err != nil {
		return err
	}

	return s.ingest(all)
}

// RecursiveListAny refreshes the subtree rooted at parentID (spec §4.5's
// "subtree refresh"), using the same fixed-point algorithm seeded with a
// single parent.
func (s *Syncer) RecursiveListAny(ctx context.Context, parentID string) error {
	query := fmt.Sprintf("'%s' in parents and trashed=%t", parentID, s.trash)
	all, err := s.listAllPages(ctx, query)
	if err != nil {
		return err
	}
	return s.ingest(all)
}

// RefreshParents refreshes several subtrees in one pass, batching
// parentIDs into ≤cfg.IngestBatchSize-wide "or"-disjunction queries to stay
// under the remote's query-length limit (spec §4.5).
func (s *Syncer) RefreshParents(ctx context.Context, parentIDs []string) error {
	for _, chunk := range chunkParentIDs(parentIDs) {
		query := orDisjunction(chunk, s.trash)
		all, err := s.listAllPages(ctx, query)
		if err != nil {
			return err
		}
		if err := s.ingest(all); err != nil {
			return err
		}
	}
	return nil
}

func orDisjunction(parentIDs []string, trashed bool) string {
	query := ""
	for i, id := range parentIDs {
		if i > 0 {
			query += " or "
		}
		query += fmt.Sprintf("'%s' in parents", id)
	}
	return fmt.Sprintf("(%s) and trashed=%t", query, trashed)
}

func (s *Syncer) listAllPages(ctx context.Context, query string) ([]*drive.File, error) {
	var all []*drive.File
	pageToken := ""
	for {
		items, next, err := s.client.ListFiles(ctx, query, pageToken)
		if err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}
		all = append(all, items...)
		if next == "" {
			break
		}
		pageToken = next
	}
	return all, nil
}

// ingest runs the re-parent-to-root + fixed-point folder/non-folder
// partitioning described in spec §4.5 item 3-4, then persists every object
// to drive_files and materializes it.
func (s *Syncer) ingest(all []*drive.File) error {
	s.m.RecordSyncRound()
	xs := make([]store.DriveFile, 0, len(all))
	for _, f := range all {
		x := toDriveFile(f)
		// The remote reports root-level parents as the real resolved root
		// object id, never the local sentinel; normalize it here so the
		// fixed-point rounds below can recognize root-level folders as
		// ready in round 1 instead of treating every one of them as
		// parentless and re-parenting the whole tree flat under root.
		if s.rootID != "" && x.ParentID == s.rootID {
			x.ParentID = store.RootID
		}
		xs = append(xs, x)
	}

	if err := s.store.PutDriveFiles(xs); err != nil {
		return fmt.Errorf("persisting drive_files: %w", err)
	}

	var folders, nonFolders []store.DriveFile
	for _, x := range xs {
		if store.IsFolderMime(x.MimeType) {
			folders = append(folders, x)
		} else {
			nonFolders = append(nonFolders, x)
		}
	}
	// Duplicate-basename disambiguation (spec §3 item 1) assigns its " (N)"
	// suffixes by ascending drive_files.id order, so materialization must
	// walk both slices in that order regardless of the order the remote
	// returned them in.
	sort.Slice(folders, func(i, j int) bool { return folders[i].ID < folders[j].ID })
	sort.Slice(nonFolders, func(i, j int) bool { return nonFolders[i].ID < nonFolders[j].ID })

	inserted := map[string]bool{store.RootID: true}
	remaining := folders
	for len(remaining) > 0 {
		var ready, next []store.DriveFile
		for _, f := range remaining {
			if inserted[f.ParentID] {
				ready = append(ready, f)
			} else {
				next = append(next, f)
			}
		}
		if len(ready) == 0 {
			// No round progress: whatever is left has an uninserted (or
			// missing) parent and is re-parented to root per spec §4.5.
			for i := range next {
				next[i].ParentID = store.RootID
			}
			ready = next
			next = nil
		}
		for _, f := range ready {
			if _, err := s.store.MaterializeFromDriveFile(f, s.trash); err != nil {
				return fmt.Errorf("materializing folder %s: %w", f.ID, err)
			}
			inserted[f.ID] = true
		}
		remaining = next
	}

	for _, f := range nonFolders {
		if !inserted[f.ParentID] {
			f.ParentID = store.RootID
		}
		if _, err := s.store.MaterializeFromDriveFile(f, s.trash); err != nil {
			return fmt.Errorf("materializing file %s: %w", f.ID, err)
		}
	}

	return nil
}

func toDriveFile(f *drive.File) store.DriveFile {
	parentID := ""
	if len(f.Parents) > 0 {
		parentID = f.Parents[0]
	}
	targetID := ""
	if f.ShortcutDetails != nil {
		targetID = f.ShortcutDetails.TargetId
	}
	return store.DriveFile{
		ID:       f.Id,
		ParentID: parentID,
		Name:     f.Name,
		Size:     f.Size,
		MimeType: f.MimeType,
		TargetID: targetID,
		Trashed:  f.Trashed,
		MD5:      f.Md5Checksum,
	}
}

// chunkParentIDs splits ids into groups of at most cfg.IngestBatchSize, the
// remote query-length bound spec §4.5 names for subtree-refresh batching.
func chunkParentIDs(ids []string) [][]string {
	var chunks [][]string
	for len(ids) > cfg.IngestBatchSize {
		chunks = append(chunks, ids[:cfg.IngestBatchSize])
		ids = ids[cfg.IngestBatchSize:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
