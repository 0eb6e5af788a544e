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

package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFile struct {
	Id       string   `json:"id"`
	Parents  []string `json:"parents,omitempty"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
}

func newFakeDriveServer(t *testing.T, files []fakeFile) *driveapi.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/drive/v3/files/root", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "root-id"})
	})
	mux.HandleFunc("/drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"files": files})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := driveapi.NewFromHTTPClient(context.Background(), srv.Client())
	require.NoError(t, err)
	client.SetBasePathForTesting(srv.URL)
	return client
}

func TestRecursiveListRootOrdersFoldersBeforeChildren(t *testing.T) {
	client := newFakeDriveServer(t, []fakeFile{
		{Id: "folderA", Parents: []string{"root-id"}, Name: "A", MimeType: store.FolderMimeType},
		{Id: "file1", Parents: []string{"folderA"}, Name: "one.txt", MimeType: "text/plain"},
		{Id: "folderB", Parents: []string{"folderA"}, Name: "B", MimeType: store.FolderMimeType},
		{Id: "file2", Parents: []string{"folderB"}, Name: "two.txt", MimeType: "text/plain"},
	})

	dbPath := filepath.Join(t.TempDir(), "data.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := New(client, st, false)
	require.NoError(t, s.RecursiveListRoot(context.Background()))

	row, err := st.GetFile(store.FileLookup{ParentInode: store.RootInode, Name: "A"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/A", row.Path)

	children, err := st.GetFiles("folderA", false)
	require.NoError(t, err)
	require.Len(t, children, 2)

	deep, err := st.GetFile(store.FileLookup{ParentInode: row.Inode, Name: "B"}, false)
	require.NoError(t, err)
	leaf, err := st.GetFile(store.FileLookup{ParentInode: deep.Inode, Name: "two.txt"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/A/B/two.txt", leaf.Path)
}

func TestIngestReparentsOrphansToRoot(t *testing.T) {
	client := newFakeDriveServer(t, []fakeFile{
		{Id: "orphan", Parents: []string{"missing-parent"}, Name: "orphan.txt", MimeType: "text/plain"},
	})

	dbPath := filepath.Join(t.TempDir(), "data.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := New(client, st, false)
	require.NoError(t, s.RecursiveListRoot(context.Background()))

	row, err := st.GetFile(store.FileLookup{ParentInode: store.RootInode, Name: "orphan.txt"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/orphan.txt", row.Path)
}

func TestOrDisjunctionBuildsBoundedQuery(t *testing.T) {
	q := orDisjunction([]string{"a", "b"}, true)
	assert.True(t, strings.Contains(q, "'a' in parents or 'b' in parents"))
	assert.True(t, strings.Contains(q, "trashed=true"))
}

func TestChunkParentIDsRespectsIngestBatchSize(t *testing.T) {
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = "id"
	}
	chunks := chunkParentIDs(ids)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[2], 20)
}
