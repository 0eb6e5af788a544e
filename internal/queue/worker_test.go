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

package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bananaloaf/drivefuse/internal/clock"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, createResponse string) (*Worker, *store.Store) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(createResponse))
	}))
	t.Cleanup(srv.Close)

	client, err := driveapi.NewFromHTTPClient(context.Background(), srv.Client())
	require.NoError(t, err)
	client.SetBasePathForTesting(srv.URL)

	dbPath := filepath.Join(t.TempDir(), "data.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	w := New(client, st, clock.RealClock{}, slog.Default())
	return w, st
}

func TestHandleMkdirReconcilesPlaceholder(t *testing.T) {
	w, st := newTestWorker(t, `{"id":"new-folder-id"}`)

	placeholder := store.FileRow{ParentID: store.RootID, Dirname: "/", Basename: "NewDir", Path: "/NewDir", IsDir: true}
	inode, err := st.PutFile(placeholder, false)
	require.NoError(t, err)

	payload, err := json.Marshal(mkdirPayload{Dirname: "/", Name: "NewDir"})
	require.NoError(t, err)

	_, err = st.EnqueueRequest("mkdir", string(payload))
	require.NoError(t, err)

	drained, err := w.drainOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, drained)

	row, err := st.GetFile(store.FileLookup{Inode: inode}, false)
	require.NoError(t, err)
	assert.False(t, row.IsPlaceholder())
	assert.Equal(t, "new-folder-id", row.ID)

	reqs, err := st.ListRequests()
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestDrainOnceDropsRequestAfterMaxAttempts(t *testing.T) {
	w, st := newTestWorker(t, `not json`)

	payload, err := json.Marshal(mkdirPayload{Dirname: "/", Name: "X"})
	require.NoError(t, err)
	_, err = st.EnqueueRequest("mkdir", string(payload))
	require.NoError(t, err)

	for i := 0; i < MaxAttempts; i++ {
		_, err := w.drainOnce(context.Background())
		require.NoError(t, err)
	}

	reqs, err := st.ListRequests()
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestLookupByPathWalksComponents(t *testing.T) {
	_, st := newTestWorker(t, `{}`)

	folder := store.FileRow{ParentID: store.RootID, Dirname: "/", Basename: "A", Path: "/A", IsDir: true}
	_, err := st.PutFile(folder, false)
	require.NoError(t, err)

	row, err := lookupByPath(st, "/A")
	require.NoError(t, err)
	assert.Equal(t, "A", row.Basename)
}
