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

package driveapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewFromHTTPClient(context.Background(), srv.Client())
	require.NoError(t, err)
	c.SetBasePathForTesting(srv.URL)
	return c, srv
}

func TestGetRootIDReturnsID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "root-object-id"})
	})

	id, err := c.GetRootID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root-object-id", id)
}

func TestGetByIDWrapsNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 404, "message": "File not found"},
		})
	})

	_, err := c.GetByID(context.Background(), "missing")
	require.Error(t, err)
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 429, "message": "rate limited"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "eventually-ok"})
	})

	id, err := c.GetRootID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eventually-ok", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "bad request"},
		})
	})

	_, err := c.GetRootID(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIsTransientClassifiesStatusCodes(t *testing.T) {
	assert.True(t, isTransient(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, isTransient(&googleapi.Error{Code: http.StatusInternalServerError}))
	assert.False(t, isTransient(&googleapi.Error{Code: http.StatusBadRequest}))
	assert.True(t, isTransient(assert.AnError))
}
