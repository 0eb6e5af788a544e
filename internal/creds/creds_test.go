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

package creds

import (
	"path/filepath"
	"testing"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrips(t *testing.T) {
	s := NewMemStore()
	k := Key{ServiceName: "drive", ProfileName: "default"}

	_, err := s.Get(k)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	require.NoError(t, s.Put(k, []byte(`{"token":"x"}`)))
	v, err := s.Get(k)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"x"}`, string(v))

	require.NoError(t, s.Delete(k))
	_, err = s.Get(k)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestFileStoreRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	k := Key{ServiceName: "drive", ProfileName: "default"}

	_, err := s.Get(k)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	require.NoError(t, s.Put(k, []byte(`{"token":"y"}`)))
	v, err := s.Get(k)
	require.NoError(t, err)
	assert.Equal(t, `{"token":"y"}`, string(v))

	_, statErr := filepath.Glob(filepath.Join(dir, "credentials.json"))
	require.NoError(t, statErr)

	require.NoError(t, s.Delete(k))
	_, err = s.Get(k)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}
