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

// Package creds is the Credential Store collaborator from spec §6.1: a
// key-value interface keyed by (service_name, profile_name), holding the
// opaque credentials.json blob the Remote Client parses.
package creds

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
)

// Key identifies one stored credentials blob.
type Key struct {
	ServiceName string
	ProfileName string
}

func (k Key) String() string { return k.ServiceName + "/" + k.ProfileName }

// Store is the key-value interface the core consumes; both a file-backed
// and an in-memory implementation satisfy it.
type Store interface {
	Get(k Key) ([]byte, error)
	Put(k Key, value []byte) error
	Delete(k Key) error
}

// MemStore is an in-memory Store, used by tests and by profile creation
// flows that haven't yet decided on a backing file.
type MemStore struct {
	mu     sync.Mutex
	values map[Key][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: map[Key][]byte{}}
}

func (m *MemStore) Get(k Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[k]
	if !ok {
		return nil, apperrors.Newf(apperrors.NotFound, "no credentials for %s", k)
	}
	return v, nil
}

func (m *MemStore) Put(k Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[k] = value
	return nil
}

func (m *MemStore) Delete(k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, k)
	return nil
}

// FileStore persists a single profile's credentials to
// <profile_dir>/credentials.json (spec §6.2's on-disk layout). The Key is
// not used to choose storage, since each profile directory already scopes
// storage to one profile; it only appears in the not-found error message.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore rooted at profileDir.
func NewFileStore(profileDir string) *FileStore {
	return &FileStore{path: filepath.Join(profileDir, "credentials.json")}
}

func (f *FileStore) Get(k Key) ([]byte, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, apperrors.Newf(apperrors.NotFound, "no credentials file for %s", k)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return b, nil
}

func (f *FileStore) Put(k Key, value []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}
	if err := os.WriteFile(f.path, value, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(k Key) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}
