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

// Package cache is the Cache Manager: a content-addressed local directory,
// file name equal to the MD5 hex digest of its content (spec §4.4). Staging
// writes land in a "<md5>.part" sibling, matching the gcsfuse lease
// package's own write-then-rename-then-chmod idiom for local temp files.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/metrics"
)

// maxDownloadAttempts bounds the integrity-mismatch retry loop in Download.
const maxDownloadAttempts = 3

// Manager owns the on-disk cache directory and serializes downloads through
// a single process-wide lock (spec §4.4's recommended, simpler alternative
// to a per-md5 lock table).
type Manager struct {
	dir    string
	client *driveapi.Client
	m      *metrics.Metrics

	downloadMu sync.Mutex
}

// New creates (if necessary) dir and returns a Manager backed by it.
func New(dir string, client *driveapi.Client) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Manager{dir: dir, client: client}, nil
}

// SetMetrics attaches a metrics sink; nil (the New default) disables
// instrumentation.
func (m *Manager) SetMetrics(metrics *metrics.Metrics) { m.m = metrics }

func (m *Manager) finalPath(key string) string { return filepath.Join(m.dir, key) }
func (m *Manager) partPath(key string) string  { return filepath.Join(m.dir, key+".part") }

// IsCached reports whether key's content is already present with the
// expected size. A size mismatch is treated as "not cached" so a stale or
// truncated entry is re-downloaded rather than served.
func (m *Manager) IsCached(key string, expectedSize int64) bool {
	info, err := os.Stat(m.finalPath(key))
	if err != nil {
		return false
	}
	if expectedSize < 0 {
		return true
	}
	return info.Size() == expectedSize
}

// Path returns key's on-disk path if cached, or apperrors.NotFound.
func (m *Manager) Path(key string) (string, error) {
	p := m.finalPath(key)
	if _, err := os.Stat(p); err != nil {
		return "", apperrors.Newf(apperrors.NotFound, "cache entry %s not present", key)
	}
	return p, nil
}

// Download fetches remote object id (whose content hashes to md5Hex) into
// the cache, retrying on integrity mismatch up to maxDownloadAttempts, and
// returns its final on-disk path. exportMime is empty for ordinary binary
// files; virtual-app documents pass the export mime type instead (spec
// §4.4's CONVERT path), in which case the caller's cache key is normally an
// id-derived string rather than an MD5, since exported documents have none.
func (m *Manager) Download(ctx context.Context, id, key, md5Hex, exportMime string) (string, error) {
	m.downloadMu.Lock()
	defer m.downloadMu.Unlock()

	if exportMime == "" {
		if p, err := m.Path(key); err == nil {
			m.m.RecordCache(true)
			return p, nil
		}
	}
	m.m.RecordCache(false)

	part := m.partPath(key)
	final := m.finalPath(key)

	var lastErr error
	for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
		if err := m.downloadOnce(ctx, id, part, exportMime); err != nil {
			return "", err
		}

		if exportMime == "" && md5Hex != "" {
			sum, err := hashFile(part)
			if err != nil {
				os.Remove(part)
				return "", err
			}
			if sum != md5Hex {
				os.Remove(part)
				lastErr = apperrors.Newf(apperrors.Integrity, "md5 mismatch for %s: want %s got %s", id, md5Hex, sum)
				continue
			}
		}

		if err := os.Rename(part, final); err != nil {
			return "", fmt.Errorf("finalizing cache entry %s: %w", key, err)
		}
		if err := os.Chmod(final, 0o444); err != nil {
			return "", fmt.Errorf("making cache entry %s read-only: %w", key, err)
		}
		return final, nil
	}
	return "", lastErr
}

func (m *Manager) downloadOnce(ctx context.Context, id, partPath, exportMime string) error {
	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening staging file: %w", err)
	}
	defer f.Close()

	if err := m.client.Download(ctx, id, f, exportMime); err != nil {
		return err
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing staging file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing staging file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExportKeyPrefix marks cache entries keyed by object id rather than MD5
// (exported virtual-app documents have no MD5); ValidateAll only verifies
// the name/hash invariant for ordinary, MD5-keyed entries.
const ExportKeyPrefix = "export-"

// ValidateAll walks the cache directory and unlinks any MD5-keyed entry
// whose content does not hash to its own file name, discarding stray
// ".part" files left behind by a crash mid-download.
func (m *Manager) ValidateAll() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("reading cache dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".part" {
			os.Remove(filepath.Join(m.dir, name))
			continue
		}
		if len(name) >= len(ExportKeyPrefix) && name[:len(ExportKeyPrefix)] == ExportKeyPrefix {
			continue
		}
		sum, err := hashFile(filepath.Join(m.dir, name))
		if err != nil || sum != name {
			os.Remove(filepath.Join(m.dir, name))
		}
	}
	return nil
}
