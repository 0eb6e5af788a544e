// Copyright 2024 Google LLC
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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bananaloaf/drivefuse/cfg"
	"github.com/bananaloaf/drivefuse/internal/cache"
	"github.com/bananaloaf/drivefuse/internal/clock"
	"github.com/bananaloaf/drivefuse/internal/creds"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/fsops"
	"github.com/bananaloaf/drivefuse/internal/logging"
	"github.com/bananaloaf/drivefuse/internal/metrics"
	"github.com/bananaloaf/drivefuse/internal/queue"
	"github.com/bananaloaf/drivefuse/internal/statfsupdater"
	"github.com/bananaloaf/drivefuse/internal/store"
	"github.com/bananaloaf/drivefuse/internal/syncer"
	"github.com/jacobsa/fuse"
	"github.com/prometheus/client_golang/prometheus"
)

// runMount wires together every collaborator spec §4 names — Credential
// Store, Remote Client, Metadata Store, Cache Manager, Sync/Lister,
// Request Queue Worker, Statfs Updater, Filesystem Operations Facade —
// and mounts the result at mountPoint, blocking until it is unmounted or
// ctx is cancelled, mirroring the shape of the teacher's own
// mountWithStorageHandle.
func runMount(ctx context.Context, profile, mountPoint string, c *cfg.Config) (err error) {
	log := logging.New(c.Logging)

	if err = os.MkdirAll(string(c.Mount.ProfileDir), 0o700); err != nil {
		return fmt.Errorf("creating profile directory %q: %w", c.Mount.ProfileDir, err)
	}

	credentialsJSON, err := loadCredentials(c, profile)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	client, err := driveapi.LoadCredentials(ctx, credentialsJSON)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dbPath := filepath.Join(string(c.Mount.ProfileDir), "metadata.db")
	log.Info("opening metadata store", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer st.Close()

	cm, err := cache.New(string(c.Cache.CacheDir), client)
	if err != nil {
		return fmt.Errorf("opening content cache: %w", err)
	}
	cm.SetMetrics(m)

	sy := syncer.New(client, st, c.Mount.Trash)
	sy.SetMetrics(m)

	log.Info("performing initial sync...")
	if err = sy.RecursiveListRoot(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	clk := clock.RealClock{}

	worker := queue.New(client, st, clk, log)
	worker.SetMetrics(m)
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go worker.Run(workerCtx)

	sf := statfsupdater.New(client, clk, log)
	if d, perr := time.ParseDuration(c.Cache.StatfsRefreshPeriod); perr == nil {
		sf.SetPeriod(d)
	}
	statfsCtx, cancelStatfs := context.WithCancel(ctx)
	defer cancelStatfs()
	go sf.Run(statfsCtx)

	fileSystem := fsops.New(st, cm, client, sy, sf, c, log, c.Mount.Trash)

	fsName := fsName(profile)
	log.Info("creating fuse server...")
	server := fileSystem.Server()

	log.Info("mounting file system", "fsname", fsName, "mountpoint", mountPoint)
	mountCfg := getFuseMountConfig(fsName)
	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	log.Info("mounted", "mountpoint", mountPoint)
	return mfs.Join(ctx)
}

// loadCredentials resolves the credentials.json blob for profile: the
// profile-scoped Credential Store first, falling back to
// Mount.CredentialsFile for a first-run import (spec §6.1).
func loadCredentials(c *cfg.Config, profile string) ([]byte, error) {
	credStore := creds.NewFileStore(string(c.Mount.ProfileDir))
	key := creds.Key{ServiceName: c.AppName, ProfileName: profile}

	blob, err := credStore.Get(key)
	if err == nil {
		return blob, nil
	}

	raw, rerr := os.ReadFile(string(c.Mount.CredentialsFile))
	if rerr != nil {
		return nil, err
	}
	if perr := credStore.Put(key, raw); perr != nil {
		return nil, perr
	}
	return raw, nil
}

func fsName(profile string) string {
	if profile == "" {
		return "drivefuse"
	}
	return "drivefuse:" + profile
}

// getFuseMountConfig builds the jacobsa/fuse MountConfig, following the
// teacher's own getFuseMountConfig (a subset of its fields, fixed rather
// than flag-derived options since this mount exposes no -o passthrough
// flag; DisableWritebackCaching and EnableReaddirplus are left unset).
func getFuseMountConfig(fsName string) *fuse.MountConfig {
	return &fuse.MountConfig{
		FSName:     fsName,
		Subtype:    "drivefuse",
		VolumeName: "drivefuse",
		// Reads never mutate backing state, and writes are always
		// rejected EROFS, so parallel dir ops carry none of the races
		// the teacher's own comment warns about for a writable mount.
		EnableParallelDirOps: true,
		// ReadDirPlus support is a later addition to this Facade's
		// thin stub (fsops.ReadDirPlus); left at its default off.
	}
}
