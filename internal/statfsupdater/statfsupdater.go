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

// Package statfsupdater is the Statfs Updater: a background task that
// polls the remote account's storage quota on a timer and caches the
// result as a StatvfsData snapshot for the Facade's statfs op (spec §4.8).
package statfsupdater

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bananaloaf/drivefuse/internal/clock"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
)

// blockSize is the fixed block size used to translate byte quotas into the
// block/fragment counts statfs(2) reports (spec §4.8).
const blockSize = 512

// StatvfsData is the subset of struct statvfs the Facade populates.
type StatvfsData struct {
	Bsize   uint32
	Frsize  uint32
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Favail  uint64
	Namemax uint32
}

// RefreshPeriod is the default poll interval (spec §4.8's "e.g. every 60s").
const RefreshPeriod = 60 * time.Second

// Updater polls client.About() on a timer and exposes the latest snapshot
// via Snapshot, safe for concurrent readers on the Facade's op goroutines.
type Updater struct {
	client *driveapi.Client
	clock  clock.Clock
	log    *slog.Logger
	period time.Duration

	snapshot atomic.Value // StatvfsData
}

// New returns an Updater whose snapshot holds only the block size and name
// limit (all block and inode counts zero) until the first successful poll
// completes.
func New(client *driveapi.Client, clk clock.Clock, log *slog.Logger) *Updater {
	u := &Updater{client: client, clock: clk, log: log, period: RefreshPeriod}
	u.snapshot.Store(StatvfsData{Bsize: blockSize, Frsize: blockSize, Namemax: 32767})
	return u
}

// SetPeriod overrides the poll interval; it must be called before Run.
func (u *Updater) SetPeriod(d time.Duration) {
	if d > 0 {
		u.period = d
	}
}

// Snapshot returns the most recently polled StatvfsData.
func (u *Updater) Snapshot() StatvfsData {
	return u.snapshot.Load().(StatvfsData)
}

// Run polls once immediately, then on every tick of u.period, until ctx is
// cancelled.
func (u *Updater) Run(ctx context.Context) {
	u.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.clock.After(u.period):
			u.poll(ctx)
		}
	}
}

func (u *Updater) poll(ctx context.Context) {
	q, err := u.client.About(ctx)
	if err != nil {
		u.log.Warn("statfs poll failed, keeping stale snapshot", "error", err)
		return
	}

	free := q.Limit - q.Usage
	if free < 0 {
		free = 0
	}

	data := StatvfsData{
		Bsize:   blockSize,
		Frsize:  blockSize,
		Blocks:  uint64(q.Limit) / blockSize,
		Bfree:   uint64(free) / blockSize,
		Bavail:  uint64(free) / blockSize,
		Namemax: 32767,
	}
	u.snapshot.Store(data)
}
