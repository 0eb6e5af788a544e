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
	"time"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
	"github.com/bananaloaf/drivefuse/internal/clock"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/metrics"
	"github.com/bananaloaf/drivefuse/internal/store"
)

// DrainPeriod is the sleep between drains of an empty queue (spec §4.6's
// "sleep T (≈1s)").
const DrainPeriod = time.Second

// MaxAttempts bounds retries of a single request before it is surfaced as a
// permanent failure and dropped (spec §4.6's "configurable max-attempts").
const MaxAttempts = 5

// Handler executes one request_queue entry's payload against the remote
// and the store, returning an error to leave the row for retry.
type Handler func(ctx context.Context, client *driveapi.Client, st *store.Store, payload string) error

// Worker is the Request Queue Worker: a single long-lived loop draining
// store's request_queue in FIFO order (spec §4.6).
type Worker struct {
	client   *driveapi.Client
	store    *store.Store
	clock    clock.Clock
	handlers map[string]Handler
	log      *slog.Logger
	m        *metrics.Metrics
}

// SetMetrics attaches a metrics sink; nil (the New default) disables
// instrumentation.
func (w *Worker) SetMetrics(m *metrics.Metrics) { w.m = m }

// New returns a Worker wired with the default dispatch table: mkdir is
// fully implemented; rename/unlink/rmdir/upload/mkshortcut are registered
// as NotImplemented stubs per spec §4.6's "future request types" note,
// since those mutations are issued synchronously by the Facade instead
// (spec §4.7) and only ever reach the queue if a future caller enqueues
// them directly.
func New(client *driveapi.Client, st *store.Store, clk clock.Clock, log *slog.Logger) *Worker {
	w := &Worker{client: client, store: st, clock: clk, handlers: map[string]Handler{}, log: log}
	w.Register("mkdir", handleMkdir)
	for _, typ := range []string{"rename", "unlink", "rmdir", "upload", "mkshortcut"} {
		w.Register(typ, handleNotImplemented)
	}
	return w
}

// Register installs (or replaces) the handler for a request type.
func (w *Worker) Register(typ string, h Handler) {
	w.handlers[typ] = h
}

// Run drains the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		drained, err := w.drainOnce(ctx)
		if err != nil {
			w.log.Error("request queue drain failed", "error", err)
		}
		if drained {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(DrainPeriod):
		}
	}
}

// drainOnce processes every currently-queued request once, returning
// drained=true if at least one row was removed (success or permanent
// failure), so Run can immediately re-poll instead of sleeping.
func (w *Worker) drainOnce(ctx context.Context) (bool, error) {
	reqs, err := w.store.ListRequests()
	if err != nil {
		return false, err
	}
	w.m.SetQueueDepth(len(reqs))

	drained := false
	for _, req := range reqs {
		h, ok := w.handlers[req.Type]
		if !ok {
			h = handleNotImplemented
		}

		err := h(ctx, w.client, w.store, req.Payload)
		if err == nil {
			if derr := w.store.DequeueRequest(req.Seq); derr != nil {
				return drained, derr
			}
			drained = true
			continue
		}

		if req.Attempts+1 >= MaxAttempts {
			w.log.Error("request exceeded max attempts, dropping",
				"type", req.Type, "seq", req.Seq, "error", err)
			if derr := w.store.DequeueRequest(req.Seq); derr != nil {
				return drained, derr
			}
			drained = true
			continue
		}

		w.log.Warn("request failed, will retry", "type", req.Type, "seq", req.Seq, "error", err)
		if merr := w.store.MarkRequestAttempt(req.Seq); merr != nil {
			return drained, merr
		}
	}
	return drained, nil
}

type mkdirPayload struct {
	Dirname string `json:"dirname"`
	Name    string `json:"name"`
}

// handleMkdir resolves the parent by path, creates the remote folder, and
// re-materializes the placeholder row now that a real id exists (spec
// §4.6's mkdir(dirname, name) contract).
func handleMkdir(ctx context.Context, client *driveapi.Client, st *store.Store, payload string) error {
	var p mkdirPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return apperrors.Newf(apperrors.SchemaError, "decoding mkdir payload: %v", err)
	}

	parent, err := lookupByPath(st, p.Dirname)
	if err != nil {
		return err
	}

	placeholder, err := st.GetFile(store.FileLookup{ParentInode: parent.Inode, Name: p.Name}, false)
	if err != nil {
		return err
	}
	if !placeholder.IsPlaceholder() {
		// Already reconciled by a previous, since-crashed attempt.
		return nil
	}

	created, err := client.CreateFolder(ctx, parent.ID, p.Name)
	if err != nil {
		return err
	}

	x := store.DriveFile{ID: created.Id, ParentID: parent.ID, Name: p.Name, MimeType: store.FolderMimeType}
	if err := st.PutDriveFile(x); err != nil {
		return err
	}

	placeholder.ID = created.Id
	_, err = st.PutFile(placeholder, false)
	return err
}

func handleNotImplemented(ctx context.Context, client *driveapi.Client, st *store.Store, payload string) error {
	return apperrors.New(apperrors.Ignored, "request type not implemented")
}

// lookupByPath walks path component by component from root, since
// request_queue payloads reference paths rather than inodes (the inode a
// placeholder was created under may itself still be unreconciled at
// enqueue time).
func lookupByPath(st *store.Store, p string) (store.FileRow, error) {
	row, err := st.GetFile(store.FileLookup{Inode: store.RootInode}, false)
	if err != nil {
		return store.FileRow{}, err
	}
	if p == "" || p == "/" {
		return row, nil
	}

	for _, part := range splitPath(p) {
		row, err = st.GetFile(store.FileLookup{ParentInode: row.Inode, Name: part}, false)
		if err != nil {
			return store.FileRow{}, err
		}
	}
	return row, nil
}

func splitPath(p string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				parts = append(parts, p[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
