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

package fsops

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/bananaloaf/drivefuse/cfg"
	"github.com/bananaloaf/drivefuse/internal/cache"
	"github.com/bananaloaf/drivefuse/internal/clock"
	"github.com/bananaloaf/drivefuse/internal/driveapi"
	"github.com/bananaloaf/drivefuse/internal/statfsupdater"
	"github.com/bananaloaf/drivefuse/internal/store"
	"github.com/bananaloaf/drivefuse/internal/syncer"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFakeDriveServer stands in for the real Drive v3 REST API: it decodes
// whatever drive.File the client's create/update call sent and echoes it
// straight back with an id (generated for a create, taken from the URL
// path for an update), which is all CreateSymlink/Rename/Move
// need from a response to materialize their own row afterward.
func newFakeDriveServer(t *testing.T) *httptest.Server {
	t.Helper()
	var nextID int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		id, ok := body["id"].(string)
		if !ok || id == "" {
			nextID++
			id = "fake-id-" + hex.EncodeToString([]byte{byte(nextID)})
		}
		if strings.Contains(r.URL.Path, "/") {
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			if len(parts) > 0 && parts[len(parts)-1] != "files" && r.Method != http.MethodPost {
				id = parts[len(parts)-1]
			}
		}
		body["id"] = id

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *driveapi.Client {
	t.Helper()
	srv := newFakeDriveServer(t)
	c, err := driveapi.NewFromHTTPClient(context.Background(), srv.Client())
	require.NoError(t, err)
	c.SetBasePathForTesting(srv.URL)
	return c
}

// testFS builds a FileSystem over a fresh, empty Store, a fresh cache
// directory, and a fake Remote Client, mirroring the collaborators
// cmd/mount.go wires together. It returns the cache directory alongside
// the FileSystem so a test can seed a pre-cached entry by MD5-keyed name.
func testFS(t *testing.T) (*FileSystem, string) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := newTestClient(t)

	cacheDir := filepath.Join(t.TempDir(), "cache")
	cm, err := cache.New(cacheDir, client)
	require.NoError(t, err)

	sy := syncer.New(client, st, false)
	sf := statfsupdater.New(client, clock.RealClock{}, discardLogger())

	c := &cfg.Config{
		Mount: cfg.MountConfig{Mountpoint: "/mnt/drive"},
		FileSystem: cfg.FileSystemConfig{
			FileMode: 0o644,
			DirMode:  0o755,
		},
	}

	return New(st, cm, client, sy, sf, c, discardLogger(), false), cacheDir
}

func mustMkDir(t *testing.T, fs *FileSystem, parent fuseops.InodeID, name string) fuseops.ChildInodeEntry {
	t.Helper()
	op := &fuseops.MkDirOp{Parent: parent, Name: name}
	require.NoError(t, fs.MkDir(context.Background(), op))
	return op.Entry
}

func TestLookUpInodeFindsMaterializedChild(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "file-1", ParentID: store.RootID, Name: "report.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(x))
	row, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	op := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(store.RootInode), Name: "report.txt"}
	require.NoError(t, fs.LookUpInode(context.Background(), op))
	assert.Equal(t, fuseops.InodeID(row.Inode), op.Entry.Child)
}

func TestLookUpInodeMissingChildReturnsENOENT(t *testing.T) {
	fs, _ := testFS(t)
	op := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(store.RootInode), Name: "missing"}
	err := fs.LookUpInode(context.Background(), op)
	assert.Equal(t, fuse.ENOENT, err)
}

func TestLookUpInodeRejectsIgnoredName(t *testing.T) {
	fs, _ := testFS(t)
	op := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(store.RootInode), Name: ".Trash"}
	err := fs.LookUpInode(context.Background(), op)
	assert.Equal(t, syscall.EIO, err)
}

func TestGetInodeAttributesReportsDirMode(t *testing.T) {
	fs, _ := testFS(t)
	op := &fuseops.GetInodeAttributesOp{Inode: fuseops.InodeID(store.RootInode)}
	require.NoError(t, fs.GetInodeAttributes(context.Background(), op))
	assert.True(t, op.Attributes.Mode&os.ModeDir != 0)
}

func TestSetInodeAttributesRejectsMutation(t *testing.T) {
	fs, _ := testFS(t)
	size := uint64(5)
	op := &fuseops.SetInodeAttributesOp{Inode: fuseops.InodeID(store.RootInode), Size: &size}
	err := fs.SetInodeAttributes(context.Background(), op)
	assert.Equal(t, syscall.EROFS, err)
}

func TestMkDirCreatesPlaceholderThenRejectsDuplicate(t *testing.T) {
	fs, _ := testFS(t)
	entry := mustMkDir(t, fs, fuseops.InodeID(store.RootInode), "newdir")
	assert.NotZero(t, entry.Child)

	row, err := fs.store.GetFile(store.FileLookup{Inode: int64(entry.Child)}, false)
	require.NoError(t, err)
	assert.True(t, row.IsPlaceholder())
	assert.True(t, row.IsDir)

	op := &fuseops.MkDirOp{Parent: fuseops.InodeID(store.RootInode), Name: "newdir"}
	err = fs.MkDir(context.Background(), op)
	assert.Equal(t, fuse.EEXIST, err)
}

func TestRemoveRejectsPlaceholderWithEAGAIN(t *testing.T) {
	fs, _ := testFS(t)
	mustMkDir(t, fs, fuseops.InodeID(store.RootInode), "pending")

	op := &fuseops.RmDirOp{Parent: fuseops.InodeID(store.RootInode), Name: "pending"}
	err := fs.RmDir(context.Background(), op)
	assert.Equal(t, syscall.EAGAIN, err)
}

func TestRmDirRejectsNonEmptyDirectory(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "dir-1", ParentID: store.RootID, Name: "full", MimeType: store.FolderMimeType}
	require.NoError(t, fs.store.PutDriveFile(x))
	dirRow, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	child := store.DriveFile{ID: "child-1", ParentID: dirRow.ID, Name: "inside.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(child))
	_, err = fs.store.MaterializeFromDriveFile(child, false)
	require.NoError(t, err)

	op := &fuseops.RmDirOp{Parent: fuseops.InodeID(store.RootInode), Name: "full"}
	err = fs.RmDir(context.Background(), op)
	assert.Equal(t, fuse.ENOTEMPTY, err)
}

func TestUnlinkTrashesMaterializedFile(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "file-1", ParentID: store.RootID, Name: "doomed.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(x))
	row, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	op := &fuseops.UnlinkOp{Parent: fuseops.InodeID(store.RootInode), Name: "doomed.txt"}
	require.NoError(t, fs.Unlink(context.Background(), op))

	_, err = fs.store.GetFile(store.FileLookup{Inode: row.Inode}, false)
	assert.Error(t, err)
}

func TestRenameSameParentCallsRenameNotMove(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "file-1", ParentID: store.RootID, Name: "old.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(x))
	_, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	op := &fuseops.RenameOp{
		OldParent: fuseops.InodeID(store.RootInode),
		OldName:   "old.txt",
		NewParent: fuseops.InodeID(store.RootInode),
		NewName:   "new.txt",
	}
	require.NoError(t, fs.Rename(context.Background(), op))

	_, err = fs.store.GetFile(store.FileLookup{ParentInode: store.RootInode, Name: "new.txt"}, false)
	assert.NoError(t, err)
}

func TestRenameRejectsExistingTarget(t *testing.T) {
	fs, _ := testFS(t)
	for _, name := range []string{"a.txt", "b.txt"} {
		x := store.DriveFile{ID: "file-" + name, ParentID: store.RootID, Name: name, MimeType: "text/plain"}
		require.NoError(t, fs.store.PutDriveFile(x))
		_, err := fs.store.MaterializeFromDriveFile(x, false)
		require.NoError(t, err)
	}

	op := &fuseops.RenameOp{
		OldParent: fuseops.InodeID(store.RootInode),
		OldName:   "a.txt",
		NewParent: fuseops.InodeID(store.RootInode),
		NewName:   "b.txt",
	}
	err := fs.Rename(context.Background(), op)
	assert.Equal(t, fuse.EEXIST, err)
}

func TestCreateSymlinkRejectsTargetOutsideMountpoint(t *testing.T) {
	fs, _ := testFS(t)
	op := &fuseops.CreateSymlinkOp{
		Parent: fuseops.InodeID(store.RootInode),
		Name:   "link",
		Target: "/somewhere/else",
	}
	err := fs.CreateSymlink(context.Background(), op)
	assert.Equal(t, syscall.EXDEV, err)
}

func TestCreateSymlinkResolvesMountpointTarget(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "target-1", ParentID: store.RootID, Name: "target.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(x))
	_, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	op := &fuseops.CreateSymlinkOp{
		Parent: fuseops.InodeID(store.RootInode),
		Name:   "link",
		Target: "/mnt/drive/target.txt",
	}
	require.NoError(t, fs.CreateSymlink(context.Background(), op))
	assert.NotZero(t, op.Entry.Child)

	row, err := fs.store.GetFile(store.FileLookup{Inode: int64(op.Entry.Child)}, false)
	require.NoError(t, err)
	assert.True(t, row.IsLink)
	assert.Equal(t, "target-1", row.TargetID)
}

func TestReadSymlinkReportsAbsoluteTargetPath(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "target-1", ParentID: store.RootID, Name: "target.txt", MimeType: "text/plain"}
	require.NoError(t, fs.store.PutDriveFile(x))
	_, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	shortcut := store.DriveFile{
		ID: "link-1", ParentID: store.RootID, Name: "link", MimeType: store.ShortcutMimeType, TargetID: "target-1",
	}
	require.NoError(t, fs.store.PutDriveFile(shortcut))
	linkRow, err := fs.store.MaterializeFromDriveFile(shortcut, false)
	require.NoError(t, err)

	op := &fuseops.ReadSymlinkOp{Inode: fuseops.InodeID(linkRow.Inode)}
	require.NoError(t, fs.ReadSymlink(context.Background(), op))
	assert.Equal(t, "/mnt/drive/target.txt", op.Target)
}

func TestOpenDirReadDirListsChildrenThenExhausts(t *testing.T) {
	fs, _ := testFS(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		x := store.DriveFile{ID: "file-" + name, ParentID: store.RootID, Name: name, MimeType: "text/plain"}
		require.NoError(t, fs.store.PutDriveFile(x))
		_, err := fs.store.MaterializeFromDriveFile(x, false)
		require.NoError(t, err)
	}

	openOp := &fuseops.OpenDirOp{Inode: fuseops.InodeID(store.RootInode)}
	require.NoError(t, fs.OpenDir(context.Background(), openOp))

	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 0, Dst: make([]byte, 4096)}
	require.NoError(t, fs.ReadDir(context.Background(), readOp))
	assert.Greater(t, readOp.BytesRead, 0)

	exhausted := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 3, Dst: make([]byte, 4096)}
	require.NoError(t, fs.ReadDir(context.Background(), exhausted))
	assert.Equal(t, 0, exhausted.BytesRead)

	require.NoError(t, fs.ReleaseDirHandle(context.Background(), &fuseops.ReleaseDirHandleOp{Handle: openOp.Handle}))
}

func TestOpenDirHidesIgnoredNames(t *testing.T) {
	fs, _ := testFS(t)
	x := store.DriveFile{ID: "trash-folder", ParentID: store.RootID, Name: ".Trash", MimeType: store.FolderMimeType}
	require.NoError(t, fs.store.PutDriveFile(x))
	_, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	openOp := &fuseops.OpenDirOp{Inode: fuseops.InodeID(store.RootInode)}
	require.NoError(t, fs.OpenDir(context.Background(), openOp))

	readOp := &fuseops.ReadDirOp{Handle: openOp.Handle, Offset: 0, Dst: make([]byte, 4096)}
	require.NoError(t, fs.ReadDir(context.Background(), readOp))
	assert.Equal(t, 0, readOp.BytesRead)
}

func TestOpenFileReadFileServesCachedContent(t *testing.T) {
	fs, cacheDir := testFS(t)
	content := []byte("hello from the cache")
	sum := md5.Sum(content)
	md5Hex := hex.EncodeToString(sum[:])

	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, md5Hex), content, 0o444))

	x := store.DriveFile{ID: "file-1", ParentID: store.RootID, Name: "cached.txt", MimeType: "text/plain", MD5: md5Hex}
	require.NoError(t, fs.store.PutDriveFile(x))
	row, err := fs.store.MaterializeFromDriveFile(x, false)
	require.NoError(t, err)

	openOp := &fuseops.OpenFileOp{Inode: fuseops.InodeID(row.Inode)}
	require.NoError(t, fs.OpenFile(context.Background(), openOp))

	readOp := &fuseops.ReadFileOp{Inode: fuseops.InodeID(row.Inode), Offset: 0, Dst: make([]byte, len(content))}
	require.NoError(t, fs.ReadFile(context.Background(), readOp))
	assert.Equal(t, len(content), readOp.BytesRead)
	assert.Equal(t, content, readOp.Dst)
}

func TestWriteFileRejectsWithEROFS(t *testing.T) {
	fs, _ := testFS(t)
	err := fs.WriteFile(context.Background(), &fuseops.WriteFileOp{})
	assert.Equal(t, syscall.EROFS, err)
}

func TestCreateFileRejectsWithEROFS(t *testing.T) {
	fs, _ := testFS(t)
	err := fs.CreateFile(context.Background(), &fuseops.CreateFileOp{})
	assert.Equal(t, syscall.EROFS, err)
}

func TestStatFSReportsUpdaterSnapshot(t *testing.T) {
	fs, _ := testFS(t)
	op := &fuseops.StatFSOp{}
	require.NoError(t, fs.StatFS(context.Background(), op))
	assert.Equal(t, fs.statfs.Snapshot().Bsize, op.BlockSize)
}

func TestUnimplementedOpsReportENOSYS(t *testing.T) {
	fs, _ := testFS(t)
	assert.Equal(t, syscall.ENOSYS, fs.MkNode(context.Background(), &fuseops.MkNodeOp{}))
	assert.Equal(t, syscall.ENOSYS, fs.CreateLink(context.Background(), &fuseops.CreateLinkOp{}))
	assert.Equal(t, syscall.ENOSYS, fs.ReadDirPlus(context.Background(), &fuseops.ReadDirPlusOp{}))
	assert.Equal(t, syscall.ENOSYS, fs.GetXattr(context.Background(), &fuseops.GetXattrOp{}))
	assert.Equal(t, syscall.EROFS, fs.Fallocate(context.Background(), &fuseops.FallocateOp{}))
}
