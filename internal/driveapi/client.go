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

// Package driveapi is the Remote Client: a thin, retrying wrapper over
// google.golang.org/api/drive/v3, the same client library rclone's own
// Drive backend is built on.
package driveapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
	"github.com/jpillora/backoff"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultFields is the field mask requested for every file/folder lookup;
// it names every attribute the Metadata Store consumes.
const DefaultFields = "id, parents, name, size, viewedByMeTime, createdTime, modifiedTime, mimeType, trashed, md5Checksum, shortcutDetails"

const maxRetries = 3
const callTimeout = 30 * time.Second

// Client is a session-oriented wrapper around the Drive API, safe for
// concurrent use from multiple goroutines: unlike the Python source's
// threading.get_ident()-keyed session map, *drive.Service itself is safe
// for concurrent use, so one Client instance is shared mount-wide.
type Client struct {
	svc *drive.Service
}

// LoadCredentials constructs an authenticated Client from a credentials.json
// blob (the format written by the OAuth flow the credential store holds).
func LoadCredentials(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	config, err := google.ConfigFromJSON(credentialsJSON, drive.DriveScope)
	if err != nil {
		return nil, apperrors.Newf(apperrors.AuthFailed, "parsing credentials: %v", err)
	}

	var tok oauth2.Token
	// The credentials blob is expected to already carry a token (written by
	// the out-of-scope OAuth flow collaborator); a missing/expired token
	// surfaces as AuthFailed on first call rather than here, since refresh
	// is handled transparently by the TokenSource.
	client := config.Client(ctx, &tok)

	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, apperrors.Newf(apperrors.AuthFailed, "creating drive service: %v", err)
	}

	return &Client{svc: svc}, nil
}

// NewFromHTTPClient builds a Client around an already-authenticated HTTP
// client, primarily for tests that stub the transport.
func NewFromHTTPClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, apperrors.Newf(apperrors.AuthFailed, "creating drive service: %v", err)
	}
	return &Client{svc: svc}, nil
}

// SetBasePathForTesting repoints the client at a local stub server instead
// of the real Drive API endpoint. Only meant for use from test code.
func (c *Client) SetBasePathForTesting(basePath string) {
	c.svc.BasePath = basePath
}

// withRetry retries fn on transient errors with exponential backoff up to
// maxRetries, converting the final failure into apperrors.Unreachable. Each
// attempt gets its own callTimeout-bounded context.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	b := &backoff.Backoff{Min: 200 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		lastErr = fn(callCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return apperrors.Newf(apperrors.Unreachable, "context cancelled: %v", ctx.Err())
		case <-time.After(b.Duration()):
		}
	}
	return apperrors.Newf(apperrors.Unreachable, "exhausted %d retries: %v", maxRetries, lastErr)
}

func isTransient(err error) bool {
	// google.golang.org/api/googleapi.Error exposes a Code field for HTTP
	// status; we treat 429 and 5xx as transient, matching rclone's own
	// Drive pacer policy (retry on rate limit and server errors).
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}

// GetRootID resolves the Drive alias "root" to its real object id.
func (c *Client) GetRootID(ctx context.Context) (string, error) {
	var id string
	err := withRetry(ctx, func(ctx context.Context) error {
		f, err := c.svc.Files.Get("root").Fields("id").Context(ctx).Do()
		if err != nil {
			return err
		}
		id = f.Id
		return nil
	})
	return id, err
}

// GetByID fetches a single object's metadata by id.
func (c *Client) GetByID(ctx context.Context, id string) (*drive.File, error) {
	var f *drive.File
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		f, err = c.svc.Files.Get(id).Fields(DefaultFields).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return f, nil
}

// ListFiles lists objects matching query, paginating via pageToken.
func (c *Client) ListFiles(ctx context.Context, query, pageToken string) (items []*drive.File, nextToken string, err error) {
	err = withRetry(ctx, func(ctx context.Context) error {
		call := c.svc.Files.List().Q(query).
			Fields("nextPageToken", "files("+DefaultFields+")").PageSize(1000).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return err
		}
		items = res.Files
		nextToken = res.NextPageToken
		return nil
	})
	return items, nextToken, err
}

// CreateFolder creates a folder named name under parentID.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (*drive.File, error) {
	var f *drive.File
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		f, err = c.svc.Files.Create(&drive.File{
			Name:     name,
			Parents:  []string{parentID},
			MimeType: "application/vnd.google-apps.folder",
		}).Fields(DefaultFields).Context(ctx).Do()
		return err
	})
	return f, err
}

// CreateShortcut creates a shortcut named name under parentID pointing at
// targetID.
func (c *Client) CreateShortcut(ctx context.Context, parentID, name, targetID string) (*drive.File, error) {
	var f *drive.File
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		f, err = c.svc.Files.Create(&drive.File{
			Name:     name,
			Parents:  []string{parentID},
			MimeType: "application/vnd.google-apps.shortcut",
			ShortcutDetails: &drive.FileShortcutDetails{
				TargetId: targetID,
			},
		}).Fields(DefaultFields).Context(ctx).Do()
		return err
	})
	return f, err
}

// Rename changes id's name, leaving its parent untouched.
func (c *Client) Rename(ctx context.Context, id, name string) (*drive.File, error) {
	var f *drive.File
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		f, err = c.svc.Files.Update(id, &drive.File{Name: name}).Fields(DefaultFields).Context(ctx).Do()
		return err
	})
	return f, err
}

// Move reparents id from oldParent to newParent.
func (c *Client) Move(ctx context.Context, id, oldParent, newParent string) (*drive.File, error) {
	var f *drive.File
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		f, err = c.svc.Files.Update(id, &drive.File{}).
			AddParents(newParent).RemoveParents(oldParent).Fields(DefaultFields).Context(ctx).Do()
		return err
	})
	return f, err
}

// Trash soft-deletes id.
func (c *Client) Trash(ctx context.Context, id string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := c.svc.Files.Update(id, &drive.File{Trashed: true}).Context(ctx).Do()
		return err
	})
}

// Untrash restores id from trash.
func (c *Client) Untrash(ctx context.Context, id string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		// Trashed is omitempty, so false must be forced into the request body.
		_, err := c.svc.Files.Update(id, &drive.File{Trashed: false, ForceSendFields: []string{"Trashed"}}).Context(ctx).Do()
		return err
	})
}

// Download streams id's content into w. When exportMime is non-empty the
// object is a virtual-app document and is exported through Files.Export
// instead of Files.Get/Download (spec §4.4's CONVERT path).
func (c *Client) Download(ctx context.Context, id string, w io.Writer, exportMime string) error {
	return withRetry(ctx, func(ctx context.Context) error {
		var resp *http.Response
		var err error
		if exportMime != "" {
			resp, err = c.svc.Files.Export(id, exportMime).Context(ctx).Download()
		} else {
			resp, err = c.svc.Files.Get(id).Context(ctx).Download()
		}
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, err = io.Copy(w, resp.Body)
		return err
	})
}

// Quota is the storage-quota snapshot returned by About.
type Quota struct {
	Limit int64
	Usage int64
}

// About queries the account's storage quota.
func (c *Client) About(ctx context.Context) (Quota, error) {
	var q Quota
	err := withRetry(ctx, func(ctx context.Context) error {
		about, err := c.svc.About.Get().Fields("storageQuota").Context(ctx).Do()
		if err != nil {
			return err
		}
		if about.StorageQuota != nil {
			q.Limit = about.StorageQuota.Limit
			q.Usage = about.StorageQuota.Usage
		}
		return nil
	})
	return q, err
}

func wrapNotFound(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return apperrors.Newf(apperrors.NotFound, "drive api: %v", err)
	}
	return fmt.Errorf("drive api: %w", err)
}

// ChangesPage is one page of the Drive changes feed, consumed by the
// Sync/Lister's incremental-refresh path (spec §4.1).
type ChangesPage struct {
	Changes       []*drive.Change
	NextPageToken string
	NewStartToken string
}

// GetStartPageToken returns the token marking "now" in the changes feed, the
// starting point for the first incremental refresh.
func (c *Client) GetStartPageToken(ctx context.Context) (string, error) {
	var token string
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := c.svc.Changes.GetStartPageToken().Context(ctx).Do()
		if err != nil {
			return err
		}
		token = res.StartPageToken
		return nil
	})
	return token, err
}

// Changes lists changes since pageToken (as returned by GetStartPageToken or
// a prior ChangesPage.NextPageToken/NewStartToken).
func (c *Client) Changes(ctx context.Context, pageToken string) (ChangesPage, error) {
	var page ChangesPage
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := c.svc.Changes.List(pageToken).
			Fields("nextPageToken, newStartPageToken, changes(fileId, removed, file("+DefaultFields+"))").
			Context(ctx).Do()
		if err != nil {
			return err
		}
		page.Changes = res.Changes
		page.NextPageToken = res.NextPageToken
		page.NewStartToken = res.NewStartPageToken
		return nil
	})
	return page, err
}
