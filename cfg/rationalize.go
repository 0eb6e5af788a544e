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

package cfg

import "os"

// Rationalize updates config fields based on the values of other fields,
// after parsing and before validation, the way the teacher's own
// rationalization pass derives dependent flags.
func Rationalize(c *Config) error {
	if c.Mount.Mountpoint == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Mount.Mountpoint = GetDefaultMountConfig(home).Mountpoint
	}

	if c.Mount.ProfileDir == "" {
		c.Mount.ProfileDir = c.Mount.Mountpoint + ".profile"
	}

	if c.Mount.CredentialsFile == "" {
		c.Mount.CredentialsFile = c.Mount.ProfileDir + "/credentials.json"
	}

	if c.Cache.CacheDir == "" {
		c.Cache.CacheDir = c.Mount.ProfileDir + "/cache"
	}

	if c.Cache.DownloadMaxRetries == 0 {
		c.Cache.DownloadMaxRetries = DefaultDownloadMaxRetries
	}

	if c.FileSystem.FileMode == 0 {
		c.FileSystem.FileMode = 0444
	}
	if c.FileSystem.DirMode == 0 {
		c.FileSystem.DirMode = 0555
	}
	if c.FileSystem.Uid < 0 {
		c.FileSystem.Uid = os.Getuid()
	}
	if c.FileSystem.Gid < 0 {
		c.FileSystem.Gid = os.Getgid()
	}

	if c.Mount.GoogleAppMode == "" {
		c.Mount.GoogleAppMode = GoogleAppModeWeb
	}

	return nil
}
