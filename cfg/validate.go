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

import "fmt"

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be at least 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (retain all) or positive")
	}
	return nil
}

func isValidMountConfig(m *MountConfig) error {
	if m.Mountpoint == "" {
		return fmt.Errorf("mountpoint must not be empty")
	}
	switch m.GoogleAppMode {
	case GoogleAppModeWeb, GoogleAppModeConvert, GoogleAppModeIgnore, GoogleAppModeDesktop:
	default:
		return fmt.Errorf("invalid google-app-mode: %s", m.GoogleAppMode)
	}
	return nil
}

func isValidCacheConfig(c *CacheConfig) error {
	if c.DownloadMaxRetries < 0 {
		return fmt.Errorf("download-max-retries must not be negative")
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid. This is
// the only place a malformed config is allowed to abort the mount (a
// SchemaError per the error taxonomy); every other component trusts the
// values it is handed.
func ValidateConfig(config *Config) error {
	if err := isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}
	if err := isValidMountConfig(&config.Mount); err != nil {
		return fmt.Errorf("error parsing mount config: %w", err)
	}
	if err := isValidCacheConfig(&config.Cache); err != nil {
		return fmt.Errorf("error parsing cache config: %w", err)
	}
	return nil
}
