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

// GetDefaultLoggingConfig returns the logging defaults used before the real
// configuration has been parsed (so that early startup errors are still
// logged somewhere sane).
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: InfoLogSeverity,
		LogRotate: LogRotateLoggingConfig{
			BackupFileCount: 10,
			Compress:        true,
			MaxFileSizeMb:   512,
		},
	}
}

// GetDefaultMountConfig returns the mount defaults spec.md §6.1 requires:
// mountpoint $HOME/Google Drive, trash off, WEB app mode.
func GetDefaultMountConfig(home string) MountConfig {
	return MountConfig{
		Mountpoint:    ResolvedPath(home + "/" + DefaultMountDirName),
		Trash:         false,
		GoogleAppMode: GoogleAppModeWeb,
	}
}
