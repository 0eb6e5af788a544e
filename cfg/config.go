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

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully-resolved configuration for a single mounted profile.
// It is populated by binding pflag/viper against this struct via
// mapstructure, using DecodeHook for the custom scalar types below.
type Config struct {
	AppName string `yaml:"app-name" mapstructure:"app-name"`

	Mount MountConfig `yaml:"mount" mapstructure:"mount"`

	FileSystem FileSystemConfig `yaml:"file-system" mapstructure:"file-system"`

	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	Debug DebugConfig `yaml:"debug" mapstructure:"debug"`
}

// MountConfig holds the schema described by the "MOUNT" section: where the
// profile is exposed, whether it shows the live tree or the trash, and how
// Google-native documents are surfaced.
type MountConfig struct {
	Mountpoint      ResolvedPath  `yaml:"mountpoint" mapstructure:"mountpoint"`
	Trash           bool          `yaml:"trash" mapstructure:"trash"`
	GoogleAppMode   GoogleAppMode `yaml:"google-app-mode" mapstructure:"google-app-mode"`
	ProfileDir      ResolvedPath  `yaml:"profile-dir" mapstructure:"profile-dir"`
	CredentialsFile ResolvedPath  `yaml:"credentials-file" mapstructure:"credentials-file"`
}

// FileSystemConfig controls the POSIX-facing attributes synthesized for
// every inode.
type FileSystemConfig struct {
	FileMode Octal `yaml:"file-mode" mapstructure:"file-mode"`
	DirMode  Octal `yaml:"dir-mode" mapstructure:"dir-mode"`
	Uid      int   `yaml:"uid" mapstructure:"uid"`
	Gid      int   `yaml:"gid" mapstructure:"gid"`
}

// CacheConfig controls the content-addressed download cache.
type CacheConfig struct {
	CacheDir            ResolvedPath `yaml:"cache-dir" mapstructure:"cache-dir"`
	DownloadMaxRetries  int          `yaml:"download-max-retries" mapstructure:"download-max-retries"`
	StatfsRefreshPeriod string       `yaml:"statfs-refresh-period" mapstructure:"statfs-refresh-period"`
}

// LoggingConfig matches the teacher's logging schema.
type LoggingConfig struct {
	Severity  LogSeverity            `yaml:"severity" mapstructure:"severity"`
	FilePath  ResolvedPath           `yaml:"file-path" mapstructure:"file-path"`
	LogRotate LogRotateLoggingConfig `yaml:"log-rotate" mapstructure:"log-rotate"`
}

// LogRotateLoggingConfig is handed straight to lumberjack.Logger.
type LogRotateLoggingConfig struct {
	MaxFileSizeMb   int  `yaml:"max-file-size-mb" mapstructure:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count" mapstructure:"backup-file-count"`
	Compress        bool `yaml:"compress" mapstructure:"compress"`
}

// DebugConfig holds flags useful only to implementers of the core.
type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation" mapstructure:"exit-on-invariant-violation"`
	LogMutex                 bool `yaml:"log-mutex" mapstructure:"log-mutex"`
}

// BindFlags registers every flag understood by the mount command and wires
// each one to its viper key, matching the style the teacher generates its
// own flag-binding code in.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("app-name", "", "drivefuse", "The application name reported in logs and the user agent.")
	if err = viper.BindPFlag("app-name", flagSet.Lookup("app-name")); err != nil {
		return err
	}

	flagSet.StringP("mountpoint", "", "", "Where to mount the profile (default: $HOME/Google Drive).")
	if err = viper.BindPFlag("mount.mountpoint", flagSet.Lookup("mountpoint")); err != nil {
		return err
	}

	flagSet.BoolP("trash", "", false, "Mount the trash view instead of the live tree.")
	if err = viper.BindPFlag("mount.trash", flagSet.Lookup("trash")); err != nil {
		return err
	}

	flagSet.StringP("google-app-mode", "", "WEB", "How to surface Google-native documents: WEB, CONVERT, IGNORE, DESKTOP.")
	if err = viper.BindPFlag("mount.google-app-mode", flagSet.Lookup("google-app-mode")); err != nil {
		return err
	}

	flagSet.StringP("profile-dir", "", "", "Directory holding this profile's metadata store and credentials.")
	if err = viper.BindPFlag("mount.profile-dir", flagSet.Lookup("profile-dir")); err != nil {
		return err
	}

	flagSet.StringP("credentials-file", "", "", "Path to a credentials.json blob, when using the file-backed credential store.")
	if err = viper.BindPFlag("mount.credentials-file", flagSet.Lookup("credentials-file")); err != nil {
		return err
	}

	flagSet.IntP("file-mode", "", 0, "Permission bits for regular files, in octal.")
	if err = viper.BindPFlag("file-system.file-mode", flagSet.Lookup("file-mode")); err != nil {
		return err
	}

	flagSet.IntP("dir-mode", "", 0, "Permission bits for directories, in octal.")
	if err = viper.BindPFlag("file-system.dir-mode", flagSet.Lookup("dir-mode")); err != nil {
		return err
	}

	flagSet.IntP("uid", "", -1, "UID owner of all inodes; -1 uses the mounting user's UID.")
	if err = viper.BindPFlag("file-system.uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.IntP("gid", "", -1, "GID owner of all inodes; -1 uses the mounting user's GID.")
	if err = viper.BindPFlag("file-system.gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.StringP("cache-dir", "", "", "Directory for the content-addressed download cache.")
	if err = viper.BindPFlag("cache.cache-dir", flagSet.Lookup("cache-dir")); err != nil {
		return err
	}

	flagSet.IntP("download-max-retries", "", 3, "Validated but not read by the cache, which always makes 3 download attempts before surfacing IntegrityError.")
	if err = viper.BindPFlag("cache.download-max-retries", flagSet.Lookup("download-max-retries")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file; empty logs to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.BoolP("debug_invariants", "", false, "Debug setting for internal invariant checks; no component reads it, so it has no effect.")
	if err = viper.BindPFlag("debug.exit-on-invariant-violation", flagSet.Lookup("debug_invariants")); err != nil {
		return err
	}

	flagSet.BoolP("debug_mutex", "", false, "Debug setting for mutex hold-time logging; no component reads it, so it has no effect.")
	if err = viper.BindPFlag("debug.log-mutex", flagSet.Lookup("debug_mutex")); err != nil {
		return err
	}

	return nil
}
