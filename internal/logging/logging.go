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

// Package logging builds the mount-wide *slog.Logger, matching the
// teacher's own log/slog-over-lumberjack setup (internal/logger in the
// teacher repo) but driven by cfg.LoggingConfig instead of gcsfuse's own
// config schema.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/bananaloaf/drivefuse/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity values below INFO/DEBUG/TRACE map onto slog's standard levels;
// TRACE has no slog equivalent, so it is assigned a level below Debug,
// matching the teacher's custom severity ranking (cfg.LogSeverity.Rank).
const (
	LevelTrace = slog.Level(-8)
	LevelWarn  = slog.LevelWarn
)

// New builds a logger honoring c's severity and rotation settings. A blank
// FilePath logs to stderr instead of a file.
func New(c cfg.LoggingConfig) *slog.Logger {
	if c.Severity == cfg.OffLogSeverity {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var w io.Writer = os.Stderr
	if c.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   string(c.FilePath),
			MaxSize:    c.LogRotate.MaxFileSizeMb,
			MaxBackups: c.LogRotate.BackupFileCount,
			Compress:   c.LogRotate.Compress,
		}
	}

	opts := &slog.HandlerOptions{Level: severityToLevel(c.Severity)}
	return slog.New(slog.NewTextHandler(w, opts))
}

func severityToLevel(s cfg.LogSeverity) slog.Level {
	switch s {
	case cfg.TraceLogSeverity:
		return LevelTrace
	case cfg.DebugLogSeverity:
		return slog.LevelDebug
	case cfg.WarningLogSeverity:
		return slog.LevelWarn
	case cfg.ErrorLogSeverity:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
