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

package cfg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bananaloaf/drivefuse/internal/util"
)

// Octal is the datatype for params such as file-mode and dir-mode which
// accept a base-8 value.
type Octal int

func (o *Octal) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text) /*base=*/, 8 /*bitSize=*/, 32)
	if err != nil {
		return err
	}
	*o = Octal(v)
	return nil
}

func (o Octal) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(o), 8)), nil
}

// LogSeverity represents the logging severity and can accept the following
// values: "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF".
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
	OffLogSeverity:     5,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	if _, ok := severityRanking[level]; !ok {
		return fmt.Errorf("invalid log severity level: %s. Must be one of [TRACE, DEBUG, INFO, WARNING, ERROR, OFF]", text)
	}
	*l = level
	return nil
}

// Rank returns the integer representation of the severity rank. Returns -1
// if the severity is unknown.
func (l LogSeverity) Rank() int {
	if rank, ok := severityRanking[l]; ok {
		return rank
	}
	return -1
}

// ResolvedPath represents a file-path which is resolved relative to the
// working directory (or "~") at config-load time.
type ResolvedPath string

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	path, err := util.GetResolvedPath(string(text))
	if err != nil {
		return err
	}
	*p = ResolvedPath(path)
	return nil
}

// GoogleAppMode controls how Google-native documents (Docs, Sheets, Slides,
// ...) are exposed in the mounted tree.
type GoogleAppMode string

const (
	// GoogleAppModeWeb lists Google-native documents as ordinary entries;
	// opening or reading one fails with EIO, and no link content is
	// generated for them.
	GoogleAppModeWeb GoogleAppMode = "WEB"
	// GoogleAppModeConvert exports the document to an Office-compatible
	// format on read (xlsx/docx/pptx/...).
	GoogleAppModeConvert GoogleAppMode = "CONVERT"
	// GoogleAppModeIgnore hides Google-native documents from directory
	// listings.
	GoogleAppModeIgnore GoogleAppMode = "IGNORE"
	// GoogleAppModeDesktop is handled like WEB: documents are listed and
	// opening one fails with EIO; no .desktop launcher file is generated.
	GoogleAppModeDesktop GoogleAppMode = "DESKTOP"
)

func (m *GoogleAppMode) UnmarshalText(text []byte) error {
	mode := GoogleAppMode(strings.ToUpper(string(text)))
	valid := []GoogleAppMode{GoogleAppModeWeb, GoogleAppModeConvert, GoogleAppModeIgnore, GoogleAppModeDesktop}
	if !slices.Contains(valid, mode) {
		return fmt.Errorf("invalid google-app-mode: %s. Must be one of %v", text, valid)
	}
	*m = mode
	return nil
}
