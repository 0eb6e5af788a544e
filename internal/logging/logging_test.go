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

package logging

import (
	"testing"

	"github.com/bananaloaf/drivefuse/cfg"
	"github.com/stretchr/testify/assert"
)

func TestSeverityToLevelOrdering(t *testing.T) {
	assert.True(t, severityToLevel(cfg.TraceLogSeverity) < severityToLevel(cfg.DebugLogSeverity))
	assert.True(t, severityToLevel(cfg.DebugLogSeverity) < severityToLevel(cfg.InfoLogSeverity))
	assert.True(t, severityToLevel(cfg.InfoLogSeverity) < severityToLevel(cfg.WarningLogSeverity))
	assert.True(t, severityToLevel(cfg.WarningLogSeverity) < severityToLevel(cfg.ErrorLogSeverity))
}

func TestNewWithOffSeverityDiscardsLogs(t *testing.T) {
	log := New(cfg.LoggingConfig{Severity: cfg.OffLogSeverity})
	assert.NotNil(t, log)
}

func TestNewWithFilePathUsesRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	log := New(cfg.LoggingConfig{
		Severity: cfg.InfoLogSeverity,
		FilePath: cfg.ResolvedPath(dir + "/out.log"),
	})
	log.Info("hello")
}
