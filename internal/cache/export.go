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

package cache

// exportMapping is the fixed mime mapping spec §4.4 requires for the
// GoogleAppMode CONVERT path: each Google-native document type exports to
// one Office-compatible mime/extension pair.
var exportMapping = map[string]struct {
	mime string
	ext  string
}{
	"application/vnd.google-apps.document":     {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx"},
	"application/vnd.google-apps.spreadsheet":   {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"},
	"application/vnd.google-apps.presentation":  {"application/vnd.openxmlformats-officedocument.presentationml.presentation", ".pptx"},
	"application/vnd.google-apps.drawing":       {"image/png", ".png"},
	"application/vnd.google-apps.script":        {"application/vnd.google-apps.script+json", ".json"},
}

// ExportMimeFor returns the export mime type and file extension for a
// virtual-app mime type, or ok=false if it has no supported export (the
// Facade then fails the open or read with EIO).
func ExportMimeFor(mimeType string) (exportMime, ext string, ok bool) {
	m, found := exportMapping[mimeType]
	if !found {
		return "", "", false
	}
	return m.mime, m.ext, true
}
