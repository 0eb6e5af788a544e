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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/bananaloaf/drivefuse/cmd"
)

// main records a stack trace to ~/.drivefuse-crash.log before re-raising
// any panic that escapes Execute, so a mount that dies unattended (no
// terminal to see the trace on) still leaves a diagnosable record.
func main() {
	defer func() {
		if r := recover(); r != nil {
			writeCrashLog(r)
			panic(r)
		}
	}()

	cmd.Execute()
}

func writeCrashLog(r any) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	w := cmd.NewCrashWriter(filepath.Join(home, ".drivefuse-crash.log"))
	fmt.Fprintf(w, "panic: %v\n\n%s", r, debug.Stack())
}
