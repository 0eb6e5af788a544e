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
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/bananaloaf/drivefuse/internal/util"
	"github.com/mitchellh/mapstructure"
)

func hookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		switch t {
		case reflect.TypeOf(Octal(0)):
			return strconv.ParseInt(s, 8, 32)
		case reflect.TypeOf(LogSeverity("")):
			level := strings.ToUpper(s)
			if !slices.Contains([]string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"}, level) {
				return nil, fmt.Errorf("invalid logseverity: %s", s)
			}
			return level, nil
		case reflect.TypeOf(GoogleAppMode("")):
			mode := strings.ToUpper(s)
			if !slices.Contains([]string{"WEB", "CONVERT", "IGNORE", "DESKTOP"}, mode) {
				return nil, fmt.Errorf("invalid google-app-mode: %s", s)
			}
			return mode, nil
		case reflect.TypeOf(ResolvedPath("")):
			return util.GetResolvedPath(s)
		default:
			return data, nil
		}
	}
}

// DecodeHook composes the custom scalar decoders above with mapstructure's
// built-in TextUnmarshaler, duration, and comma-separated-slice hooks.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		hookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
