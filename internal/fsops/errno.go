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

package fsops

import (
	"errors"
	"syscall"

	"github.com/bananaloaf/drivefuse/internal/apperrors"
	"github.com/jacobsa/fuse"
)

// toErrno maps an internal apperrors.Kind to the errno fuse reports to the
// kernel, following the teacher's per-case fuse.E*/syscall.E* return idiom
// rather than passing the internal error straight through.
func toErrno(err error) error {
	if err == nil {
		return nil
	}

	var e *apperrors.Error
	if !errors.As(err, &e) {
		return syscall.EIO
	}

	switch e.Kind {
	case apperrors.NotFound:
		return fuse.ENOENT
	case apperrors.AlreadyExists:
		return fuse.EEXIST
	case apperrors.Ignored:
		return syscall.EIO
	case apperrors.Unreachable:
		return syscall.EIO
	case apperrors.AuthFailed:
		return syscall.EACCES
	case apperrors.Integrity:
		return syscall.EIO
	case apperrors.ReadOnly:
		return syscall.EROFS
	case apperrors.CrossDevice:
		return syscall.EXDEV
	case apperrors.SchemaError:
		return syscall.EIO
	default:
		return syscall.EIO
	}
}
