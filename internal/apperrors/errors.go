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

// Package apperrors defines the internal error taxonomy shared by the
// store, cache, sync, queue, and filesystem-facade packages. Every
// component that can fail in a way the Facade needs to map to a POSIX
// errno returns one of these kinds (wrapped with context via fmt.Errorf
// %w), rather than a bare error or a sentinel per call site.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is one of the internal error kinds. Exactly one is non-nil on any
// error surfaced by the core to the Facade.
type Kind int

const (
	_ Kind = iota
	NotFound
	AlreadyExists
	Ignored
	Unreachable
	AuthFailed
	Integrity
	ReadOnly
	CrossDevice
	SchemaError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Ignored:
		return "Ignored"
	case Unreachable:
		return "Unreachable"
	case AuthFailed:
		return "AuthFailed"
	case Integrity:
		return "Integrity"
	case ReadOnly:
		return "ReadOnly"
	case CrossDevice:
		return "CrossDevice"
	case SchemaError:
		return "SchemaError"
	default:
		return "Unknown"
	}
}

// Error is a Kind paired with a message, implementing the standard error
// interface so it composes with fmt.Errorf's %w and errors.As.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt-style formatting.
func Newf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
