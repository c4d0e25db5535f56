// Copyright 2020 The gg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package giterr defines the error taxonomy shared by the objstore, packfile,
// uploadpack, workdir, and clone packages and the minigit command.
package giterr

import (
	"errors"
	"fmt"
)

// Kind classifies the cause of an Error.
type Kind int8

// Error kinds.
const (
	_ Kind = iota
	Io
	Http
	NoHead
	InvalidHeader
	InvalidObject
	InvalidPack
	InvalidDelta
	MissingBase
	Unsupported
	CorruptPack
)

// String returns a short human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Http:
		return "http"
	case NoHead:
		return "no HEAD"
	case InvalidHeader:
		return "invalid header"
	case InvalidObject:
		return "invalid object"
	case InvalidPack:
		return "invalid pack"
	case InvalidDelta:
		return "invalid delta"
	case MissingBase:
		return "missing base"
	case Unsupported:
		return "unsupported"
	case CorruptPack:
		return "corrupt pack"
	default:
		return fmt.Sprintf("giterr.Kind(%d)", int8(k))
	}
}

// Error is the concrete error type returned by this module's packages. It
// pairs a Kind with a short human-readable context string and, optionally,
// the error that caused it.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

// New returns a new *Error with no wrapped cause.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap returns a new *Error that wraps cause. If cause is already an *Error,
// its Kind is preserved unless kind is explicitly non-zero.
func Wrap(kind Kind, context string, cause error) *Error {
	if kind == 0 {
		var e *Error
		if errors.As(cause, &e) {
			kind = e.Kind
		}
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Context, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err is an *Error with the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
