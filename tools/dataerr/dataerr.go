/* Package dataerr classifies the fatal errors of the dataset preparation tools.
 *
 * Copyright 2020 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 *     Unless required by applicable law or agreed to in writing, software
 *     distributed under the License is distributed on an "AS IS" BASIS,
 *     WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *     See the License for the specific language governing permissions and
 *     limitations under the License.
 */
package dataerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies what went wrong.
type Kind int

const (
	// Decode means a source medium was unreadable or corrupt.
	Decode Kind = iota
	// LabelLookup means no label row matched a processed medium.
	LabelLookup
	// Configuration means the parameters of a run were invalid.
	Configuration
	// Filesystem means creating, writing or copying a file failed.
	Filesystem
)

func (k Kind) String() string {
	switch k {
	case Decode:
		return "DecodeError"
	case LabelLookup:
		return "LabelLookupError"
	case Configuration:
		return "ConfigurationError"
	case Filesystem:
		return "FilesystemError"
	}
	return "Unknown"
}

// Error is an error of a given Kind, concerning a given subject (usually a file or parameter name).
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Subject, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error, for errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

// New returns an error of kind about subject with a formatted message and a stack trace.
func New(kind Kind, subject string, format string, args ...interface{}) error {
	return &Error{
		Kind:    kind,
		Subject: subject,
		Err:     errors.Errorf(format, args...),
	}
}

// Wrap returns err classified as kind about subject, or nil if err is nil.
// An err that is already classified keeps its kind; it only gains subject if it had none.
func Wrap(kind Kind, subject string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Subject == "" {
		return &Error{Kind: e.Kind, Subject: subject, Err: e.Err}
	}
	classified := &Error{}
	if errors.As(err, &classified) {
		return err
	}
	return &Error{
		Kind:    kind,
		Subject: subject,
		Err:     errors.WithStack(err),
	}
}

// Is returns whether err, or any error it wraps, is of kind.
func Is(err error, kind Kind) bool {
	e := &Error{}
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
