// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validator

import (
	"errors"
	"fmt"
)

// Sentinel errors for the validator package.
var (
	// ErrExecutableNotFound indicates the linter binary does not exist or
	// is not on PATH.
	ErrExecutableNotFound = errors.New("linter executable not found")

	// ErrSpawnFailed indicates the linter process could not be started
	// for a reason other than a missing binary.
	ErrSpawnFailed = errors.New("linter process failed to start")

	// ErrConsentDeclined indicates the user refused to trust the
	// workspace-defined executable.
	ErrConsentDeclined = errors.New("executable not trusted")

	// ErrValidationPaused indicates validation is paused until
	// configuration changes.
	ErrValidationPaused = errors.New("validation paused")

	// ErrInvalidInput indicates invalid input to a validator function.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError wraps a failed validation attempt with context.
//
// Thread Safety: Immutable after creation.
type ValidationError struct {
	// Executable is the linter path that was (or would have been) spawned.
	Executable string

	// Document is the key of the document being validated.
	Document string

	// Err is the underlying error.
	Err error

	// Output contains any stderr output from the linter.
	Output string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s (%s): %v: %s", e.Executable, e.Document, e.Err, e.Output)
	}
	return fmt.Sprintf("%s (%s): %v", e.Executable, e.Document, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError.
func NewValidationError(executable, document string, err error) *ValidationError {
	return &ValidationError{
		Executable: executable,
		Document:   document,
		Err:        err,
	}
}

// WithOutput returns a copy of the error with stderr output attached.
func (e *ValidationError) WithOutput(output string) *ValidationError {
	return &ValidationError{
		Executable: e.Executable,
		Document:   e.Document,
		Err:        e.Err,
		Output:     output,
	}
}
