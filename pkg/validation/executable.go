// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// file paths or subprocess calls. Configuration files are workspace content,
// so an executable path read from one is untrusted input until it passes
// these checks and the consent gate.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// maxExecutablePathLen caps the accepted path length. Longer values are
// almost certainly corrupt or hostile configuration.
const maxExecutablePathLen = 4096

// ValidateExecutablePath validates a linter executable path before it is
// handed to the process spawner.
//
// Valid paths:
//   - 1-4096 characters
//   - No NUL bytes or other control characters (rejects newline smuggling
//     into logs and shells)
//   - No leading or trailing whitespace
//
// Returns an error if the path is invalid.
//
// Example:
//
//	if err := validation.ValidateExecutablePath(path); err != nil {
//	    return fmt.Errorf("refusing to spawn: %w", err)
//	}
//	// Safe to pass to exec.Command
func ValidateExecutablePath(path string) error {
	if path == "" {
		return fmt.Errorf("executable path cannot be empty")
	}
	if len(path) > maxExecutablePathLen {
		return fmt.Errorf("executable path exceeds %d characters", maxExecutablePathLen)
	}
	if path != strings.TrimSpace(path) {
		return fmt.Errorf("executable path has leading or trailing whitespace: %q", path)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("executable path contains control character %q", r)
		}
	}
	return nil
}
