// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parse turns single lines of linter output into diagnostics.
//
// The expected shape is the linter's parseable format, one finding per
// line: `<file path>:<line>:[<column>:] <rule id> <message>`. Lines that
// do not match (banners, summaries, progress output) are simply skipped;
// that is the normal case, not an error.
package parse

import (
	"math"
	"regexp"
	"strconv"
)

// EndOfLineColumn is the sentinel end column meaning "rest of the line".
// Diagnostic consumers clamp it to the actual line length.
const EndOfLineColumn = math.MaxInt32

// placeholderMessage is used when the message group is somehow absent.
const placeholderMessage = "unknown linting error"

// linePattern matches one parseable-format output line. The column and
// rule groups are captured but not currently consumed: the linter does not
// reliably report columns, so the published range spans the whole line.
var linePattern = regexp.MustCompile(
	`^(?P<file>.+?):(?P<line>\d+):(?:(?P<col>\d+):)? (?P<rule>\S+) (?P<message>.*)$`,
)

var (
	idxLine    = linePattern.SubexpIndex("line")
	idxMessage = linePattern.SubexpIndex("message")
)

// Range is a zero-based document region.
type Range struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// Diagnostic is a single linting finding.
//
// Thread Safety: Immutable after creation.
type Diagnostic struct {
	// Range locates the finding. It always spans a full line, column 0
	// through EndOfLineColumn.
	Range Range `json:"range"`

	// Message is the human-readable finding text.
	Message string `json:"message"`
}

// Extract parses one line of linter output into a diagnostic.
//
// Description:
//
//	Matches the line against the parseable format. The reported line
//	number is 1-based and is converted to 0-based; a number too large to
//	parse falls back to line 0. The resulting range covers the entire
//	source line.
//
// Inputs:
//
//	line - One complete line of linter stdout.
//
// Outputs:
//
//	Diagnostic - The extracted finding. Zero value when ok is false.
//	bool - False if the line is not a diagnostic. Not an error condition.
func Extract(line string) (Diagnostic, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Diagnostic{}, false
	}

	lineNo := 0
	if n, err := strconv.Atoi(m[idxLine]); err == nil && n > 0 {
		lineNo = n - 1
	}

	message := placeholderMessage
	if m[idxMessage] != "" {
		message = m[idxMessage]
	}

	return Diagnostic{
		Range: Range{
			StartLine:   lineNo,
			StartColumn: 0,
			EndLine:     lineNo,
			EndColumn:   EndOfLineColumn,
		},
		Message: message,
	}, true
}
