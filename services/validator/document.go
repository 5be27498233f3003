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
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LanguageAnsible is the only document language the validator handles.
const LanguageAnsible = "ansible"

// Document is one open text document under validation.
//
// Key identifies the document for diagnostics and scheduling and must be
// stable for the document's lifetime. Text returns the current content for
// on-type validation; for file-backed documents that is the on-disk state.
type Document interface {
	Key() string
	Path() string
	Language() string
	Text() (string, error)
}

// FileDocument is a document backed by a file on disk.
type FileDocument struct {
	path string
}

// NewFileDocument creates a document for the given file path.
func NewFileDocument(path string) FileDocument {
	return FileDocument{path: path}
}

// Key returns the file path as the document identity.
func (d FileDocument) Key() string { return d.path }

// Path returns the on-disk location.
func (d FileDocument) Path() string { return d.path }

// Language derives the document language from the file extension.
func (d FileDocument) Language() string {
	switch strings.ToLower(filepath.Ext(d.path)) {
	case ".yml", ".yaml":
		return LanguageAnsible
	default:
		return ""
	}
}

// Text reads the current file content.
func (d FileDocument) Text() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return string(data), nil
}
