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

import "github.com/AleutianAI/lintwatch/services/validator/parse"

// Publisher receives the diagnostic set for a document.
//
// Publish replaces any previous set for the key atomically; an empty slice
// clears prior findings. Clear removes the key entirely (document closed or
// configuration reloaded).
type Publisher interface {
	Publish(key string, diagnostics []parse.Diagnostic)
	Clear(key string)
}

// NoticeKind classifies a user-facing notification.
type NoticeKind int

const (
	// NoticeExecutableNotFound reports a missing linter binary.
	NoticeExecutableNotFound NoticeKind = iota

	// NoticeSpawnFailure reports any other process start failure.
	NoticeSpawnFailure
)

// Notice is a user-facing notification about a validation failure.
type Notice struct {
	// Kind classifies the failure.
	Kind NoticeKind

	// Message is ready for display.
	Message string

	// ExecutablePath is the linter path involved.
	ExecutablePath string

	// OfferSettings suggests offering a jump to configuration.
	OfferSettings bool
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }
