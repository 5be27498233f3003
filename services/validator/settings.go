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

import "time"

// DefaultExecutable is the linter looked up on PATH when no path is
// configured.
const DefaultExecutable = "ansible-lint"

// TriggerMode selects which document event starts a validation.
type TriggerMode string

const (
	// TriggerOnSave validates when a document is saved, passing the file
	// path to the linter.
	TriggerOnSave TriggerMode = "onSave"

	// TriggerOnType validates as the document changes, piping the live
	// text to the linter's stdin.
	TriggerOnType TriggerMode = "onType"
)

// onTypeDebounce is the delay between a change and its validation in
// on-type mode, so not every keystroke spawns a process.
const onTypeDebounce = 250 * time.Millisecond

// defaultRunTimeout bounds a single linter invocation.
const defaultRunTimeout = 30 * time.Second

// Settings is the validator's configuration-derived state. It is replaced
// wholesale on every configuration reload, never merged.
type Settings struct {
	// Enabled turns validation on or off.
	Enabled bool

	// Trigger selects on-save or on-type validation.
	Trigger TriggerMode

	// ExecutablePath is the configured linter path. Empty means "use
	// DefaultExecutable from PATH".
	ExecutablePath string

	// ExecutableIsWorkspaceDefined marks the path as coming from a
	// workspace-level config file, which subjects it to the consent gate.
	ExecutableIsWorkspaceDefined bool

	// Encoding is the IANA charset of the linter's output. Empty means
	// UTF-8.
	Encoding string

	// Timeout bounds one linter run. Zero selects defaultRunTimeout.
	Timeout time.Duration
}

// withDefaults normalizes zero values.
func (s Settings) withDefaults() Settings {
	if s.Trigger != TriggerOnType {
		s.Trigger = TriggerOnSave
	}
	if s.Timeout == 0 {
		s.Timeout = defaultRunTimeout
	}
	return s
}

// resolvedExecutable returns the path actually spawned.
func (s Settings) resolvedExecutable() string {
	if s.ExecutablePath != "" {
		return s.ExecutablePath
	}
	return DefaultExecutable
}

// debounceDelay derives the scheduling delay from the trigger mode. A save
// is an explicit user action and validates at the next opportunity; typing
// is debounced.
func (s Settings) debounceDelay() time.Duration {
	if s.Trigger == TriggerOnType {
		return onTypeDebounce
	}
	return 0
}

// State describes the orchestrator's current mode.
type State int

const (
	// StateDisabled means configuration has validation turned off.
	StateDisabled State = iota

	// StateIdle means enabled and ready to validate.
	StateIdle

	// StateAwaitingConsent means a consent prompt for the configured
	// executable is unresolved.
	StateAwaitingConsent

	// StatePaused means a spawn failure or refused consent stopped
	// validation until configuration changes the executable.
	StatePaused
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateIdle:
		return "idle"
	case StateAwaitingConsent:
		return "awaiting-consent"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
