// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates lintwatch configuration.
//
// Two layers exist: the user-global file at ~/.lintwatch/config.yaml
// (created with defaults on first run) and an optional workspace file at
// <root>/.lintwatch.yaml. The workspace file overrides the global one
// field by field; an executable path taken from the workspace layer is
// marked workspace-defined, which subjects it to the trust consent gate.
package config

import (
	"time"

	"github.com/AleutianAI/lintwatch/services/validator"
)

// Config is the full lintwatch configuration.
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ValidationConfig configures the validator service.
type ValidationConfig struct {
	// Enabled turns validation on.
	Enabled bool `yaml:"enabled"`

	// Trigger is "onSave" or "onType".
	Trigger string `yaml:"trigger" validate:"omitempty,oneof=onSave onType"`

	// ExecutablePath points at the linter binary. Empty means
	// "ansible-lint from PATH".
	ExecutablePath string `yaml:"executable_path"`

	// Encoding is the IANA charset of the linter's output.
	Encoding string `yaml:"encoding"`

	// TimeoutSeconds bounds one linter run.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=0,lte=600"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir enables file logging when set.
	Dir string `yaml:"dir"`
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		Validation: ValidationConfig{
			Enabled: true,
			Trigger: "onSave",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Settings converts the merged configuration into validator settings.
//
// Inputs:
//
//	executableFromWorkspace - Whether the effective executable path came
//	from the workspace layer.
func (c Config) Settings(executableFromWorkspace bool) validator.Settings {
	return validator.Settings{
		Enabled:                      c.Validation.Enabled,
		Trigger:                      validator.TriggerMode(c.Validation.Trigger),
		ExecutablePath:               c.Validation.ExecutablePath,
		ExecutableIsWorkspaceDefined: executableFromWorkspace && c.Validation.ExecutablePath != "",
		Encoding:                     c.Validation.Encoding,
		Timeout:                      time.Duration(c.Validation.TimeoutSeconds) * time.Second,
	}
}
