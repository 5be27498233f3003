// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// WorkspaceFileName is the workspace-level config file, relative to the
// watched root.
const WorkspaceFileName = ".lintwatch.yaml"

var validate = validator.New()

// Loaded is a merged configuration plus its provenance.
type Loaded struct {
	Config Config

	// ExecutableFromWorkspace is true when the effective executable path
	// came from the workspace file.
	ExecutableFromWorkspace bool

	// GlobalPath and WorkspacePath are the files that were consulted.
	// WorkspacePath is set even if the file does not exist yet, so it
	// can be watched for creation.
	GlobalPath    string
	WorkspacePath string
}

// Load reads the global config (creating it with defaults on first run),
// overlays the workspace config if present, and validates the result.
//
// Inputs:
//
//	workspaceRoot - The watched directory; "" skips the workspace layer.
//
// Outputs:
//
//	Loaded - The merged configuration and provenance.
//	error - Non-nil on unreadable, unparsable, or invalid configuration.
func Load(workspaceRoot string) (Loaded, error) {
	var out Loaded

	globalPath, err := globalConfigPath()
	if err != nil {
		return out, err
	}
	out.GlobalPath = globalPath

	if _, err := os.Stat(globalPath); os.IsNotExist(err) {
		if err := writeDefault(globalPath); err != nil {
			return out, err
		}
	}

	cfg := Default()
	if err := readInto(globalPath, &cfg); err != nil {
		return out, err
	}

	if workspaceRoot != "" {
		out.WorkspacePath = filepath.Join(workspaceRoot, WorkspaceFileName)
		overlay, found, err := readWorkspace(out.WorkspacePath)
		if err != nil {
			return out, err
		}
		if found {
			mergeWorkspace(&cfg, overlay, &out.ExecutableFromWorkspace)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return out, fmt.Errorf("invalid configuration: %w", err)
	}

	out.Config = cfg
	return out, nil
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".lintwatch", "config.yaml"), nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// workspaceOverlay mirrors ValidationConfig with pointer fields so absent
// keys are distinguishable from zero values.
type workspaceOverlay struct {
	Validation struct {
		Enabled        *bool   `yaml:"enabled"`
		Trigger        *string `yaml:"trigger"`
		ExecutablePath *string `yaml:"executable_path"`
		Encoding       *string `yaml:"encoding"`
		TimeoutSeconds *int    `yaml:"timeout_seconds"`
	} `yaml:"validation"`
	Logging struct {
		Level *string `yaml:"level"`
		Dir   *string `yaml:"dir"`
	} `yaml:"logging"`
}

func readWorkspace(path string) (workspaceOverlay, bool, error) {
	var overlay workspaceOverlay
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overlay, false, nil
		}
		return overlay, false, fmt.Errorf("reading workspace config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return overlay, false, fmt.Errorf("parsing workspace config %s: %w", path, err)
	}
	return overlay, true, nil
}

func mergeWorkspace(cfg *Config, overlay workspaceOverlay, executableFromWorkspace *bool) {
	v := overlay.Validation
	if v.Enabled != nil {
		cfg.Validation.Enabled = *v.Enabled
	}
	if v.Trigger != nil {
		cfg.Validation.Trigger = *v.Trigger
	}
	if v.ExecutablePath != nil {
		cfg.Validation.ExecutablePath = *v.ExecutablePath
		*executableFromWorkspace = true
	}
	if v.Encoding != nil {
		cfg.Validation.Encoding = *v.Encoding
	}
	if v.TimeoutSeconds != nil {
		cfg.Validation.TimeoutSeconds = *v.TimeoutSeconds
	}
	if overlay.Logging.Level != nil {
		cfg.Logging.Level = *overlay.Logging.Level
	}
	if overlay.Logging.Dir != nil {
		cfg.Logging.Dir = *overlay.Logging.Dir
	}
}
