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
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FirstRunCreatesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !loaded.Config.Validation.Enabled {
		t.Error("default config should enable validation")
	}
	if loaded.Config.Validation.Trigger != "onSave" {
		t.Errorf("default trigger = %q, want onSave", loaded.Config.Validation.Trigger)
	}
	if _, err := os.Stat(filepath.Join(home, ".lintwatch", "config.yaml")); err != nil {
		t.Errorf("first run did not create the global config: %v", err)
	}
}

func TestLoad_WorkspaceOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	workspace := t.TempDir()
	wsConfig := `validation:
  trigger: onType
  executable_path: ./bin/ansible-lint
`
	if err := os.WriteFile(filepath.Join(workspace, WorkspaceFileName), []byte(wsConfig), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := Load(workspace)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Config.Validation.Trigger != "onType" {
		t.Errorf("trigger = %q, want workspace override onType", loaded.Config.Validation.Trigger)
	}
	if loaded.Config.Validation.ExecutablePath != "./bin/ansible-lint" {
		t.Errorf("executable = %q", loaded.Config.Validation.ExecutablePath)
	}
	if !loaded.ExecutableFromWorkspace {
		t.Error("workspace-sourced executable must be flagged workspace-defined")
	}
	// Fields the workspace file does not mention keep their global value.
	if !loaded.Config.Validation.Enabled {
		t.Error("enabled should fall through to the global default")
	}
}

func TestLoad_GlobalExecutableIsNotWorkspaceDefined(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	globalDir := filepath.Join(home, ".lintwatch")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	global := `validation:
  enabled: true
  trigger: onSave
  executable_path: /usr/local/bin/ansible-lint
`
	if err := os.WriteFile(filepath.Join(globalDir, "config.yaml"), []byte(global), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ExecutableFromWorkspace {
		t.Error("globally configured executable must not be workspace-defined")
	}

	s := loaded.Config.Settings(loaded.ExecutableFromWorkspace)
	if s.ExecutableIsWorkspaceDefined {
		t.Error("settings should inherit the user-level provenance")
	}
}

func TestLoad_InvalidTriggerRejected(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(workspace, WorkspaceFileName), []byte("validation:\n  trigger: onBlur\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(workspace); err == nil {
		t.Error("expected validation error for unknown trigger mode")
	}
}

func TestSettings_DerivesWorkspaceFlag(t *testing.T) {
	cfg := Default()
	cfg.Validation.ExecutablePath = "./linter"

	if !cfg.Settings(true).ExecutableIsWorkspaceDefined {
		t.Error("workspace-sourced path should be workspace-defined")
	}
	if cfg.Settings(false).ExecutableIsWorkspaceDefined {
		t.Error("user-sourced path should not be workspace-defined")
	}

	cfg.Validation.ExecutablePath = ""
	if cfg.Settings(true).ExecutableIsWorkspaceDefined {
		t.Error("empty path is the built-in default and needs no consent")
	}
}
