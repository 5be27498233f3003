// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trust gates execution of workspace-configured linter binaries.
//
// # Description
//
// A linter path set in a workspace-level config file travels with the
// workspace, not with the user, so it must not be executed until the user
// has explicitly approved that exact path. The approval is persisted per
// workspace; any change to the configured path invalidates it and
// re-triggers the prompt.
//
// # Thread Safety
//
// Store is safe for concurrent use. Concurrent consent checks for the same
// unresolved path share a single in-flight prompt rather than prompting
// twice.
package trust

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Decision is the user's answer to a consent prompt.
type Decision int

const (
	// DecisionNone means the prompt was dismissed without an answer.
	DecisionNone Decision = iota

	// DecisionAllow approves executing the path.
	DecisionAllow

	// DecisionDeny refuses executing the path.
	DecisionDeny
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	default:
		return "none"
	}
}

// Prompter asks the user whether a workspace-defined executable may run.
//
// Confirm may block indefinitely (the user can ignore the prompt); callers
// must not hold it on a path that starves other documents. A nil-error
// DecisionNone return means the prompt was dismissed.
type Prompter interface {
	Confirm(ctx context.Context, executablePath string) (Decision, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, executablePath string) (Decision, error)

// Confirm implements Prompter.
func (f PrompterFunc) Confirm(ctx context.Context, executablePath string) (Decision, error) {
	return f(ctx, executablePath)
}

// record is the on-disk shape of the persisted trust state.
type record struct {
	CheckedExecutablePath string `yaml:"checked_executable_path"`
}

// Store persists the per-workspace consented executable path.
type Store struct {
	mu      sync.Mutex
	path    string
	rec     record
	pending map[string]*pendingPrompt
}

type pendingPrompt struct {
	done    chan struct{}
	allowed bool
	err     error
}

// trustFileName is the workspace-relative location of the trust record.
const trustFileName = ".lintwatch/trust.yaml"

// Open loads (or initializes) the trust store for a workspace.
//
// Inputs:
//
//	workspaceRoot - The workspace directory the record belongs to.
//
// Outputs:
//
//	*Store - The loaded store. A missing record file is not an error.
//	error - Non-nil if an existing record could not be read.
func Open(workspaceRoot string) (*Store, error) {
	s := &Store{
		path:    filepath.Join(workspaceRoot, trustFileName),
		pending: make(map[string]*pendingPrompt),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading trust record: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.rec); err != nil {
		return nil, fmt.Errorf("parsing trust record: %w", err)
	}
	return s, nil
}

// CheckedPath returns the last consented executable path, or "".
func (s *Store) CheckedPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.CheckedExecutablePath
}

// Reset clears the persisted consent. Exposed through the reset-trust
// command.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.CheckedExecutablePath = ""
	return s.persistLocked()
}

// Authorize decides whether executablePath may be spawned.
//
// Description:
//
//	A path that is not workspace-defined is implicitly trusted. A
//	workspace-defined path is trusted only while it equals the persisted
//	checked path; otherwise the prompter is consulted. Allow persists the
//	path and authorizes; Deny or dismissal clears any persisted value and
//	refuses. Concurrent calls for the same unresolved path wait on the
//	single in-flight prompt and share its outcome.
//
// Inputs:
//
//	ctx - Cancels waiting on an in-flight prompt for the same path.
//	executablePath - The resolved linter path from configuration.
//	workspaceDefined - Whether the path came from workspace-level config.
//	prompter - Consulted on a trust mismatch. Must not be nil when
//	workspaceDefined is true.
//
// Outputs:
//
//	bool - True if the path may be executed.
//	error - Non-nil on prompt or persistence failure.
func (s *Store) Authorize(ctx context.Context, executablePath string, workspaceDefined bool, prompter Prompter) (bool, error) {
	if !workspaceDefined {
		return true, nil
	}

	s.mu.Lock()
	if s.rec.CheckedExecutablePath == executablePath {
		s.mu.Unlock()
		return true, nil
	}
	if pp := s.pending[executablePath]; pp != nil {
		s.mu.Unlock()
		select {
		case <-pp.done:
			return pp.allowed, pp.err
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	pp := &pendingPrompt{done: make(chan struct{})}
	s.pending[executablePath] = pp
	s.mu.Unlock()

	decision, err := prompter.Confirm(ctx, executablePath)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(pp.done)
	delete(s.pending, executablePath)

	if err != nil {
		pp.err = err
		return false, err
	}

	if decision == DecisionAllow {
		s.rec.CheckedExecutablePath = executablePath
		if err := s.persistLocked(); err != nil {
			pp.err = err
			return false, err
		}
		pp.allowed = true
		return true, nil
	}

	// Deny and dismissal both invalidate whatever was persisted before.
	s.rec.CheckedExecutablePath = ""
	if err := s.persistLocked(); err != nil {
		pp.err = err
		return false, err
	}
	return false, nil
}

func (s *Store) persistLocked() error {
	data, err := yaml.Marshal(s.rec)
	if err != nil {
		return fmt.Errorf("encoding trust record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating trust directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing trust record: %w", err)
	}
	return nil
}
