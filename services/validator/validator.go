// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validator orchestrates external-linter validation of documents.
//
// # Description
//
// The validator reacts to document lifecycle events, debounces them per
// document, spawns the configured linter process (file-path argument in
// on-save mode, live text on stdin in on-type mode), streams its output
// through the incremental line decoder and diagnostic extractor, and
// publishes the resulting diagnostic set per document. A workspace-defined
// executable must pass the consent gate before it is ever spawned.
//
// # Ordering
//
// Validations are strictly serialized per document: the scheduler never
// starts a run while one is outstanding for the same key, so a later
// trigger's results can never be overwritten by an earlier, slower run.
//
// # Thread Safety
//
// Safe for concurrent use.
package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lintwatch/pkg/validation"
	"github.com/AleutianAI/lintwatch/services/validator/parse"
	"github.com/AleutianAI/lintwatch/services/validator/schedule"
	"github.com/AleutianAI/lintwatch/services/validator/stream"
	"github.com/AleutianAI/lintwatch/services/validator/trust"
)

// readBufferSize is the chunk size for draining linter stdout.
const readBufferSize = 4096

// Validator owns configuration-derived state and drives the validation
// pipeline for every open document.
type Validator struct {
	mu         sync.Mutex
	settings   Settings
	state      State
	pausedPath string
	generation uint64
	docs       map[string]Document

	sched    *schedule.Debouncer
	trust    *trust.Store
	prompter trust.Prompter
	pub      Publisher
	notifier Notifier
	log      *slog.Logger
}

// Option configures the Validator.
type Option func(*Validator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.log = logger
	}
}

// WithSettings applies initial settings without the reload side effects.
func WithSettings(s Settings) Option {
	return func(v *Validator) {
		v.settings = s.withDefaults()
		if v.settings.Enabled {
			v.state = StateIdle
		} else {
			v.state = StateDisabled
		}
	}
}

// New creates a Validator.
//
// Inputs:
//
//	trustStore - Per-workspace consent persistence. Must not be nil.
//	prompter - Consulted for workspace-defined executables.
//	pub - Diagnostic sink. Must not be nil.
//	notifier - User-facing failure notices. Must not be nil.
//	opts - Optional configuration.
func New(trustStore *trust.Store, prompter trust.Prompter, pub Publisher, notifier Notifier, opts ...Option) *Validator {
	v := &Validator{
		state:    StateDisabled,
		docs:     make(map[string]Document),
		sched:    schedule.New(),
		trust:    trustStore,
		prompter: prompter,
		pub:      pub,
		notifier: notifier,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// State returns the orchestrator's current mode.
func (v *Validator) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Reconfigure replaces the settings wholesale.
//
// Description:
//
//	Cancels all scheduled work, clears all published diagnostics, and
//	recomputes the orchestrator state. A paused validator stays paused
//	only if the executable path is unchanged. If validation is enabled
//	afterwards, every open document is re-validated.
func (v *Validator) Reconfigure(s Settings) {
	s = s.withDefaults()

	v.mu.Lock()
	v.generation++
	v.sched.DisposeAll()

	samePath := s.ExecutablePath == v.pausedPath
	wasPaused := v.state == StatePaused
	v.settings = s

	switch {
	case !s.Enabled:
		v.state = StateDisabled
	case wasPaused && samePath:
		v.state = StatePaused
	default:
		v.state = StateIdle
		v.pausedPath = ""
	}

	var reopen []Document
	for key, doc := range v.docs {
		v.pub.Clear(key)
		reopen = append(reopen, doc)
	}
	runnable := v.state == StateIdle
	v.mu.Unlock()

	v.log.Info("configuration reloaded",
		slog.Bool("enabled", s.Enabled),
		slog.String("trigger", string(s.Trigger)),
		slog.String("state", v.State().String()),
	)

	if runnable {
		for _, doc := range reopen {
			v.request(doc)
		}
	}
}

// HandleOpened registers a document and validates it.
func (v *Validator) HandleOpened(doc Document) {
	v.mu.Lock()
	v.docs[doc.Key()] = doc
	v.mu.Unlock()
	v.request(doc)
}

// HandleSaved validates a saved document. A save triggers validation in
// both modes; in on-type mode it simply coalesces with pending work.
func (v *Validator) HandleSaved(doc Document) {
	v.mu.Lock()
	v.docs[doc.Key()] = doc
	v.mu.Unlock()
	v.request(doc)
}

// HandleChanged validates a changed document in on-type mode. A no-op in
// on-save mode.
func (v *Validator) HandleChanged(doc Document) {
	v.mu.Lock()
	onType := v.settings.Trigger == TriggerOnType
	if onType {
		v.docs[doc.Key()] = doc
	}
	v.mu.Unlock()
	if onType {
		v.request(doc)
	}
}

// HandleClosed removes the document's diagnostics and scheduled work. A
// run already streaming output will discard its result.
func (v *Validator) HandleClosed(key string) {
	v.mu.Lock()
	delete(v.docs, key)
	v.mu.Unlock()

	v.sched.Dispose(key)
	v.pub.Clear(key)
}

// request routes one validation trigger through the consent gate and the
// scheduler. Never blocks the caller on a consent prompt.
func (v *Validator) request(doc Document) {
	v.mu.Lock()
	s := v.settings
	state := v.state
	gen := v.generation
	v.mu.Unlock()

	if !s.Enabled || state == StateDisabled || state == StatePaused {
		return
	}
	if doc.Language() != LanguageAnsible {
		return
	}

	go v.gateAndSchedule(doc, s, gen)
}

// gateAndSchedule performs the consent check (which may block on a user
// prompt) and then hands the validation task to the scheduler.
func (v *Validator) gateAndSchedule(doc Document, s Settings, gen uint64) {
	execPath := s.resolvedExecutable()

	needsPrompt := s.ExecutableIsWorkspaceDefined && v.trust.CheckedPath() != execPath
	if needsPrompt {
		v.setStateIf(StateIdle, StateAwaitingConsent)
	}

	allowed, err := v.trust.Authorize(context.Background(), execPath, s.ExecutableIsWorkspaceDefined, v.prompter)
	if err != nil {
		v.log.Error("consent check failed",
			slog.String("executable", execPath),
			slog.String("error", err.Error()),
		)
		allowed = false
	}

	if !allowed {
		v.pause(s.ExecutablePath)
		v.log.Warn("validation paused: executable not trusted",
			slog.String("executable", execPath),
		)
		return
	}
	if needsPrompt {
		v.setStateIf(StateAwaitingConsent, StateIdle)
	}

	v.mu.Lock()
	stale := gen != v.generation || v.state == StatePaused || v.state == StateDisabled
	v.mu.Unlock()
	if stale {
		return
	}

	v.sched.Trigger(doc.Key(), s.debounceDelay(), func() {
		v.runValidation(doc, s)
	})
}

// runValidation executes one linter run for the document and publishes the
// outcome. Runs inside the scheduler's per-key serialization.
func (v *Validator) runValidation(doc Document, s Settings) {
	key := doc.Key()
	if !v.isOpen(key) {
		return
	}

	runLog := v.log.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("document", key),
	)

	diagnostics, err := v.execute(context.Background(), s, doc, runLog)
	if err != nil {
		v.handleSpawnError(err, s, key)
		return
	}

	v.mu.Lock()
	_, open := v.docs[key]
	v.mu.Unlock()
	if !open {
		// The document closed while the process was streaming; its
		// output is discarded.
		runLog.Debug("discarding diagnostics for closed document")
		return
	}

	v.pub.Publish(key, diagnostics)
	runLog.Debug("diagnostics published", slog.Int("count", len(diagnostics)))
}

// execute spawns one linter process and streams its output through the
// line decoder and diagnostic extractor.
func (v *Validator) execute(ctx context.Context, s Settings, doc Document, runLog *slog.Logger) ([]parse.Diagnostic, error) {
	execPath := s.resolvedExecutable()
	if err := validation.ValidateExecutablePath(execPath); err != nil {
		return nil, NewValidationError(execPath, doc.Key(), fmt.Errorf("%w: %w", ErrSpawnFailed, err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var args []string
	var input string
	if s.Trigger == TriggerOnType {
		text, err := doc.Text()
		if err != nil {
			return nil, NewValidationError(execPath, doc.Key(), err)
		}
		input = text
		args = []string{"--nocolor", "-p", "-"}
	} else {
		args = []string{"--nocolor", "-p", doc.Path()}
	}

	cmd := exec.CommandContext(ctx, execPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, NewValidationError(execPath, doc.Key(), err)
	}
	var stdin io.WriteCloser
	if s.Trigger == TriggerOnType {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return nil, NewValidationError(execPath, doc.Key(), err)
		}
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, NewValidationError(execPath, doc.Key(), err)
	}

	decoder, err := stream.NewDecoderForCharset(s.Encoding)
	if err != nil {
		runLog.Warn("unknown output charset, falling back to UTF-8",
			slog.String("charset", s.Encoding),
		)
		decoder = stream.NewDecoder(nil)
	}

	diagnostics := make([]parse.Diagnostic, 0)
	consume := func(line string) {
		if d, ok := parse.Extract(line); ok {
			diagnostics = append(diagnostics, d)
		}
	}

	var g errgroup.Group
	if stdin != nil {
		g.Go(func() error {
			defer stdin.Close()
			_, err := io.WriteString(stdin, input)
			return err
		})
	}
	g.Go(func() error {
		buf := make([]byte, readBufferSize)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				for _, line := range decoder.Write(buf[:n]) {
					consume(line)
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return readErr
			}
		}
		if final, ok := decoder.End(); ok {
			consume(final)
		}
		return nil
	})

	streamErr := g.Wait()
	// Linters exit non-zero when they find issues; only the streaming
	// outcome decides success here.
	waitErr := cmd.Wait()

	if streamErr != nil {
		runLog.Warn("reading linter output failed", slog.String("error", streamErr.Error()))
	}
	if waitErr != nil {
		runLog.Debug("linter exited non-zero",
			slog.String("error", waitErr.Error()),
			slog.Int("diagnostics", len(diagnostics)),
			slog.String("stderr", stderr.String()),
		)
	}
	if ctx.Err() == context.DeadlineExceeded {
		runLog.Warn("linter run timed out", slog.String("executable", execPath))
	}

	return diagnostics, nil
}

// RunOnce validates a single document synchronously, outside the scheduler
// and document bookkeeping. Used by the one-shot lint command.
func (v *Validator) RunOnce(ctx context.Context, doc Document) ([]parse.Diagnostic, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if doc.Language() != LanguageAnsible {
		return nil, fmt.Errorf("%w: unsupported document %q", ErrInvalidInput, doc.Path())
	}

	v.mu.Lock()
	s := v.settings
	v.mu.Unlock()

	execPath := s.resolvedExecutable()
	allowed, err := v.trust.Authorize(ctx, execPath, s.ExecutableIsWorkspaceDefined, v.prompter)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrConsentDeclined, execPath)
	}

	diagnostics, err := v.execute(ctx, s, doc, v.log.With(slog.String("document", doc.Key())))
	if err != nil {
		return nil, classifySpawnError(err)
	}
	return diagnostics, nil
}

// handleSpawnError classifies a failed spawn, notifies the user once, and
// pauses validation until configuration changes.
func (v *Validator) handleSpawnError(err error, s Settings, key string) {
	v.mu.Lock()
	alreadyPaused := v.state == StatePaused
	if !alreadyPaused {
		v.state = StatePaused
		v.pausedPath = s.ExecutablePath
	}
	v.mu.Unlock()

	if alreadyPaused {
		// The user has already been told; repeating the notice on every
		// queued trigger would be noise.
		return
	}

	classified := classifySpawnError(err)
	execPath := s.resolvedExecutable()

	notice := Notice{
		ExecutablePath: execPath,
		OfferSettings:  true,
	}
	switch {
	case errors.Is(classified, ErrExecutableNotFound) && s.ExecutablePath == "":
		notice.Kind = NoticeExecutableNotFound
		notice.Message = fmt.Sprintf("no linter executable configured and %s was not found on PATH", DefaultExecutable)
	case errors.Is(classified, ErrExecutableNotFound):
		notice.Kind = NoticeExecutableNotFound
		notice.Message = fmt.Sprintf("the configured linter executable %q is invalid", s.ExecutablePath)
	default:
		notice.Kind = NoticeSpawnFailure
		notice.Message = fmt.Sprintf("starting the linter failed: %v", err)
	}

	v.log.Error("validation paused",
		slog.String("document", key),
		slog.String("executable", execPath),
		slog.String("error", classified.Error()),
	)
	v.notifier.Notify(notice)
}

// classifySpawnError maps OS-level start failures onto the package
// sentinels, preserving the original error for inspection.
func classifySpawnError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		if errors.Is(verr.Err, exec.ErrNotFound) || errors.Is(verr.Err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrSpawnFailed, err)
}

// pause transitions to StatePaused, remembering the configured path so a
// reload with the same path stays paused.
func (v *Validator) pause(configuredPath string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateDisabled {
		return
	}
	v.state = StatePaused
	v.pausedPath = configuredPath
}

// setStateIf transitions from one state to another atomically.
func (v *Validator) setStateIf(from, to State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == from {
		v.state = to
	}
}

// isOpen reports whether the document is still registered.
func (v *Validator) isOpen(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.docs[key]
	return ok
}
