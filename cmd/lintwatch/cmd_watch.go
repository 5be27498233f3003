// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintwatch/cmd/lintwatch/config"
	"github.com/AleutianAI/lintwatch/pkg/logging"
	"github.com/AleutianAI/lintwatch/services/validator"
	"github.com/AleutianAI/lintwatch/services/validator/trust"
	"github.com/AleutianAI/lintwatch/services/validator/watch"
)

// documentExtensions are the file suffixes treated as Ansible documents.
var documentExtensions = []string{".yml", ".yaml"}

// runWatch starts the long-running watch loop for a workspace.
//
// # Description
//
// Loads the layered configuration, wires the validator to a recursive
// filesystem watcher, and blocks until SIGINT or SIGTERM. Edits to the
// global or workspace config file are applied live without restarting.
func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(workspaceArg(args))
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}

	loaded, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings := effectiveSettings(loaded)

	logger := logging.New(logging.Config{
		Level:  effectiveLogLevel(loaded.Config),
		LogDir: loaded.Config.Logging.Dir,
	})
	defer logger.Close()

	store, err := trust.Open(root)
	if err != nil {
		return fmt.Errorf("opening trust store: %w", err)
	}

	v := validator.New(
		store,
		&consolePrompter{assumeYes: assumeYes},
		&consolePublisher{quiet: quietOutput},
		&consoleNotifier{},
		validator.WithLogger(logger.Slog()),
		validator.WithSettings(settings),
	)

	handler := func(ev watch.Event) {
		switch ev.Kind {
		case watch.DocumentOpened:
			v.HandleOpened(validator.NewFileDocument(ev.Path))
		case watch.DocumentSaved:
			v.HandleSaved(validator.NewFileDocument(ev.Path))
		case watch.DocumentClosed:
			v.HandleClosed(ev.Path)
		case watch.ConfigChanged:
			reloaded, err := config.Load(root)
			if err != nil {
				logger.Warn("config reload failed, keeping previous settings",
					"path", ev.Path, "error", err)
				return
			}
			v.Reconfigure(effectiveSettings(reloaded))
		}
	}

	watcher, err := watch.New(root, documentExtensions, handler, logger.Slog())
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	for _, p := range []string{loaded.GlobalPath, loaded.WorkspacePath} {
		if p == "" {
			continue
		}
		if err := watcher.WatchConfigFile(p); err != nil {
			logger.Warn("config file not watched", "path", p, "error", err)
		}
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Stop()

	logger.Info("watching workspace",
		"root", root,
		"trigger", string(settings.Trigger),
		"state", v.State().String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
	return nil
}

// effectiveSettings applies CLI flag overrides on top of the loaded
// configuration. A path supplied on the command line was typed by the
// user, so it is never subject to the workspace consent gate.
func effectiveSettings(loaded config.Loaded) validator.Settings {
	s := loaded.Config.Settings(loaded.ExecutableFromWorkspace)
	if triggerMode != "" {
		s.Trigger = validator.TriggerMode(triggerMode)
	}
	if executablePath != "" {
		s.ExecutablePath = executablePath
		s.ExecutableIsWorkspaceDefined = false
	}
	return s
}

func effectiveLogLevel(cfg config.Config) logging.Level {
	if logLevel != "" {
		return logging.ParseLevel(logLevel)
	}
	return logging.ParseLevel(cfg.Logging.Level)
}
