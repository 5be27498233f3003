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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintwatch/cmd/lintwatch/config"
	"github.com/AleutianAI/lintwatch/pkg/logging"
	"github.com/AleutianAI/lintwatch/pkg/ux"
	"github.com/AleutianAI/lintwatch/services/validator"
	"github.com/AleutianAI/lintwatch/services/validator/trust"
)

// runLint validates the named files once and exits. The exit status is
// non-zero when any file has findings, so the command composes with CI
// pipelines and git hooks.
func runLint(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	loaded, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings := effectiveSettings(loaded)
	settings.Enabled = true

	logger := logging.New(logging.Config{
		Level: effectiveLogLevel(loaded.Config),
		Quiet: true,
	})
	defer logger.Close()

	store, err := trust.Open(cwd)
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

	findings := 0
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		diags, err := v.RunOnce(context.Background(), validator.NewFileDocument(path))
		if err != nil {
			return fmt.Errorf("validating %s: %w", arg, err)
		}
		if len(diags) == 0 {
			if !quietOutput {
				fmt.Println(ux.FormatClean(arg))
			}
			continue
		}
		findings += len(diags)
		for _, d := range diags {
			fmt.Println(ux.FormatFinding(arg, d.Range.StartLine, d.Message))
		}
	}

	if findings > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d finding(s)", findings)
	}
	return nil
}
