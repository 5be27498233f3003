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

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// --- Global Command Variables ---
var (
	logLevel       string   // CLI override for logging.level
	triggerMode    string   // CLI override for validation.trigger (onSave/onType)
	executablePath string   // CLI override for validation.executable_path
	assumeYes      bool     // Answer consent prompts with "allow" (trusted automation)
	quietOutput    bool     // Suppress per-document "no findings" lines

	rootCmd = &cobra.Command{
		Use:   "lintwatch",
		Short: "A daemon that watches Ansible files and surfaces ansible-lint findings as you work",
		Long: `lintwatch watches a workspace for YAML document changes, runs
ansible-lint against saved or in-flight content, and reports findings
to the terminal as they are produced.`,
	}

	watchCmd = &cobra.Command{
		Use:   "watch [workspace]",
		Short: "Watch a workspace and validate documents as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch, // Defined in cmd_watch.go
	}

	lintCmd = &cobra.Command{
		Use:   "lint <file>...",
		Short: "Validate one or more files once and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLint, // Defined in cmd_lint.go
	}

	resetTrustCmd = &cobra.Command{
		Use:   "reset-trust [workspace]",
		Short: "Forget the workspace's approved linter executable",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runResetTrust, // Defined in cmd_trust.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the lintwatch version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("lintwatch " + version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&executablePath, "executable", "", "Override the configured linter executable path")

	watchCmd.Flags().StringVar(&triggerMode, "trigger", "", "Override the validation trigger (onSave/onType)")
	watchCmd.Flags().BoolVar(&quietOutput, "quiet", false, "Only print findings, not clean-run confirmations")

	lintCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Approve workspace-defined executables without prompting")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(resetTrustCmd)
	rootCmd.AddCommand(versionCmd)
}

// workspaceArg resolves the optional positional workspace directory,
// defaulting to the current directory.
func workspaceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
