// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the lintwatch CLI.
package ux

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// lintwatch palette - deep ocean teals with semantic accents
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text
	ColorWarning     = lipgloss.Color("#F4D03F") // gold for warnings
	ColorError       = lipgloss.Color("#E74C3C") // red for findings
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title    lipgloss.Style
	Path     lipgloss.Style
	Location lipgloss.Style
	Message  lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Hint     lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Path:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealPrimary),
	Location: lipgloss.NewStyle().Foreground(ColorSlate),
	Message:  lipgloss.NewStyle(),
	Muted:    lipgloss.NewStyle().Foreground(ColorSlate),
	Success:  lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
	Error:    lipgloss.NewStyle().Foreground(ColorError),
	Hint:     lipgloss.NewStyle().Italic(true).Foreground(ColorSlate),
}

/// FormatFinding renders one diagnostic as "path:line: message". The line
// is displayed 1-based, matching what editors and linters show users.
func FormatFinding(path string, zeroBasedLine int, message string) string {
	return fmt.Sprintf("%s%s %s",
		Styles.Path.Render(path),
		Styles.Location.Render(fmt.Sprintf(":%d:", zeroBasedLine+1)),
		Styles.Message.Render(message),
	)
}

// FormatClean renders the "no findings" line for a document.
func FormatClean(path string) string {
	return fmt.Sprintf("%s %s",
		Styles.Success.Render("✓"),
		Styles.Muted.Render(path+": no findings"),
	)
}

// FormatNotice renders a user-facing warning with an optional settings
// hint on a second line.
func FormatNotice(message string, offerSettings bool) string {
	out := fmt.Sprintf("%s %s", Styles.Warning.Render("⚠"), message)
	if offerSettings {
		out += "\n  " + Styles.Hint.Render("adjust validation.executable_path in ~/.lintwatch/config.yaml or .lintwatch.yaml")
	}
	return out
}

// FormatPrompt renders the consent question for a workspace-defined
// executable.
func FormatPrompt(executablePath string) string {
	return fmt.Sprintf("%s\n%s\n%s",
		Styles.Warning.Render("⚠ This workspace wants to run a linter executable it defines itself:"),
		"  "+Styles.Path.Render(executablePath),
		Styles.Title.Render("Execute it? [y/N] "),
	)
}
