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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/lintwatch/pkg/ux"
	"github.com/AleutianAI/lintwatch/services/validator"
	"github.com/AleutianAI/lintwatch/services/validator/parse"
	"github.com/AleutianAI/lintwatch/services/validator/trust"
)

// consolePublisher writes each document's finding set to stdout.
//
// # Thread Safety
//
// Safe for concurrent use. Validation runs for different documents can
// complete at the same time; the mutex keeps each document's block of
// lines contiguous.
type consolePublisher struct {
	mu    sync.Mutex
	quiet bool
}

func (p *consolePublisher) Publish(key string, diagnostics []parse.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(diagnostics) == 0 {
		if !p.quiet {
			fmt.Println(ux.FormatClean(key))
		}
		return
	}
	for _, d := range diagnostics {
		fmt.Println(ux.FormatFinding(key, d.Range.StartLine, d.Message))
	}
}

func (p *consolePublisher) Clear(key string) {
	// Terminal output cannot be retracted; closed documents simply stop
	// producing lines.
}

// consoleNotifier prints validation failure notices to stderr.
type consoleNotifier struct {
	mu sync.Mutex
}

func (n *consoleNotifier) Notify(notice validator.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(os.Stderr, ux.FormatNotice(notice.Message, notice.OfferSettings))
}

// consolePrompter asks the user on the terminal whether a
// workspace-defined executable may run.
//
// # Description
//
// When stdin is not a terminal there is no one to ask, so the prompt is
// treated as dismissed and validation stays paused until the executable
// is approved interactively or the configuration changes.
type consolePrompter struct {
	mu        sync.Mutex
	assumeYes bool
}

func (p *consolePrompter) Confirm(ctx context.Context, executablePath string) (trust.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.assumeYes {
		return trust.DecisionAllow, nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return trust.DecisionNone, nil
	}

	fmt.Fprint(os.Stderr, ux.FormatPrompt(executablePath))

	type answer struct {
		text string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		text, err := reader.ReadString('\n')
		ch <- answer{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return trust.DecisionNone, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return trust.DecisionNone, nil
		}
		switch strings.ToLower(strings.TrimSpace(a.text)) {
		case "y", "yes":
			return trust.DecisionAllow, nil
		case "n", "no":
			return trust.DecisionDeny, nil
		default:
			return trust.DecisionNone, nil
		}
	}
}
